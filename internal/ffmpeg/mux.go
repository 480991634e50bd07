package ffmpeg

import (
	"context"
	"fmt"

	"github.com/Atomic-Germ/bounce/pkg/util"
)

// MuxOptions defines audio muxing parameters. TruncateTo > 0 cuts the video
// stream to that duration, which forces a re-encode; otherwise the video is
// stream-copied and the output stops at the shorter stream.
type MuxOptions struct {
	VideoPath    string
	AudioPath    string
	Output       string
	TruncateTo   float64
	AudioBitrate string
	Encode       EncodeOptions
}

// Mux combines a silent video with an audio track into one container.
// The output carries exactly one video and one audio stream.
func (e *Executor) Mux(ctx context.Context, opts MuxOptions) error {
	if opts.VideoPath == "" || opts.AudioPath == "" {
		return fmt.Errorf("video and audio paths are required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	bitrate := opts.AudioBitrate
	if bitrate == "" {
		bitrate = "192k"
	}

	args := []string{
		"-i", opts.VideoPath,
		"-i", opts.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
	}

	if opts.TruncateTo > 0 {
		e.logger.Info().
			Float64("truncate_to", opts.TruncateTo).
			Msg("muxing audio, truncating video to audio length")
		args = append(args, "-t", util.FormatSeconds(opts.TruncateTo))
		args = append(args, opts.Encode.args()...)
	} else {
		e.logger.Info().Msg("muxing audio")
		args = append(args, "-c:v", "copy", "-shortest")
	}

	args = append(args,
		"-c:a", DefaultAudioCodec,
		"-b:a", bitrate,
		opts.Output,
	)

	runOpts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("mux")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("mux failed: %w", err)
	}

	e.logger.Debug().Str("output", opts.Output).Msg("mux complete")
	return nil
}
