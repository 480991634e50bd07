package ffmpeg

import (
	"context"
	"fmt"

	"github.com/Atomic-Germ/bounce/pkg/util"
)

// TrimOptions defines part extraction parameters. StartOffset may land
// anywhere inside the source, so the cut always re-encodes; a stream copy
// would snap to the previous keyframe and drift off the measure grid.
type TrimOptions struct {
	StartOffset float64
	Duration    float64
	Output      string
	StripAudio  bool
	Encode      EncodeOptions
}

// Trim cuts a segment from a video starting at an arbitrary offset
func (e *Executor) Trim(ctx context.Context, input string, opts TrimOptions) error {
	if opts.Duration <= 0 {
		return fmt.Errorf("invalid trim duration: %f", opts.Duration)
	}
	if opts.StartOffset < 0 {
		return fmt.Errorf("invalid start offset: %f", opts.StartOffset)
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Float64("start", opts.StartOffset).
		Float64("duration", opts.Duration).
		Msg("trimming part")

	args := []string{
		"-i", input,
		"-ss", util.FormatSeconds(opts.StartOffset),
		"-t", util.FormatSeconds(opts.Duration),
	}
	args = append(args, opts.Encode.args()...)
	if opts.StripAudio {
		args = append(args, "-an")
	}
	args = append(args, opts.Output)

	runOpts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("trim")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("trim failed: %w", err)
	}

	e.logger.Debug().Str("output", opts.Output).Msg("trim complete")
	return nil
}
