// Package assemble replays a plan record against real media: it trims every
// scene part, concatenates them in plan order and muxes in the audio track.
package assemble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Atomic-Germ/bounce/internal/align"
	"github.com/Atomic-Germ/bounce/internal/ffmpeg"
	"github.com/Atomic-Germ/bounce/internal/logging"
	"github.com/Atomic-Germ/bounce/pkg/util"
)

// audioTolerance is how much longer than the audio the concatenated video
// may be before the mux truncates it.
const audioTolerance = 0.1

// Media is the set of external media operations assembly needs. It is
// satisfied by *ffmpeg.Executor.
type Media interface {
	Duration(ctx context.Context, path string) (float64, error)
	Trim(ctx context.Context, input string, opts ffmpeg.TrimOptions) error
	Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error
	Mux(ctx context.Context, opts ffmpeg.MuxOptions) error
}

// Options configures one assembly run
type Options struct {
	ScenesDir string
	AudioPath string
	Output    string
	// TrimWorkers bounds concurrent per-part trims; values below 1 run
	// sequentially. Each trim reads its own source and writes its own
	// scratch file, so ordering is restored at the concat step.
	TrimWorkers  int
	AudioBitrate string
	Encode       ffmpeg.EncodeOptions
}

// Assembler executes plan records
type Assembler struct {
	logger zerolog.Logger
	media  Media
}

// New creates an assembler using the given media operations
func New(logger zerolog.Logger, media Media) *Assembler {
	return &Assembler{
		logger: logging.WithComponent(logger, "assemble"),
		media:  media,
	}
}

// Run trims every entry, concatenates the parts in plan order and muxes the
// audio track into the final output. Any failure aborts the run; the named
// output file only appears on full success, and scratch files are removed
// on every exit path.
func (a *Assembler) Run(ctx context.Context, entries []align.Entry, opts Options) error {
	if err := a.validate(entries, opts); err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "bounce-assemble-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	a.logger.Info().
		Int("parts", len(entries)).
		Str("scratch", scratch).
		Msg("assembly started")

	parts, err := a.trimParts(ctx, entries, opts, scratch)
	if err != nil {
		return err
	}

	a.logger.Info().Int("parts", len(parts)).Msg("concatenating parts")
	concatenated := filepath.Join(scratch, "concatenated.mp4")
	err = a.media.Concat(ctx, ffmpeg.ConcatOptions{
		Inputs: parts,
		Output: concatenated,
		Encode: opts.Encode,
	})
	if err != nil {
		return err
	}

	if err := a.mux(ctx, concatenated, opts); err != nil {
		return err
	}

	a.logger.Info().Str("output", opts.Output).Msg("assembly complete")
	return nil
}

// validate fails fast on data errors before any transcode starts
func (a *Assembler) validate(entries []align.Entry, opts Options) error {
	if len(entries) == 0 {
		return fmt.Errorf("plan record contains no entries")
	}
	if !util.FileExists(opts.AudioPath) {
		return fmt.Errorf("audio file not found: %s", opts.AudioPath)
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	for _, e := range entries {
		if e.TrimTo <= 0 {
			return fmt.Errorf("plan entry %s part %d has non-positive duration %.6f",
				e.Scene, e.Part, e.TrimTo)
		}
		scenePath := filepath.Join(opts.ScenesDir, e.Scene)
		if !util.FileExists(scenePath) {
			return fmt.Errorf("scene referenced by plan not found: %s", scenePath)
		}
	}
	return nil
}

func (a *Assembler) trimParts(ctx context.Context, entries []align.Entry, opts Options, scratch string) ([]string, error) {
	parts := make([]string, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	workers := opts.TrimWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, entry := range entries {
		i, entry := i, entry
		parts[i] = filepath.Join(scratch, fmt.Sprintf("trimmed_%04d.mp4", i+1))
		g.Go(func() error {
			a.logger.Info().
				Str("scene", entry.Scene).
				Int("part", entry.Part).
				Int("total_parts", entry.TotalParts).
				Float64("start", entry.StartOffset).
				Float64("trim_to", entry.TrimTo).
				Msg("trimming scene part")

			return a.media.Trim(gctx, filepath.Join(opts.ScenesDir, entry.Scene), ffmpeg.TrimOptions{
				StartOffset: entry.StartOffset,
				Duration:    entry.TrimTo,
				Output:      parts[i],
				StripAudio:  true,
				Encode:      opts.Encode,
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("trimming failed: %w", err)
	}
	return parts, nil
}

// mux reconciles video and audio length and writes the final artifact via a
// temporary path so a failed mux never leaves a partial named output.
func (a *Assembler) mux(ctx context.Context, video string, opts Options) error {
	videoDur, err := a.media.Duration(ctx, video)
	if err != nil {
		return err
	}
	audioDur, err := a.media.Duration(ctx, opts.AudioPath)
	if err != nil {
		return err
	}

	truncateTo := 0.0
	if videoDur > audioDur+audioTolerance {
		truncateTo = audioDur
	}

	a.logger.Info().
		Float64("video_duration", videoDur).
		Float64("audio_duration", audioDur).
		Float64("truncate_to", truncateTo).
		Msg("muxing audio track")

	outDir := filepath.Dir(opts.Output)
	tmpOut := filepath.Join(outDir, ".bounce-tmp-"+filepath.Base(opts.Output))
	defer os.Remove(tmpOut)

	err = a.media.Mux(ctx, ffmpeg.MuxOptions{
		VideoPath:    video,
		AudioPath:    opts.AudioPath,
		Output:       tmpOut,
		TruncateTo:   truncateTo,
		AudioBitrate: opts.AudioBitrate,
		Encode:       opts.Encode,
	})
	if err != nil {
		return err
	}

	if err := os.Rename(tmpOut, opts.Output); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
