package scenes

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/Atomic-Germ/bounce/internal/ffmpeg"
	"github.com/Atomic-Germ/bounce/internal/logging"
	"github.com/Atomic-Germ/bounce/pkg/util"
)

// sensitiveThreshold is the floor of the detection retry ladder.
const sensitiveThreshold = 0.15

// DetectOptions configures scene detection and splitting
type DetectOptions struct {
	// Threshold is the initial frame-difference sensitivity (0-1).
	Threshold float64
	// MinSceneLength drops segments shorter than this, in seconds.
	MinSceneLength float64
	Encode         ffmpeg.EncodeOptions
}

// Cutter is the set of media operations detection needs. It is satisfied by
// *ffmpeg.Executor.
type Cutter interface {
	Duration(ctx context.Context, path string) (float64, error)
	DetectCuts(ctx context.Context, input string, threshold float64) ([]float64, error)
	Trim(ctx context.Context, input string, opts ffmpeg.TrimOptions) error
}

// Detector finds scene cuts in a video and splits it into numbered silent
// clips. When a threshold yields three or fewer cuts it retries at 0.6x the
// threshold and then at the sensitive floor before giving up.
type Detector struct {
	logger zerolog.Logger
	ff     Cutter
}

// NewDetector creates a scene detector using the given media operations
func NewDetector(logger zerolog.Logger, ff Cutter) *Detector {
	return &Detector{
		logger: logging.WithComponent(logger, "scenes"),
		ff:     ff,
	}
}

// Detect writes one clip per scene into outDir and returns the cut
// timestamps that produced them. Time zero is always a scene start.
func (d *Detector) Detect(ctx context.Context, videoPath, outDir string, opts DetectOptions) ([]float64, error) {
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("scene threshold must be in (0, 1], got %f", opts.Threshold)
	}

	duration, err := d.ff.Duration(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	cuts, err := d.detectWithRetry(ctx, videoPath, opts.Threshold)
	if err != nil {
		return nil, err
	}

	boundaries := append([]float64{0}, cuts...)

	if err := util.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("failed to create scenes dir: %w", err)
	}

	if err := d.split(ctx, videoPath, outDir, boundaries, duration, opts); err != nil {
		return nil, err
	}

	return boundaries, nil
}

func (d *Detector) detectWithRetry(ctx context.Context, videoPath string, threshold float64) ([]float64, error) {
	cuts, err := d.ff.DetectCuts(ctx, videoPath, threshold)
	if err != nil {
		return nil, err
	}

	// A near-empty result usually means the threshold is too strict for
	// this footage, not that the footage is one shot.
	ladder := []float64{threshold * 0.6, sensitiveThreshold}
	for _, t := range ladder {
		if len(cuts) > 3 || t >= threshold {
			break
		}
		d.logger.Info().
			Int("cuts", len(cuts)).
			Float64("retry_threshold", t).
			Msg("few cuts detected, retrying with lower threshold")
		cuts, err = d.ff.DetectCuts(ctx, videoPath, t)
		if err != nil {
			return nil, err
		}
	}

	return cuts, nil
}

func (d *Detector) split(ctx context.Context, videoPath, outDir string, boundaries []float64, duration float64, opts DetectOptions) error {
	created := 0
	for i, start := range boundaries {
		end := duration
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		}
		segment := end - start

		if segment < opts.MinSceneLength {
			d.logger.Debug().
				Int("scene", i+1).
				Float64("duration", segment).
				Msg("skipping scene, too short")
			continue
		}

		created++
		clipPath := filepath.Join(outDir, ClipName(created))
		d.logger.Info().
			Int("scene", created).
			Float64("start", start).
			Float64("end", end).
			Msg("extracting scene clip")

		err := d.ff.Trim(ctx, videoPath, ffmpeg.TrimOptions{
			StartOffset: start,
			Duration:    segment,
			Output:      clipPath,
			StripAudio:  true,
			Encode:      opts.Encode,
		})
		if err != nil {
			return fmt.Errorf("failed to extract scene %d: %w", created, err)
		}
	}

	if created == 0 {
		return fmt.Errorf("no scenes long enough to keep in %s", videoPath)
	}

	d.logger.Info().Int("clips", created).Str("dir", outDir).Msg("scene splitting complete")
	return nil
}
