// Package pipeline sequences the full run: beat detection, downbeat
// filtering, scene detection, alignment planning and final assembly, with
// every intermediate artifact persisted in a scratch directory.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/Atomic-Germ/bounce/internal/align"
	"github.com/Atomic-Germ/bounce/internal/assemble"
	"github.com/Atomic-Germ/bounce/internal/beats"
	"github.com/Atomic-Germ/bounce/internal/config"
	"github.com/Atomic-Germ/bounce/internal/ffmpeg"
	"github.com/Atomic-Germ/bounce/internal/logging"
	"github.com/Atomic-Germ/bounce/internal/scenes"
	"github.com/Atomic-Germ/bounce/pkg/util"
)

// RunOptions configures a full pipeline run
type RunOptions struct {
	AudioPath string
	VideoPath string
	Output    string
	// SceneThreshold is the detection sensitivity (0-1, lower = more
	// sensitive).
	SceneThreshold float64
	// BeatsPerMeasure selects which beats are downbeats (default 4).
	BeatsPerMeasure int
	// MaxSceneMeasures caps scene length in measures; zero disables
	// splitting.
	MaxSceneMeasures int
	// KeepWork leaves the scratch directory in place for inspection.
	KeepWork bool
}

// Pipeline orchestrates the whole beat-sync workflow
type Pipeline struct {
	logger zerolog.Logger
	cfg    *config.Config
	ff     *ffmpeg.Executor
}

// New creates a pipeline instance
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	ff, err := ffmpeg.New(logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.Threads)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	return &Pipeline{
		logger: logging.WithComponent(logger, "pipeline"),
		cfg:    cfg,
		ff:     ff,
	}, nil
}

// Run executes every stage in order. Configuration problems are reported
// before any external tool is invoked; a failing stage aborts the run.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) error {
	if err := p.validate(opts); err != nil {
		return err
	}

	workDir, err := os.MkdirTemp(p.cfg.WorkDir, "bounce_")
	if err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	if opts.KeepWork {
		p.logger.Info().Str("work_dir", workDir).Msg("keeping working directory")
	} else {
		defer os.RemoveAll(workDir)
	}

	beatsFile := filepath.Join(workDir, "beats.txt")
	measuresFile := filepath.Join(workDir, "measures.txt")
	scenesDir := filepath.Join(workDir, "scenes")
	planFile := filepath.Join(workDir, "scene_plan.txt")

	// Stage 1: beat detection
	p.logger.Info().Str("stage", "beats").Msg("stage started")
	track, err := beats.Detect(ctx, p.logger, p.cfg.Beats.TrackerCommand, opts.AudioPath)
	if err != nil {
		return fmt.Errorf("beat detection failed: %w", err)
	}
	desc := fmt.Sprintf("Beat timestamps for: %s", opts.AudioPath)
	if err := beats.WriteFile(beatsFile, track, desc); err != nil {
		return err
	}

	// Stage 2: downbeat filtering
	p.logger.Info().Str("stage", "measures").Msg("stage started")
	measures, err := track.Downbeats(opts.BeatsPerMeasure)
	if err != nil {
		return err
	}
	desc = fmt.Sprintf("Measure timestamps (every %d beats)", opts.BeatsPerMeasure)
	if err := beats.WriteFile(measuresFile, measures, desc); err != nil {
		return err
	}
	p.logger.Info().
		Int("beats", track.Len()).
		Int("measures", measures.Len()).
		Msg("downbeat filtering complete")

	// Stage 3: scene detection
	p.logger.Info().Str("stage", "scenes").Msg("stage started")
	detector := scenes.NewDetector(p.logger, p.ff)
	_, err = detector.Detect(ctx, opts.VideoPath, scenesDir, scenes.DetectOptions{
		Threshold:      opts.SceneThreshold,
		MinSceneLength: p.cfg.Detect.MinSceneLength,
		Encode:         p.encodeOptions(),
	})
	if err != nil {
		return fmt.Errorf("scene detection failed: %w", err)
	}

	// Stage 4: alignment planning
	p.logger.Info().Str("stage", "align").Msg("stage started")
	inventory, err := scenes.LoadInventory(ctx, scenesDir, p.ff)
	if err != nil {
		return err
	}
	planner := align.NewPlanner(p.logger)
	planOpts := align.PlanOptions{MaxMeasures: opts.MaxSceneMeasures}
	entries, err := planner.Plan(measures, inventory, planOpts)
	if err != nil {
		return err
	}
	if err := align.WritePlan(planFile, entries, planOpts); err != nil {
		return err
	}

	// Stage 5: assembly. The persisted plan is the seam: assembly replays
	// the file, not the in-memory entries.
	p.logger.Info().Str("stage", "assemble").Msg("stage started")
	planned, err := align.ReadPlan(planFile, p.logger)
	if err != nil {
		return err
	}
	assembler := assemble.New(p.logger, p.ff)
	err = assembler.Run(ctx, planned, assemble.Options{
		ScenesDir:    scenesDir,
		AudioPath:    opts.AudioPath,
		Output:       opts.Output,
		TrimWorkers:  p.cfg.Assemble.TrimWorkers,
		AudioBitrate: p.cfg.Assemble.AudioBitrate,
		Encode:       p.encodeOptions(),
	})
	if err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}

	if dur, err := p.ff.Duration(ctx, opts.Output); err == nil {
		p.logger.Info().
			Str("output", opts.Output).
			Float64("duration", dur).
			Msg("music video ready")
	}
	return nil
}

func (p *Pipeline) validate(opts RunOptions) error {
	if !util.FileExists(opts.AudioPath) {
		return fmt.Errorf("audio file not found: %s", opts.AudioPath)
	}
	if !util.FileExists(opts.VideoPath) {
		return fmt.Errorf("video file not found: %s", opts.VideoPath)
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.SceneThreshold <= 0 || opts.SceneThreshold > 1 {
		return fmt.Errorf("scene threshold must be in (0, 1], got %f", opts.SceneThreshold)
	}
	if opts.BeatsPerMeasure < 1 {
		return fmt.Errorf("beats per measure must be positive, got %d", opts.BeatsPerMeasure)
	}
	if opts.MaxSceneMeasures < 0 {
		return fmt.Errorf("max scene measures must be positive when set, got %d", opts.MaxSceneMeasures)
	}
	return nil
}

func (p *Pipeline) encodeOptions() ffmpeg.EncodeOptions {
	return ffmpeg.EncodeOptions{
		Preset: p.cfg.FFmpeg.Preset,
		CRF:    p.cfg.FFmpeg.CRF,
	}
}
