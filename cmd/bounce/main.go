package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Atomic-Germ/bounce/internal/align"
	"github.com/Atomic-Germ/bounce/internal/assemble"
	"github.com/Atomic-Germ/bounce/internal/beats"
	"github.com/Atomic-Germ/bounce/internal/config"
	"github.com/Atomic-Germ/bounce/internal/ffmpeg"
	"github.com/Atomic-Germ/bounce/internal/logging"
	"github.com/Atomic-Germ/bounce/internal/pipeline"
	"github.com/Atomic-Germ/bounce/internal/scenes"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bounce",
	Short: "bounce - beat-synchronized music video creator",
	Long: "Turns raw footage and a music track into a music video whose cuts\n" +
		"land on musical measure boundaries.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./bounce.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(makeCmd)
	rootCmd.AddCommand(beatsCmd)
	rootCmd.AddCommand(measuresCmd)
	rootCmd.AddCommand(scenesCmd)
	rootCmd.AddCommand(alignCmd)
	rootCmd.AddCommand(assembleCmd)
}

var (
	makeOutput       string
	sceneThreshold   float64
	beatsPerMeasure  int
	maxSceneMeasures int
	keepWork         bool
)

var makeCmd = &cobra.Command{
	Use:   "make [audio file] [video file]",
	Short: "Run the whole pipeline: beats, scenes, alignment, assembly",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		if cmd.Flags().Changed("max-scene-measures") && maxSceneMeasures < 1 {
			return fmt.Errorf("--max-scene-measures must be a positive integer, got %d", maxSceneMeasures)
		}
		// Flags win over config only when set explicitly.
		if !cmd.Flags().Changed("scene-threshold") {
			sceneThreshold = cfg.Detect.SceneThreshold
		}
		if !cmd.Flags().Changed("beats-per-measure") {
			beatsPerMeasure = cfg.Beats.PerMeasure
		}
		if !cmd.Flags().Changed("keep-work") {
			keepWork = cfg.KeepWork
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		return pipe.Run(cmd.Context(), pipeline.RunOptions{
			AudioPath:        args[0],
			VideoPath:        args[1],
			Output:           makeOutput,
			SceneThreshold:   sceneThreshold,
			BeatsPerMeasure:  beatsPerMeasure,
			MaxSceneMeasures: maxSceneMeasures,
			KeepWork:         keepWork,
		})
	},
}

var beatsOutput string

var beatsCmd = &cobra.Command{
	Use:   "beats [audio file]",
	Short: "Detect beats and write the beats file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		track, err := beats.Detect(cmd.Context(), log.Logger, cfg.Beats.TrackerCommand, args[0])
		if err != nil {
			return err
		}

		desc := fmt.Sprintf("Beat timestamps for: %s", args[0])
		if err := beats.WriteFile(beatsOutput, track, desc); err != nil {
			return err
		}

		log.Info().Int("beats", track.Len()).Str("output", beatsOutput).Msg("beats written")
		return nil
	},
}

var measuresOutput string

var measuresCmd = &cobra.Command{
	Use:   "measures [beats file]",
	Short: "Filter a beats file down to measure downbeats",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		if !cmd.Flags().Changed("beats-per-measure") {
			beatsPerMeasure = cfg.Beats.PerMeasure
		}
		if beatsPerMeasure < 1 {
			return fmt.Errorf("--beats-per-measure must be a positive integer, got %d", beatsPerMeasure)
		}

		track, err := beats.ReadFile(args[0], log.Logger)
		if err != nil {
			return err
		}

		measures, err := track.Downbeats(beatsPerMeasure)
		if err != nil {
			return err
		}

		desc := fmt.Sprintf("Measure timestamps (every %d beats)", beatsPerMeasure)
		if err := beats.WriteFile(measuresOutput, measures, desc); err != nil {
			return err
		}

		log.Info().
			Int("beats", track.Len()).
			Int("measures", measures.Len()).
			Str("output", measuresOutput).
			Msg("measures written")
		return nil
	},
}

var scenesCmd = &cobra.Command{
	Use:   "scenes [video file] [output dir]",
	Short: "Detect scene cuts and split the video into numbered clips",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		if !cmd.Flags().Changed("scene-threshold") {
			sceneThreshold = cfg.Detect.SceneThreshold
		}

		ff, err := ffmpeg.New(log.Logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.Threads)
		if err != nil {
			return err
		}

		detector := scenes.NewDetector(log.Logger, ff)
		cuts, err := detector.Detect(cmd.Context(), args[0], args[1], scenes.DetectOptions{
			Threshold:      sceneThreshold,
			MinSceneLength: cfg.Detect.MinSceneLength,
			Encode:         encodeOptions(cfg),
		})
		if err != nil {
			return err
		}

		log.Info().Int("scenes", len(cuts)).Str("dir", args[1]).Msg("scene clips written")
		return nil
	},
}

var alignOutput string

var alignCmd = &cobra.Command{
	Use:   "align [scenes dir] [measures file]",
	Short: "Plan how each scene is trimmed to the measure grid",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		if cmd.Flags().Changed("max-scene-measures") && maxSceneMeasures < 1 {
			return fmt.Errorf("--max-scene-measures must be a positive integer, got %d", maxSceneMeasures)
		}

		ff, err := ffmpeg.New(log.Logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.Threads)
		if err != nil {
			return err
		}

		measures, err := beats.ReadFile(args[1], log.Logger)
		if err != nil {
			return err
		}

		inventory, err := scenes.LoadInventory(cmd.Context(), args[0], ff)
		if err != nil {
			return err
		}

		planOpts := align.PlanOptions{MaxMeasures: maxSceneMeasures}
		entries, err := align.NewPlanner(log.Logger).Plan(measures, inventory, planOpts)
		if err != nil {
			return err
		}

		if err := align.WritePlan(alignOutput, entries, planOpts); err != nil {
			return err
		}

		log.Info().Int("parts", len(entries)).Str("output", alignOutput).Msg("plan written")
		return nil
	},
}

var assembleOutput string

var assembleCmd = &cobra.Command{
	Use:   "assemble [scenes dir] [plan file] [audio file]",
	Short: "Trim, concatenate and mux according to a plan record",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		ff, err := ffmpeg.New(log.Logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.Threads)
		if err != nil {
			return err
		}

		entries, err := align.ReadPlan(args[1], log.Logger)
		if err != nil {
			return err
		}

		return assemble.New(log.Logger, ff).Run(cmd.Context(), entries, assemble.Options{
			ScenesDir:    args[0],
			AudioPath:    args[2],
			Output:       assembleOutput,
			TrimWorkers:  cfg.Assemble.TrimWorkers,
			AudioBitrate: cfg.Assemble.AudioBitrate,
			Encode:       encodeOptions(cfg),
		})
	},
}

func encodeOptions(cfg *config.Config) ffmpeg.EncodeOptions {
	return ffmpeg.EncodeOptions{
		Preset: cfg.FFmpeg.Preset,
		CRF:    cfg.FFmpeg.CRF,
	}
}

func init() {
	makeCmd.Flags().StringVarP(&makeOutput, "output", "o", "output.mp4", "output video file")
	makeCmd.Flags().Float64Var(&sceneThreshold, "scene-threshold", 0.3, "scene detection sensitivity 0-1, lower = more sensitive")
	makeCmd.Flags().IntVar(&beatsPerMeasure, "beats-per-measure", 4, "beats per measure")
	makeCmd.Flags().IntVar(&maxSceneMeasures, "max-scene-measures", 0, "split scenes longer than this many measures")
	makeCmd.Flags().BoolVar(&keepWork, "keep-work", false, "keep the working directory for inspection")

	beatsCmd.Flags().StringVarP(&beatsOutput, "output", "o", "beats.txt", "output beats file")

	measuresCmd.Flags().StringVarP(&measuresOutput, "output", "o", "measures.txt", "output measures file")
	measuresCmd.Flags().IntVar(&beatsPerMeasure, "beats-per-measure", 4, "beats per measure")

	scenesCmd.Flags().Float64Var(&sceneThreshold, "scene-threshold", 0.3, "scene detection sensitivity 0-1, lower = more sensitive")

	alignCmd.Flags().StringVarP(&alignOutput, "output", "o", "scene_plan.txt", "output plan file")
	alignCmd.Flags().IntVar(&maxSceneMeasures, "max-scene-measures", 0, "split scenes longer than this many measures")

	assembleCmd.Flags().StringVarP(&assembleOutput, "output", "o", "output.mp4", "output video file")
}
