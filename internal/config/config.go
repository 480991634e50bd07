package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir  string `yaml:"work_dir"`
	KeepWork bool   `yaml:"keep_work"`

	// Detection settings
	Detect DetectConfig `yaml:"detect"`

	// Beat tracker settings
	Beats BeatsConfig `yaml:"beats"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Assembly settings
	Assemble AssembleConfig `yaml:"assemble"`
}

type DetectConfig struct {
	// SceneThreshold is the frame-difference sensitivity (0-1, lower = more
	// sensitive). Detection retries at lower thresholds when too few cuts
	// are found.
	SceneThreshold float64 `yaml:"scene_threshold"`
	// MinSceneLength drops detected segments shorter than this (seconds).
	MinSceneLength float64 `yaml:"min_scene_length"`
}

type BeatsConfig struct {
	// TrackerCommand is the external beat tracker invoked for detection.
	// It must print one beat timestamp (seconds) per line on stdout.
	TrackerCommand string `yaml:"tracker_command"`
	PerMeasure     int    `yaml:"per_measure"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
}

type AssembleConfig struct {
	// TrimWorkers bounds how many per-part trims run at once. Zero means
	// sequential.
	TrimWorkers  int    `yaml:"trim_workers"`
	AudioBitrate string `yaml:"audio_bitrate"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		WorkDir:  "",
		KeepWork: false,
		Detect: DetectConfig{
			SceneThreshold: 0.3,
			MinSceneLength: 0.2,
		},
		Beats: BeatsConfig{
			TrackerCommand: "aubio beat",
			PerMeasure:     4,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			Threads:    0,
			Preset:     "fast",
			CRF:        23,
		},
		Assemble: AssembleConfig{
			TrimWorkers:  1,
			AudioBitrate: "192k",
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./bounce.yaml",
		"./bounce.yml",
		filepath.Join(os.Getenv("HOME"), ".bounce", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
