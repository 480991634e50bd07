package config

import (
	"context"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Detect.SceneThreshold != 0.3 {
		t.Errorf("default scene threshold = %f", cfg.Detect.SceneThreshold)
	}
	if cfg.Beats.PerMeasure != 4 {
		t.Errorf("default beats per measure = %d", cfg.Beats.PerMeasure)
	}
	if cfg.FFmpeg.CRF != 23 || cfg.FFmpeg.Preset != "fast" {
		t.Errorf("default encode settings = %d/%s", cfg.FFmpeg.CRF, cfg.FFmpeg.Preset)
	}
	if cfg.Assemble.AudioBitrate != "192k" {
		t.Errorf("default audio bitrate = %s", cfg.Assemble.AudioBitrate)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bounce.yaml")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Detect.SceneThreshold = 0.2
	cfg.Beats.TrackerCommand = "madmom-beats"
	cfg.Assemble.TrimWorkers = 3

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Detect.SceneThreshold != 0.2 {
		t.Errorf("scene threshold = %f", loaded.Detect.SceneThreshold)
	}
	if loaded.Beats.TrackerCommand != "madmom-beats" {
		t.Errorf("tracker command = %s", loaded.Beats.TrackerCommand)
	}
	if loaded.Assemble.TrimWorkers != 3 {
		t.Errorf("trim workers = %d", loaded.Assemble.TrimWorkers)
	}
}

func TestConfigContext(t *testing.T) {
	cfg, _ := Load("")
	cfg.Detect.SceneThreshold = 0.15

	ctx := WithConfig(context.Background(), cfg)
	got := FromContext(ctx)
	if got.Detect.SceneThreshold != 0.15 {
		t.Errorf("context round trip lost config: %f", got.Detect.SceneThreshold)
	}

	// Missing config falls back to defaults.
	fallback := FromContext(context.Background())
	if fallback.Detect.SceneThreshold != 0.3 {
		t.Errorf("fallback should be defaults: %f", fallback.Detect.SceneThreshold)
	}
}
