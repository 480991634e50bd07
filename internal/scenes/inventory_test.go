package scenes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type fakeProber struct {
	durations map[string]float64
}

func (f *fakeProber) Duration(_ context.Context, path string) (float64, error) {
	d, ok := f.durations[filepath.Base(path)]
	if !ok {
		return 0, fmt.Errorf("no duration for %s", path)
	}
	return d, nil
}

func TestClipName(t *testing.T) {
	if got := ClipName(1); got != "scene_0001.mp4" {
		t.Errorf("ClipName(1) = %s", got)
	}
	if got := ClipName(42); got != "scene_0042.mp4" {
		t.Errorf("ClipName(42) = %s", got)
	}
}

func TestLoadInventoryOrdersByName(t *testing.T) {
	dir := t.TempDir()
	// Created out of order on purpose; listing order must win.
	for _, name := range []string{"scene_0002.mp4", "scene_0010.mp4", "scene_0001.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	prober := &fakeProber{durations: map[string]float64{
		"scene_0001.mp4": 1.5,
		"scene_0002.mp4": 2.5,
		"scene_0010.mp4": 3.5,
	}}

	records, err := LoadInventory(context.Background(), dir, prober)
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	wantOrder := []string{"scene_0001.mp4", "scene_0002.mp4", "scene_0010.mp4"}
	wantDur := []float64{1.5, 2.5, 3.5}
	for i := range wantOrder {
		if records[i].Name != wantOrder[i] {
			t.Errorf("record %d is %s, want %s", i, records[i].Name, wantOrder[i])
		}
		if records[i].Duration != wantDur[i] {
			t.Errorf("record %d duration %f, want %f", i, records[i].Duration, wantDur[i])
		}
	}
}

func TestLoadInventoryEmptyDir(t *testing.T) {
	if _, err := LoadInventory(context.Background(), t.TempDir(), &fakeProber{}); err == nil {
		t.Fatal("expected error for directory without scene clips")
	}
}

func TestLoadInventoryProbeFailure(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scene_0001.mp4"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadInventory(context.Background(), dir, &fakeProber{durations: map[string]float64{}})
	if err == nil {
		t.Fatal("expected probe failure to propagate")
	}
}
