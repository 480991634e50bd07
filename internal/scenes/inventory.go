// Package scenes produces and consumes the scene inventory: one silent clip
// per detected scene, named so lexicographic order equals temporal order.
package scenes

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
)

// ClipPattern is the glob matching scene clips in an inventory directory.
const ClipPattern = "scene_*.mp4"

// ClipName returns the zero-padded clip filename for the n-th scene
// (1-based), so directory listing order matches temporal order.
func ClipName(n int) string {
	return fmt.Sprintf("scene_%04d.mp4", n)
}

// Record is one physical scene clip and its probed duration in seconds.
type Record struct {
	Name     string
	Duration float64
}

// Prober reports the duration of a media file
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// LoadInventory scans a directory for scene clips, probes each one and
// returns the records in temporal (filename) order.
func LoadInventory(ctx context.Context, dir string, prober Prober) ([]Record, error) {
	matches, err := filepath.Glob(filepath.Join(dir, ClipPattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no scene clips found in %s", dir)
	}

	sort.Strings(matches)

	records := make([]Record, 0, len(matches))
	for _, path := range matches {
		dur, err := prober.Duration(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to probe scene %s: %w", filepath.Base(path), err)
		}
		records = append(records, Record{
			Name:     filepath.Base(path),
			Duration: dur,
		})
	}

	return records, nil
}
