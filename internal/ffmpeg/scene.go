package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// DetectCuts finds scene-change timestamps in a video using the ffmpeg
// scene-select filter. Timestamps are seconds from the start of the file,
// sorted and deduplicated.
func (e *Executor) DetectCuts(ctx context.Context, input string, threshold float64) ([]float64, error) {
	e.logger.Info().
		Str("input", input).
		Float64("threshold", threshold).
		Msg("detecting scene cuts")

	var stderrBuf bytes.Buffer
	var mu sync.Mutex

	opts := RunOptions{
		Args: []string{
			"-i", input,
			"-vf", fmt.Sprintf("select='gt(scene,%f)',showinfo", threshold),
			"-vsync", "vfr",
			"-f", "null",
			"-",
		},
		LogHandler: func(line string) {
			mu.Lock()
			stderrBuf.WriteString(line + "\n")
			mu.Unlock()
		},
	}

	err := e.Run(ctx, opts)

	mu.Lock()
	output := stderrBuf.String()
	mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The null muxer path can report conversion noise even when the
		// showinfo output is complete and usable.
		if !strings.Contains(err.Error(), "Conversion failed") &&
			!strings.Contains(err.Error(), "Invalid return value") &&
			!strings.Contains(err.Error(), "Output file is empty") {
			return nil, fmt.Errorf("scene detection failed: %w", err)
		}
	}

	cuts := parseCutOutput(output)
	e.logger.Info().Int("cuts", len(cuts)).Msg("scene detection complete")
	return cuts, nil
}

// parseCutOutput extracts pts_time values from showinfo output
func parseCutOutput(output string) []float64 {
	seen := make(map[float64]bool)
	var cuts []float64

	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "pts_time:") {
			continue
		}
		parts := strings.Split(line, "pts_time:")
		if len(parts) < 2 {
			continue
		}
		fields := strings.Fields(strings.TrimSpace(parts[1]))
		if len(fields) == 0 {
			continue
		}
		seconds, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		// Detections in the first frames are noise, not cuts.
		if seconds <= 0.1 || seen[seconds] {
			continue
		}
		seen[seconds] = true
		cuts = append(cuts, seconds)
	}

	sort.Float64s(cuts)
	return cuts
}
