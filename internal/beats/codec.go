package beats

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ReadFile loads a beats or measures file. Data lines are
// "index, timestamp_seconds"; comment lines starting with # and blank lines
// are skipped, and malformed lines are skipped with a warning because the
// files may be hand-edited between stages.
func ReadFile(path string, logger zerolog.Logger) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var times []float64
	scanner := bufio.NewScanner(f)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			logger.Warn().
				Str("file", path).
				Int("line", lineNo).
				Str("text", line).
				Msg("skipping malformed timestamp line")
			continue
		}

		ts, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			logger.Warn().
				Str("file", path).
				Int("line", lineNo).
				Str("text", line).
				Msg("skipping unparsable timestamp")
			continue
		}
		times = append(times, ts)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return NewTrack(times, 0), nil
}

// WriteFile persists a track as "index, timestamp" rows with a header
// comment block. Indices are 1-based for display.
func WriteFile(path string, track *Track, description string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# %s\n", description)
	fmt.Fprintf(w, "# Total entries: %d\n", len(track.Times))
	if track.Tempo > 0 {
		fmt.Fprintf(w, "# Estimated tempo: %.1f BPM\n", track.Tempo)
	}
	fmt.Fprintf(w, "# Format: index, timestamp_seconds\n")
	fmt.Fprintf(w, "#\n")

	for i, ts := range track.Times {
		fmt.Fprintf(w, "%d, %.6f\n", i+1, ts)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
