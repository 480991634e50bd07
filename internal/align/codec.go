package align

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// WritePlan serializes entries to a plan record file. The header comment
// block states the row format and the active split limit so the file can be
// audited or hand-edited between planning and assembly.
func WritePlan(path string, entries []Entry, opts PlanOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plan file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# Scene alignment plan\n")
	fmt.Fprintf(w, "# Each scene part is trimmed so its end lands on a measure boundary\n")
	if opts.MaxMeasures > 0 {
		fmt.Fprintf(w, "# Max scene length: %d measures\n", opts.MaxMeasures)
	}
	fmt.Fprintf(w, "#\n")
	fmt.Fprintf(w, "# Format: scene_file, part, total_parts, start_offset, source_span, trim_to, measure_index, measure_time, time_lost\n")
	fmt.Fprintf(w, "#\n")

	for _, e := range entries {
		fmt.Fprintf(w, "%s, %d, %d, %.6f, %.6f, %.6f, %d, %.6f, %.6f\n",
			e.Scene, e.Part, e.TotalParts, e.StartOffset,
			e.SourceSpan, e.TrimTo, e.MeasureIndex, e.MeasureTime, e.TimeLost)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}
	return nil
}

// ReadPlan deserializes a plan record, preserving entry order. It accepts
// both the full 9-field rows and the legacy 6-field rows that predate scene
// splitting. Comments, blank lines and malformed rows are skipped; the file
// may have been edited by hand, so a bad row costs a warning, not the run.
func ReadPlan(path string, logger zerolog.Logger) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parseEntry(line)
		if err != nil {
			logger.Warn().
				Str("file", path).
				Int("line", lineNo).
				Str("text", line).
				Err(err).
				Msg("skipping malformed plan line")
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	return entries, nil
}

func parseEntry(line string) (Entry, error) {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch {
	case len(parts) >= 9:
		return parseFullEntry(parts)
	case len(parts) >= 6:
		return parseLegacyEntry(parts)
	default:
		return Entry{}, fmt.Errorf("expected 9 or 6 fields, got %d", len(parts))
	}
}

func parseFullEntry(parts []string) (Entry, error) {
	e := Entry{Scene: parts[0]}

	var err error
	if e.Part, err = strconv.Atoi(parts[1]); err != nil {
		return Entry{}, fmt.Errorf("bad part: %w", err)
	}
	if e.TotalParts, err = strconv.Atoi(parts[2]); err != nil {
		return Entry{}, fmt.Errorf("bad total_parts: %w", err)
	}
	if e.StartOffset, err = strconv.ParseFloat(parts[3], 64); err != nil {
		return Entry{}, fmt.Errorf("bad start_offset: %w", err)
	}
	if e.SourceSpan, err = strconv.ParseFloat(parts[4], 64); err != nil {
		return Entry{}, fmt.Errorf("bad source_span: %w", err)
	}
	if e.TrimTo, err = strconv.ParseFloat(parts[5], 64); err != nil {
		return Entry{}, fmt.Errorf("bad trim_to: %w", err)
	}
	if e.MeasureIndex, err = strconv.Atoi(parts[6]); err != nil {
		return Entry{}, fmt.Errorf("bad measure_index: %w", err)
	}
	if e.MeasureTime, err = strconv.ParseFloat(parts[7], 64); err != nil {
		return Entry{}, fmt.Errorf("bad measure_time: %w", err)
	}
	if e.TimeLost, err = strconv.ParseFloat(parts[8], 64); err != nil {
		return Entry{}, fmt.Errorf("bad time_lost: %w", err)
	}

	return e, nil
}

// parseLegacyEntry reads the pre-splitting row shape:
// scene_file, source_span, trim_to, measure_index, measure_time, time_lost
func parseLegacyEntry(parts []string) (Entry, error) {
	e := Entry{
		Scene:      parts[0],
		Part:       1,
		TotalParts: 1,
	}

	var err error
	if e.SourceSpan, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return Entry{}, fmt.Errorf("bad source_span: %w", err)
	}
	if e.TrimTo, err = strconv.ParseFloat(parts[2], 64); err != nil {
		return Entry{}, fmt.Errorf("bad trim_to: %w", err)
	}
	if e.MeasureIndex, err = strconv.Atoi(parts[3]); err != nil {
		return Entry{}, fmt.Errorf("bad measure_index: %w", err)
	}
	if e.MeasureTime, err = strconv.ParseFloat(parts[4], 64); err != nil {
		return Entry{}, fmt.Errorf("bad measure_time: %w", err)
	}
	if e.TimeLost, err = strconv.ParseFloat(parts[5], 64); err != nil {
		return Entry{}, fmt.Errorf("bad time_lost: %w", err)
	}

	return e, nil
}
