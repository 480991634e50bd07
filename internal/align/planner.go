package align

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/Atomic-Germ/bounce/internal/beats"
	"github.com/Atomic-Germ/bounce/internal/logging"
	"github.com/Atomic-Germ/bounce/internal/scenes"
)

// PlanOptions configures the planner. MaxMeasures caps scene length in
// measures; zero disables splitting. The cap is approximate: it converts to
// seconds through the mean inter-measure interval, not by counting discrete
// measures.
type PlanOptions struct {
	MaxMeasures int
}

// Planner aligns scene clips to the measure track
type Planner struct {
	logger zerolog.Logger
}

// NewPlanner creates a planner that reports its decisions on logger
func NewPlanner(logger zerolog.Logger) *Planner {
	return &Planner{logger: logging.WithComponent(logger, "planner")}
}

// Plan produces one entry per scene part, in playback order. Every scene in
// the inventory is covered; a scene ending before the first measure is kept
// at full length rather than dropped. The inputs are not mutated.
//
// MaxMeasures must be validated positive (or zero for "no cap") by the
// caller; a negative value is rejected here as a misconfiguration.
func (p *Planner) Plan(measures *beats.Track, inventory []scenes.Record, opts PlanOptions) ([]Entry, error) {
	if opts.MaxMeasures < 0 {
		return nil, fmt.Errorf("max measures must not be negative, got %d", opts.MaxMeasures)
	}

	// Splitting needs a measure interval to size the cap; with fewer than
	// two measures there is nothing to average and splitting is disabled.
	maxSceneDuration := 0.0
	if opts.MaxMeasures > 0 && measures.Len() >= 2 {
		interval, err := measures.MeanInterval()
		if err != nil {
			return nil, err
		}
		maxSceneDuration = float64(opts.MaxMeasures) * interval
		p.logger.Info().
			Float64("mean_measure_interval", interval).
			Float64("max_scene_duration", maxSceneDuration).
			Int("max_measures", opts.MaxMeasures).
			Msg("splitting enabled")
	}

	var entries []Entry
	for _, scene := range inventory {
		entries = append(entries, p.planScene(measures, scene, maxSceneDuration)...)
	}

	p.summarize(entries)
	return entries, nil
}

func (p *Planner) planScene(measures *beats.Track, scene scenes.Record, maxSceneDuration float64) []Entry {
	if maxSceneDuration <= 0 || scene.Duration <= maxSceneDuration {
		entry := p.planPart(scene.Name, 1, 1, 0, scene.Duration, measures)
		return []Entry{entry}
	}

	totalParts := int(math.Ceil(scene.Duration / maxSceneDuration))
	p.logger.Info().
		Str("scene", scene.Name).
		Float64("duration", scene.Duration).
		Int("parts", totalParts).
		Msg("splitting over-long scene")

	entries := make([]Entry, 0, totalParts)
	for part := 1; part <= totalParts; part++ {
		start := float64(part-1) * maxSceneDuration
		span := math.Min(maxSceneDuration, scene.Duration-start)
		entries = append(entries, p.planPart(scene.Name, part, totalParts, start, span, measures))
	}
	return entries
}

func (p *Planner) planPart(name string, part, totalParts int, start, span float64, measures *beats.Track) Entry {
	entry := Entry{
		Scene:       name,
		Part:        part,
		TotalParts:  totalParts,
		StartOffset: start,
		SourceSpan:  span,
	}

	idx, measureTime, ok := nearestMeasureBefore(measures.Times, span)
	if ok {
		entry.TrimTo = measureTime
		entry.MeasureIndex = idx + 1
		entry.MeasureTime = measureTime
		entry.TimeLost = span - measureTime
	} else {
		// Part ends before the first measure: keep it whole, never extend.
		entry.TrimTo = span
	}

	p.logger.Debug().
		Str("scene", entry.Scene).
		Int("part", entry.Part).
		Int("total_parts", entry.TotalParts).
		Float64("source_span", entry.SourceSpan).
		Float64("trim_to", entry.TrimTo).
		Int("measure", entry.MeasureIndex).
		Float64("time_lost", entry.TimeLost).
		Msg("planned scene part")

	return entry
}

// nearestMeasureBefore returns the index and timestamp of the greatest
// measure not exceeding target. Equality counts as not exceeding. The track
// is sorted ascending, so the scan stops at the first exceedance; measure
// tracks are small enough that a linear scan is fine.
func nearestMeasureBefore(times []float64, target float64) (int, float64, bool) {
	bestIdx := -1
	bestTime := 0.0

	for i, t := range times {
		if t > target {
			break
		}
		bestIdx = i
		bestTime = t
	}

	if bestIdx < 0 {
		return 0, 0, false
	}
	return bestIdx, bestTime, true
}

func (p *Planner) summarize(entries []Entry) {
	var original, trimmed, lost float64
	for _, e := range entries {
		original += e.SourceSpan
		trimmed += e.TrimTo
		lost += e.TimeLost
	}

	p.logger.Info().
		Int("parts", len(entries)).
		Float64("total_original", original).
		Float64("total_trimmed", trimmed).
		Float64("total_lost", lost).
		Msg("alignment plan complete")

	for _, e := range entries {
		if e.TimeLost > 1.0 {
			p.logger.Debug().
				Str("scene", e.Scene).
				Int("part", e.Part).
				Float64("time_lost", e.TimeLost).
				Msg("significant trim")
		}
	}
}
