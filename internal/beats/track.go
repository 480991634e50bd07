// Package beats holds the beat and measure time series: the text codec both
// are persisted in, the downbeat filter that turns beats into measures, and
// the invocation of the external beat tracker.
package beats

import (
	"fmt"
	"sort"
)

// Track is an ordered, strictly increasing sequence of timestamps in
// seconds, plus the tempo estimate reported (or derived) at detection time.
// A Track holds either beats or measures; the shape is identical.
type Track struct {
	Times []float64
	Tempo float64
}

// NewTrack builds a track from raw timestamps, sorting and collapsing
// duplicates so the strictly-increasing invariant holds.
func NewTrack(times []float64, tempo float64) *Track {
	sorted := make([]float64, len(times))
	copy(sorted, times)
	sort.Float64s(sorted)

	dedup := sorted[:0]
	for i, t := range sorted {
		if i > 0 && t == dedup[len(dedup)-1] {
			continue
		}
		dedup = append(dedup, t)
	}

	return &Track{Times: dedup, Tempo: tempo}
}

// Len returns the number of timestamps in the track
func (t *Track) Len() int {
	return len(t.Times)
}

// Downbeats keeps every perMeasure-th beat starting from the first,
// producing the measure track. The first beat of a trailing group is kept
// even when the group is short of perMeasure beats.
func (t *Track) Downbeats(perMeasure int) (*Track, error) {
	if perMeasure < 1 {
		return nil, fmt.Errorf("beats per measure must be positive, got %d", perMeasure)
	}

	var measures []float64
	for i := 0; i < len(t.Times); i += perMeasure {
		measures = append(measures, t.Times[i])
	}

	return &Track{Times: measures, Tempo: t.Tempo}, nil
}

// MeanInterval returns the average gap between consecutive timestamps.
// It needs at least two entries; there is no interval to average otherwise.
func (t *Track) MeanInterval() (float64, error) {
	if len(t.Times) < 2 {
		return 0, fmt.Errorf("need at least 2 timestamps to compute an interval, have %d", len(t.Times))
	}

	var sum float64
	for i := 1; i < len(t.Times); i++ {
		sum += t.Times[i] - t.Times[i-1]
	}
	return sum / float64(len(t.Times)-1), nil
}
