// Package align computes how each scene clip is trimmed so its end lands on
// a musical measure boundary, and persists that decision as a line-oriented
// plan record the assembly stage replays.
package align

// Entry is one row of the plan record: a whole scene, or one sub-part of a
// scene that was split for exceeding the measure cap. Entries are ordered by
// scene, then by part number.
type Entry struct {
	// Scene is the clip filename inside the scenes directory.
	Scene string
	// Part is 1-based within the scene; TotalParts is at least 1.
	Part       int
	TotalParts int
	// StartOffset is where this part begins inside the source clip, seconds.
	StartOffset float64
	// SourceSpan is the pre-trim duration carved from the scene.
	SourceSpan float64
	// TrimTo is the duration the part is cut to. It never exceeds
	// SourceSpan; when no measure qualifies it equals SourceSpan.
	TrimTo float64
	// MeasureIndex is the 1-based index of the chosen measure, 0 when no
	// measure qualifies. MeasureTime is that measure's timestamp.
	MeasureIndex int
	MeasureTime  float64
	// TimeLost is SourceSpan - TrimTo.
	TimeLost float64
}

// Split reports whether the entry belongs to a scene that was split
func (e Entry) Split() bool {
	return e.TotalParts > 1
}
