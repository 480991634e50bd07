package align

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func samplePlan() []Entry {
	return []Entry{
		{
			Scene: "scene_0001.mp4", Part: 1, TotalParts: 1,
			StartOffset: 0, SourceSpan: 1.7, TrimTo: 1.5,
			MeasureIndex: 4, MeasureTime: 1.5, TimeLost: 0.2,
		},
		{
			Scene: "scene_0002.mp4", Part: 1, TotalParts: 2,
			StartOffset: 0, SourceSpan: 8.0, TrimTo: 7.5,
			MeasureIndex: 16, MeasureTime: 7.5, TimeLost: 0.5,
		},
		{
			Scene: "scene_0002.mp4", Part: 2, TotalParts: 2,
			StartOffset: 8.0, SourceSpan: 3.25, TrimTo: 3.0,
			MeasureIndex: 7, MeasureTime: 3.0, TimeLost: 0.25,
		},
	}
}

func TestPlanRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene_plan.txt")
	want := samplePlan()

	if err := WritePlan(path, want, PlanOptions{MaxMeasures: 16}); err != nil {
		t.Fatalf("WritePlan failed: %v", err)
	}

	got, err := ReadPlan(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("ReadPlan failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}

	for i := range want {
		assertEntryEqual(t, i, got[i], want[i])
	}
}

func assertEntryEqual(t *testing.T, i int, got, want Entry) {
	t.Helper()
	if got.Scene != want.Scene || got.Part != want.Part ||
		got.TotalParts != want.TotalParts || got.MeasureIndex != want.MeasureIndex {
		t.Errorf("entry %d: got %+v, want %+v", i, got, want)
	}
	for _, f := range []struct {
		name      string
		got, want float64
	}{
		{"start_offset", got.StartOffset, want.StartOffset},
		{"source_span", got.SourceSpan, want.SourceSpan},
		{"trim_to", got.TrimTo, want.TrimTo},
		{"measure_time", got.MeasureTime, want.MeasureTime},
		{"time_lost", got.TimeLost, want.TimeLost},
	} {
		if math.Abs(f.got-f.want) > 1e-6 {
			t.Errorf("entry %d %s: got %f, want %f", i, f.name, f.got, f.want)
		}
	}
}

func TestWritePlanHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene_plan.txt")

	if err := WritePlan(path, samplePlan(), PlanOptions{MaxMeasures: 8}); err != nil {
		t.Fatalf("WritePlan failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "# Format: scene_file, part, total_parts") {
		t.Error("header should document the row format")
	}
	if !strings.Contains(content, "Max scene length: 8 measures") {
		t.Error("header should state the active split limit")
	}

	// First data line is the first entry.
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "scene_0001.mp4,") {
			t.Errorf("first data line should be the first entry, got %q", line)
		}
		break
	}
}

func TestReadPlanLegacyFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene_plan.txt")
	content := "# old planner output\n" +
		"scene_0001.mp4, 1.700000, 1.500000, 4, 1.500000, 0.200000\n" +
		"scene_0002.mp4, 2.000000, 2.000000, 5, 2.000000, 0.000000\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadPlan(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("ReadPlan failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	e := entries[0]
	if e.Part != 1 || e.TotalParts != 1 || e.StartOffset != 0 {
		t.Errorf("legacy defaults wrong: part %d/%d offset %f", e.Part, e.TotalParts, e.StartOffset)
	}
	if math.Abs(e.SourceSpan-1.7) > 1e-6 || math.Abs(e.TrimTo-1.5) > 1e-6 {
		t.Errorf("legacy fields mapped wrong: %+v", e)
	}
	if e.MeasureIndex != 4 || math.Abs(e.MeasureTime-1.5) > 1e-6 || math.Abs(e.TimeLost-0.2) > 1e-6 {
		t.Errorf("legacy fields mapped wrong: %+v", e)
	}
}

func TestReadPlanSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene_plan.txt")
	content := "# comment\n" +
		"\n" +
		"scene_0001.mp4, 1, 1, 0.000000, 1.700000, 1.500000, 4, 1.500000, 0.200000\n" +
		"not, enough, fields\n" +
		"scene_0002.mp4, one, 1, 0.0, 1.0, 1.0, 0, 0.0, 0.0\n" +
		"scene_0003.mp4, 1, 1, 0.000000, 2.000000, 2.000000, 5, 2.000000, 0.000000\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadPlan(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("ReadPlan failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected malformed lines to be skipped, got %d entries", len(entries))
	}
	if entries[0].Scene != "scene_0001.mp4" || entries[1].Scene != "scene_0003.mp4" {
		t.Errorf("wrong entries survived: %+v", entries)
	}
}

func TestReadPlanMissingFile(t *testing.T) {
	_, err := ReadPlan(filepath.Join(t.TempDir(), "nope.txt"), zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for missing plan file")
	}
}
