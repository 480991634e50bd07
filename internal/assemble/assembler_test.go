package assemble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Atomic-Germ/bounce/internal/align"
	"github.com/Atomic-Germ/bounce/internal/ffmpeg"
)

// fakeMedia records operations instead of shelling out to ffmpeg
type fakeMedia struct {
	mu        sync.Mutex
	videoDur  float64
	audioDur  float64
	trims     []ffmpeg.TrimOptions
	trimSrcs  []string
	concat    *ffmpeg.ConcatOptions
	muxOpts   *ffmpeg.MuxOptions
	failTrims bool
}

func (f *fakeMedia) Duration(_ context.Context, path string) (float64, error) {
	if filepath.Base(path) == "concatenated.mp4" {
		return f.videoDur, nil
	}
	return f.audioDur, nil
}

func (f *fakeMedia) Trim(_ context.Context, input string, opts ffmpeg.TrimOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTrims {
		return fmt.Errorf("simulated trim failure")
	}
	f.trims = append(f.trims, opts)
	f.trimSrcs = append(f.trimSrcs, input)
	return os.WriteFile(opts.Output, []byte("trimmed"), 0644)
}

func (f *fakeMedia) Concat(_ context.Context, opts ffmpeg.ConcatOptions) error {
	f.concat = &opts
	return os.WriteFile(opts.Output, []byte("concat"), 0644)
}

func (f *fakeMedia) Mux(_ context.Context, opts ffmpeg.MuxOptions) error {
	f.muxOpts = &opts
	return os.WriteFile(opts.Output, []byte("muxed"), 0644)
}

func testFixture(t *testing.T, sceneNames ...string) (Options, string) {
	t.Helper()
	dir := t.TempDir()
	scenesDir := filepath.Join(dir, "scenes")
	if err := os.MkdirAll(scenesDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range sceneNames {
		if err := os.WriteFile(filepath.Join(scenesDir, name), []byte("clip"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	audio := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(audio, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}
	return Options{
		ScenesDir: scenesDir,
		AudioPath: audio,
		Output:    filepath.Join(dir, "out.mp4"),
	}, dir
}

func twoEntryPlan() []align.Entry {
	return []align.Entry{
		{Scene: "scene_0001.mp4", Part: 1, TotalParts: 1, SourceSpan: 1.7, TrimTo: 1.5, MeasureIndex: 4, MeasureTime: 1.5, TimeLost: 0.2},
		{Scene: "scene_0002.mp4", Part: 1, TotalParts: 1, SourceSpan: 2.2, TrimTo: 2.0, MeasureIndex: 5, MeasureTime: 2.0, TimeLost: 0.2},
	}
}

func TestRunHappyPath(t *testing.T) {
	opts, _ := testFixture(t, "scene_0001.mp4", "scene_0002.mp4")
	media := &fakeMedia{videoDur: 3.5, audioDur: 180.0}

	err := New(zerolog.Nop(), media).Run(context.Background(), twoEntryPlan(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(media.trims) != 2 {
		t.Fatalf("expected 2 trims, got %d", len(media.trims))
	}
	for _, tr := range media.trims {
		if !tr.StripAudio {
			t.Error("scene parts must be trimmed silent")
		}
	}

	if media.concat == nil {
		t.Fatal("concat not called")
	}
	if len(media.concat.Inputs) != 2 {
		t.Fatalf("expected 2 concat inputs, got %d", len(media.concat.Inputs))
	}
	// Plan order is restored at the concat step regardless of trim timing.
	for i, in := range media.concat.Inputs {
		want := fmt.Sprintf("trimmed_%04d.mp4", i+1)
		if filepath.Base(in) != want {
			t.Errorf("concat input %d is %s, want %s", i, filepath.Base(in), want)
		}
	}

	if media.muxOpts == nil {
		t.Fatal("mux not called")
	}
	if media.muxOpts.TruncateTo != 0 {
		t.Errorf("video shorter than audio must not truncate, got %f", media.muxOpts.TruncateTo)
	}

	if _, err := os.Stat(opts.Output); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestRunTruncatesVideoLongerThanAudio(t *testing.T) {
	opts, _ := testFixture(t, "scene_0001.mp4", "scene_0002.mp4")
	media := &fakeMedia{videoDur: 200.0, audioDur: 180.0}

	err := New(zerolog.Nop(), media).Run(context.Background(), twoEntryPlan(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if media.muxOpts.TruncateTo != 180.0 {
		t.Errorf("expected truncation to audio duration, got %f", media.muxOpts.TruncateTo)
	}
}

func TestRunToleratesSmallOverrun(t *testing.T) {
	opts, _ := testFixture(t, "scene_0001.mp4", "scene_0002.mp4")
	media := &fakeMedia{videoDur: 180.05, audioDur: 180.0}

	err := New(zerolog.Nop(), media).Run(context.Background(), twoEntryPlan(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if media.muxOpts.TruncateTo != 0 {
		t.Errorf("overrun within tolerance must not truncate, got %f", media.muxOpts.TruncateTo)
	}
}

func TestRunConcurrentTrims(t *testing.T) {
	opts, _ := testFixture(t, "scene_0001.mp4", "scene_0002.mp4")
	opts.TrimWorkers = 4
	media := &fakeMedia{videoDur: 3.5, audioDur: 180.0}

	err := New(zerolog.Nop(), media).Run(context.Background(), twoEntryPlan(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if media.concat == nil || len(media.concat.Inputs) != 2 {
		t.Fatal("concat should wait for all trim outputs")
	}
}

func TestRunRejectsMissingScene(t *testing.T) {
	opts, _ := testFixture(t, "scene_0001.mp4") // scene_0002 missing
	media := &fakeMedia{videoDur: 3.5, audioDur: 180.0}

	err := New(zerolog.Nop(), media).Run(context.Background(), twoEntryPlan(), opts)
	if err == nil {
		t.Fatal("expected error for missing scene file")
	}
	if len(media.trims) != 0 {
		t.Error("validation must fail before any transcode")
	}
	if _, statErr := os.Stat(opts.Output); statErr == nil {
		t.Error("failed run must not leave a named output")
	}
}

func TestRunRejectsZeroDurationEntry(t *testing.T) {
	opts, _ := testFixture(t, "scene_0001.mp4")
	entries := []align.Entry{
		{Scene: "scene_0001.mp4", Part: 1, TotalParts: 1, SourceSpan: 1.0, TrimTo: 0},
	}
	media := &fakeMedia{videoDur: 1.0, audioDur: 180.0}

	err := New(zerolog.Nop(), media).Run(context.Background(), entries, opts)
	if err == nil {
		t.Fatal("expected error for zero-duration plan entry")
	}
}

func TestRunRejectsEmptyPlan(t *testing.T) {
	opts, _ := testFixture(t)
	media := &fakeMedia{}

	if err := New(zerolog.Nop(), media).Run(context.Background(), nil, opts); err == nil {
		t.Fatal("expected error for empty plan")
	}
}

func TestRunTrimFailureAborts(t *testing.T) {
	opts, _ := testFixture(t, "scene_0001.mp4", "scene_0002.mp4")
	media := &fakeMedia{videoDur: 3.5, audioDur: 180.0, failTrims: true}

	err := New(zerolog.Nop(), media).Run(context.Background(), twoEntryPlan(), opts)
	if err == nil {
		t.Fatal("expected trim failure to abort the run")
	}
	if media.concat != nil {
		t.Error("concat must not run after a failed trim")
	}
	if _, statErr := os.Stat(opts.Output); statErr == nil {
		t.Error("failed run must not leave a named output")
	}
}
