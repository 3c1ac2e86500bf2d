package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/3-lines-studio/ogimage/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordRunRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	report := core.CaptureReport{
		RunID:   "run-1",
		Started: started,
		Elapsed: 2500 * time.Millisecond,
		Results: []core.CaptureResult{
			{Spec: core.ImageSpec{Path: "/"}, OutputPath: "__og_image__/og.png", Elapsed: 900 * time.Millisecond},
			{Spec: core.ImageSpec{Path: "/about"}, OutputPath: "about/__og_image__/og.png", Err: errors.New("navigation timeout")},
		},
	}
	if err := store.RecordRun(ctx, report); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	run := runs[0]
	if run.ID != "run-1" || run.Total != 2 || run.Failed != 1 || run.Error != "" {
		t.Errorf("run = %+v", run)
	}
	if !run.StartedAt.Equal(started) || run.Elapsed != 2500*time.Millisecond {
		t.Errorf("timing = %v / %v", run.StartedAt, run.Elapsed)
	}

	captures, err := store.Captures(ctx, "run-1")
	if err != nil {
		t.Fatalf("Captures() error = %v", err)
	}
	if len(captures) != 2 {
		t.Fatalf("captures = %d, want 2", len(captures))
	}
	if captures[0].Path != "/" || captures[0].Error != "" {
		t.Errorf("captures[0] = %+v", captures[0])
	}
	if captures[1].Error != "navigation timeout" {
		t.Errorf("captures[1].Error = %q", captures[1].Error)
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "new", "mid"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		report := core.CaptureReport{RunID: id, Started: base.Add(offsets[i])}
		if err := store.RecordRun(ctx, report); err != nil {
			t.Fatalf("RecordRun(%s) error = %v", id, err)
		}
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "new" || runs[1].ID != "mid" {
		t.Errorf("runs = %+v", runs)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 2; i++ {
		store, err := Open(path)
		if err != nil {
			t.Fatalf("Open() #%d error = %v", i, err)
		}
		_ = store.Close()
	}
}
