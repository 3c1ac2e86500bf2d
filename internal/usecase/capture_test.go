package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/3-lines-studio/ogimage/internal/core"
)

type captureHarness struct {
	fs       *memFS
	server   *fakeServer
	preview  *fakePreview
	session  *fakeSession
	browser  *fakeBrowser
	observer *recordingObserver
	history  *fakeHistory
	svc      *CaptureService
}

func newCaptureHarness() *captureHarness {
	h := &captureHarness{
		fs:       newMemFS(),
		server:   &fakeServer{url: "http://127.0.0.1:4000"},
		session:  &fakeSession{fail: map[string]error{}},
		observer: &recordingObserver{},
		history:  &fakeHistory{},
	}
	h.preview = &fakePreview{server: h.server}
	h.browser = &fakeBrowser{session: h.session}
	h.svc = NewCaptureService(h.preview, h.browser, h.fs, CaptureConfig{
		Defaults: core.Options{"colorScheme": "light"},
	}, nil).WithObserver(h.observer).WithHistory(h.history)
	return h
}

func queuedRun(paths ...string) *Run {
	run := NewRun(core.ModeProd, "dist", true)
	for _, p := range paths {
		run.Queue().Enqueue(core.ImageSpec{
			Path:     p,
			Provider: core.ProviderBrowser,
			Width:    1200,
			Height:   630,
			Options:  core.Options{"provider": "browser"},
			Context:  core.PageContext{Route: p, FileName: core.FileNameForRoute(p)},
		})
	}
	return run
}

func TestCaptureSkips(t *testing.T) {
	tests := []struct {
		name       string
		run        func() *Run
		wantReason string
	}{
		{
			name:       "empty queue",
			run:        func() *Run { return queuedRun() },
			wantReason: "no screenshots queued",
		},
		{
			name: "development mode",
			run: func() *Run {
				run := queuedRun("/a")
				run.Mode = core.ModeDev
				return run
			},
			wantReason: "development mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newCaptureHarness()
			report := h.svc.Capture(context.Background(), tt.run())

			if report.SkipReason != tt.wantReason {
				t.Errorf("SkipReason = %q, want %q", report.SkipReason, tt.wantReason)
			}
			if h.preview.started != 0 || h.browser.launched != 0 {
				t.Errorf("started preview %d times and browser %d times, want none", h.preview.started, h.browser.launched)
			}
			if len(h.history.reports) != 0 {
				t.Errorf("skipped runs must not be recorded")
			}
		})
	}
}

func TestCaptureRunsOncePerRun(t *testing.T) {
	h := newCaptureHarness()
	run := queuedRun("/a")

	first := h.svc.Capture(context.Background(), run)
	if first.Skipped() || first.Succeeded() != 1 {
		t.Fatalf("first capture = %+v", first)
	}
	if run.Queue().Len() != 0 {
		t.Errorf("queue should be cleared after the batch, len = %d", run.Queue().Len())
	}

	run.Queue().Enqueue(core.ImageSpec{Path: "/late"})
	second := h.svc.Capture(context.Background(), run)
	if !second.Skipped() {
		t.Errorf("second capture should be skipped, got %+v", second)
	}
	if h.preview.started != 1 {
		t.Errorf("preview started %d times, want 1", h.preview.started)
	}
}

func TestCaptureIsolatesFailingJobs(t *testing.T) {
	h := newCaptureHarness()
	h.session.fail["http://127.0.0.1:4000/b"] = errors.New("navigation timeout")
	run := queuedRun("/a", "/b", "/c")

	report := h.svc.Capture(context.Background(), run)

	if report.Err != nil {
		t.Fatalf("Err = %v", report.Err)
	}
	if len(report.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(report.Results))
	}
	if report.Succeeded() != 2 || report.Failed() != 1 {
		t.Errorf("succeeded=%d failed=%d, want 2/1", report.Succeeded(), report.Failed())
	}
	if report.Results[1].Success() {
		t.Error("job /b should have failed")
	}

	for _, p := range []string{"a", "c"} {
		full := filepath.Join("dist", p, "__og_image__", "og.png")
		if !h.fs.FileExists(full) {
			t.Errorf("missing artifact %s", full)
		}
	}
	if h.fs.FileExists(filepath.Join("dist", "b", "__og_image__", "og.png")) {
		t.Error("failed job must not write an artifact")
	}

	if h.observer.total != 3 || len(h.observer.lines) != 3 {
		t.Errorf("observer saw total=%d lines=%d", h.observer.total, len(h.observer.lines))
	}
	if h.session.closed != 1 || h.server.stopped != 1 {
		t.Errorf("closed=%d stopped=%d, want 1/1", h.session.closed, h.server.stopped)
	}
	if len(h.history.reports) != 1 || h.history.reports[0].RunID != run.ID {
		t.Errorf("history = %+v", h.history.reports)
	}
}

func TestCaptureRecoversFromPanickingJob(t *testing.T) {
	h := newCaptureHarness()
	h.session.panicOn = "http://127.0.0.1:4000/a"

	report := h.svc.Capture(context.Background(), queuedRun("/a", "/b"))

	if report.Failed() != 1 || report.Succeeded() != 1 {
		t.Errorf("succeeded=%d failed=%d, want 1/1", report.Succeeded(), report.Failed())
	}
	if h.session.closed != 1 || h.server.stopped != 1 {
		t.Errorf("closed=%d stopped=%d, want 1/1", h.session.closed, h.server.stopped)
	}
}

func TestCaptureJobOptions(t *testing.T) {
	h := newCaptureHarness()
	run := NewRun(core.ModeProd, "dist", true)
	run.Queue().Enqueue(core.ImageSpec{
		Path:    "/blog/post",
		Width:   800,
		Height:  400,
		Options: core.Options{"colorScheme": "dark", "selector": "#card"},
	})

	h.svc.Capture(context.Background(), run)

	if len(h.session.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(h.session.calls))
	}
	call := h.session.calls[0]
	if call.url != "http://127.0.0.1:4000/blog/post" {
		t.Errorf("url = %q", call.url)
	}
	if call.opts.String("colorScheme") != "dark" {
		t.Errorf("colorScheme = %q, want job value to win over defaults", call.opts.String("colorScheme"))
	}
	if w, _ := call.opts.Int("width"); w != 800 {
		t.Errorf("width = %d, want 800", w)
	}
	if call.opts.String("selector") != "#card" {
		t.Errorf("selector = %q", call.opts.String("selector"))
	}
}

func TestCaptureCleanup(t *testing.T) {
	t.Run("browser launch failure still stops the server", func(t *testing.T) {
		h := newCaptureHarness()
		h.browser.err = errors.New("chrome not found")

		report := h.svc.Capture(context.Background(), queuedRun("/a"))

		if report.Err == nil {
			t.Fatal("expected a batch error")
		}
		if h.server.stopped != 1 {
			t.Errorf("server stopped %d times, want 1", h.server.stopped)
		}
		if len(report.Results) != 0 {
			t.Errorf("results = %d, want 0", len(report.Results))
		}
	})

	t.Run("preview failure never launches the browser", func(t *testing.T) {
		h := newCaptureHarness()
		h.preview.err = core.ErrServerNotReady

		report := h.svc.Capture(context.Background(), queuedRun("/a"))

		if !errors.Is(report.Err, core.ErrServerNotReady) {
			t.Errorf("Err = %v, want ErrServerNotReady", report.Err)
		}
		if h.browser.launched != 0 {
			t.Errorf("browser launched %d times", h.browser.launched)
		}
	})

	t.Run("teardown errors do not mask results", func(t *testing.T) {
		h := newCaptureHarness()
		h.server.stopErr = errors.New("kill failed")
		h.session.closeErr = errors.New("browser gone")

		report := h.svc.Capture(context.Background(), queuedRun("/a"))

		if report.Err != nil {
			t.Errorf("Err = %v, want nil", report.Err)
		}
		if report.Succeeded() != 1 {
			t.Errorf("succeeded = %d, want 1", report.Succeeded())
		}
		if report.CleanupErr == nil {
			t.Fatal("expected CleanupErr")
		}
		if h.server.stopped != 1 || h.session.closed != 1 {
			t.Errorf("stopped=%d closed=%d", h.server.stopped, h.session.closed)
		}
	})
}

func TestCaptureLocked(t *testing.T) {
	h := newCaptureHarness()
	locker := &fakeLocker{busy: true}
	h.svc.WithLocker(locker)

	report := h.svc.Capture(context.Background(), queuedRun("/a"))

	if !errors.Is(report.Err, core.ErrRunLocked) {
		t.Errorf("Err = %v, want ErrRunLocked", report.Err)
	}
	if h.preview.started != 0 {
		t.Error("preview must not start while another run holds the lock")
	}

	locker.busy = false
	h2 := newCaptureHarness()
	h2.svc.WithLocker(locker)
	h2.svc.Capture(context.Background(), queuedRun("/a"))
	if locker.unlocked != 1 {
		t.Errorf("unlocked = %d, want 1", locker.unlocked)
	}
}

func TestCaptureJobTimeout(t *testing.T) {
	h := newCaptureHarness()
	h.session.block = map[string]bool{"http://127.0.0.1:4000/slow": true}
	h.svc = NewCaptureService(h.preview, h.browser, h.fs, CaptureConfig{
		JobTimeout: 20 * time.Millisecond,
	}, nil)

	report := h.svc.Capture(context.Background(), queuedRun("/slow", "/fast"))

	if len(report.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(report.Results))
	}
	if !errors.Is(report.Results[0].Err, context.DeadlineExceeded) {
		t.Errorf("slow job err = %v, want deadline exceeded", report.Results[0].Err)
	}
	if !report.Results[1].Success() {
		t.Errorf("fast job err = %v", report.Results[1].Err)
	}
	if _, err := h.fs.ReadFile(filepath.Join("dist", "fast", "__og_image__", "og.png")); err != nil {
		t.Errorf("fast artifact missing: %v", err)
	}
}

func TestCaptureCleanupWhenEveryJobFails(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *captureHarness)
	}{
		{
			name: "all fail",
			setup: func(h *captureHarness) {
				h.session.fail["http://127.0.0.1:4000/a"] = errors.New("boom")
				h.session.fail["http://127.0.0.1:4000/b"] = errors.New("boom")
			},
		},
		{
			name:  "all panic",
			setup: func(h *captureHarness) { h.session.panicAll = true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newCaptureHarness()
			tt.setup(h)

			run := queuedRun("/a", "/b")
			report := h.svc.Capture(context.Background(), run)

			if report.Failed() != 2 {
				t.Errorf("failed = %d, want 2", report.Failed())
			}
			if h.session.closed != 1 || h.server.stopped != 1 {
				t.Errorf("closed=%d stopped=%d, want 1/1", h.session.closed, h.server.stopped)
			}
			if run.Queue().Len() != 0 {
				t.Errorf("queue len = %d, want 0", run.Queue().Len())
			}
			if len(h.history.reports) != 1 {
				t.Errorf("history records = %d, want 1", len(h.history.reports))
			}
		})
	}
}
