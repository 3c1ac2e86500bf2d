package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/3-lines-studio/ogimage/internal/core"
)

const (
	DefaultReadyTimeout = 30 * time.Second
	DefaultJobTimeout   = 30 * time.Second
)

type CaptureConfig struct {
	// Defaults are the screenshot options every job starts from.
	Defaults     core.Options
	ReadyTimeout time.Duration
	JobTimeout   time.Duration
}

type CaptureService struct {
	preview  PreviewStarter
	browser  Browser
	fs       FileSystem
	cfg      CaptureConfig
	locker   RunLocker
	history  HistoryRecorder
	observer CaptureObserver
	logger   *slog.Logger
}

func NewCaptureService(preview PreviewStarter, browser Browser, fs FileSystem, cfg CaptureConfig, logger *slog.Logger) *CaptureService {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CaptureService{
		preview: preview,
		browser: browser,
		fs:      fs,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *CaptureService) WithLocker(locker RunLocker) *CaptureService {
	s.locker = locker
	return s
}

func (s *CaptureService) WithHistory(history HistoryRecorder) *CaptureService {
	s.history = history
	return s
}

func (s *CaptureService) WithObserver(observer CaptureObserver) *CaptureService {
	s.observer = observer
	return s
}

// Capture drains the run's queue and screenshots every job against a
// preview server over the run's output directory. It runs at most once per
// run; later calls, development runs and empty queues return a skipped
// report. A failing job never stops the batch.
func (s *CaptureService) Capture(ctx context.Context, run *Run) (report core.CaptureReport) {
	report = core.CaptureReport{RunID: run.ID, Started: time.Now()}

	if run.Dev() {
		report.SkipReason = "development mode"
		return report
	}
	if !run.claimCapture() {
		report.SkipReason = "already captured for this run"
		return report
	}

	jobs := run.Queue().DrainAll()
	defer run.Queue().Reset()
	if len(jobs) == 0 {
		report.SkipReason = "no screenshots queued"
		return report
	}

	defer func() {
		report.Elapsed = time.Since(report.Started)
		s.record(ctx, report)
	}()

	if s.locker != nil {
		unlock, err := s.locker.TryLock(run.OutDir)
		if err != nil {
			report.Err = err
			s.logger.Error("og:image capture not started", "dir", run.OutDir, "error", err)
			return report
		}
		defer s.cleanup(&report, "release capture lock", unlock)
	}

	readyCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadyTimeout)
	server, err := s.preview.Start(readyCtx, run.OutDir)
	cancel()
	if err != nil {
		report.Err = fmt.Errorf("start preview server: %w", err)
		s.logger.Error("og:image capture not started", "error", report.Err)
		return report
	}
	defer s.cleanup(&report, "stop preview server", server.Stop)

	session, err := s.browser.Launch(ctx)
	if err != nil {
		report.Err = fmt.Errorf("failed to create a browser to create og:images: %w", err)
		s.logger.Error("og:image capture not started", "error", report.Err)
		return report
	}
	defer s.cleanup(&report, "close browser", session.Close)

	s.logger.Info("pre-rendering og:image screenshots", "count", len(jobs), "url", server.URL(), "run", run.ID)
	if s.observer != nil {
		s.observer.CaptureStarted(len(jobs))
	}

	report.Results = make([]core.CaptureResult, 0, len(jobs))
	for i, job := range jobs {
		res := s.captureOne(ctx, session, server.URL(), run.OutDir, job)
		report.Results = append(report.Results, res)
		if s.observer != nil {
			s.observer.CaptureProgress(i, len(jobs), res)
		}
	}

	return report
}

func (s *CaptureService) captureOne(ctx context.Context, session core.BrowserSession, baseURL, outDir string, job core.ImageSpec) (res core.CaptureResult) {
	start := time.Now()
	res = core.CaptureResult{Spec: job, OutputPath: job.ArtifactPath()}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("capture %s panicked: %v", job.Path, r)
		}
		res.Elapsed = time.Since(start)
		if res.Err != nil {
			s.logger.Error("og:image screenshot failed", "path", job.Path, "error", res.Err)
		}
	}()

	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	opts := core.MergeOptions(s.cfg.Defaults, job.Options)
	opts["width"] = job.Width
	opts["height"] = job.Height

	data, err := session.Capture(jobCtx, core.JoinURL(baseURL, job.Path), opts)
	if err != nil {
		res.Err = fmt.Errorf("capture %s: %w", job.Path, err)
		return res
	}

	if err := writeArtifact(s.fs, outDir, res.OutputPath, data); err != nil {
		res.Err = fmt.Errorf("write %s: %w", res.OutputPath, err)
	}
	return res
}

func (s *CaptureService) cleanup(report *core.CaptureReport, what string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.Warn("og:image cleanup failed", "step", what, "error", err)
		report.CleanupErr = errors.Join(report.CleanupErr, fmt.Errorf("%s: %w", what, err))
	}
}

func (s *CaptureService) record(ctx context.Context, report core.CaptureReport) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordRun(context.WithoutCancel(ctx), report); err != nil {
		s.logger.Warn("failed to record og:image run", "run", report.RunID, "error", err)
	}
}
