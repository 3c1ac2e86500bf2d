package usecase

import (
	"context"

	"github.com/3-lines-studio/ogimage/internal/adapters/fs"
	"github.com/3-lines-studio/ogimage/internal/core"
)

type PreviewStarter interface {
	Start(ctx context.Context, dir string) (core.PreviewServer, error)
}

type Browser interface {
	Launch(ctx context.Context) (core.BrowserSession, error)
}

type VectorRenderer interface {
	Render(spec core.ImageSpec) ([]byte, error)
}

type PageFetcher interface {
	Fetch(ctx context.Context, path string) (string, error)
}

type CaptureObserver interface {
	CaptureStarted(total int)
	CaptureProgress(index, total int, result core.CaptureResult)
}

type HistoryRecorder interface {
	RecordRun(ctx context.Context, report core.CaptureReport) error
}

// RunLocker serializes capture batches over the same output directory.
type RunLocker interface {
	TryLock(dir string) (unlock func() error, err error)
}

type FileSystem = fs.FileSystem
