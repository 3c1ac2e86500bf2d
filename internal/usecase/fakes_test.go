package usecase

import (
	"context"
	"errors"
	iofs "io/fs"
	"path/filepath"
	"sync"

	"github.com/3-lines-studio/ogimage/internal/core"
)

type memFS struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
}

func newMemFS() *memFS {
	return &memFS{files: map[string][]byte{}, dirs: map[string]bool{}}
}

func (m *memFS) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, iofs.ErrNotExist
	}
	return data, nil
}

func (m *memFS) FileExists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

func (m *memFS) WriteFile(path string, data []byte, _ iofs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = data
	return nil
}

func (m *memFS) MkdirAll(path string, _ iofs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[filepath.Clean(path)] = true
	return nil
}

func (m *memFS) WalkDir(string, iofs.WalkDirFunc) error {
	return nil
}

type fakeServer struct {
	url     string
	stopErr error
	stopped int
}

func (s *fakeServer) URL() string { return s.url }

func (s *fakeServer) Stop() error {
	s.stopped++
	return s.stopErr
}

type fakePreview struct {
	server  *fakeServer
	err     error
	started int
	dir     string
}

func (p *fakePreview) Start(ctx context.Context, dir string) (core.PreviewServer, error) {
	p.started++
	p.dir = dir
	if p.err != nil {
		return nil, p.err
	}
	return p.server, nil
}

type captureCall struct {
	url  string
	opts core.Options
}

type fakeSession struct {
	calls    []captureCall
	fail     map[string]error
	panicOn  string
	panicAll bool
	// block holds URLs whose capture waits until the job context ends.
	block    map[string]bool
	closeErr error
	closed   int
}

func (s *fakeSession) Capture(ctx context.Context, url string, opts core.Options) ([]byte, error) {
	s.calls = append(s.calls, captureCall{url: url, opts: opts})
	if s.panicAll || url == s.panicOn {
		panic("page crashed")
	}
	if s.block[url] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := s.fail[url]; ok {
		return nil, err
	}
	return []byte("png:" + url), nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return s.closeErr
}

type fakeBrowser struct {
	session  *fakeSession
	err      error
	launched int
}

func (b *fakeBrowser) Launch(ctx context.Context) (core.BrowserSession, error) {
	b.launched++
	if b.err != nil {
		return nil, b.err
	}
	return b.session, nil
}

type recordingObserver struct {
	total int
	lines []string
}

func (o *recordingObserver) CaptureStarted(total int) {
	o.total = total
}

func (o *recordingObserver) CaptureProgress(index, total int, result core.CaptureResult) {
	o.lines = append(o.lines, result.OutputPath)
}

type fakeHistory struct {
	reports []core.CaptureReport
}

func (h *fakeHistory) RecordRun(ctx context.Context, report core.CaptureReport) error {
	h.reports = append(h.reports, report)
	return nil
}

type fakeLocker struct {
	busy     bool
	unlocked int
}

func (l *fakeLocker) TryLock(dir string) (func() error, error) {
	if l.busy {
		return nil, core.ErrRunLocked
	}
	return func() error {
		l.unlocked++
		return nil
	}, nil
}

type fakeRenderer struct {
	err error
}

func (r fakeRenderer) Render(spec core.ImageSpec) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("vector:" + spec.Path), nil
}

type fakeFetcher struct {
	pages map[string]string
}

func (f fakeFetcher) Fetch(ctx context.Context, path string) (string, error) {
	html, ok := f.pages[path]
	if !ok {
		return "", errors.New("404 Not Found")
	}
	return html, nil
}
