// Package ogimage generates og:image files for the pages of a statically or
// server rendered site.
//
// Pages embed a directive (see RenderDirective) describing their image. A
// Run strips the directive from every page handed to Page, resolves it
// against the site defaults and route rules, renders vector images right
// away and queues browser screenshots, which BeforeFinalize or Close
// capture in one batch against a preview server over the output directory.
package ogimage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/3-lines-studio/ogimage/internal/adapters/browser"
	"github.com/3-lines-studio/ogimage/internal/adapters/env"
	"github.com/3-lines-studio/ogimage/internal/adapters/fs"
	"github.com/3-lines-studio/ogimage/internal/adapters/http"
	"github.com/3-lines-studio/ogimage/internal/adapters/lock"
	"github.com/3-lines-studio/ogimage/internal/adapters/process"
	"github.com/3-lines-studio/ogimage/internal/adapters/render"
	"github.com/3-lines-studio/ogimage/internal/core"
	"github.com/3-lines-studio/ogimage/internal/history"
	"github.com/3-lines-studio/ogimage/internal/usecase"
)

type Options = core.Options

type RouteRule = core.RouteRule

type Override = core.Override

type ImageSpec = core.ImageSpec

type Report = core.CaptureReport

type CaptureResult = core.CaptureResult

type PreviewServer = core.PreviewServer

type BrowserSession = core.BrowserSession

type PreviewStarter interface {
	Start(ctx context.Context, dir string) (PreviewServer, error)
}

type BrowserLauncher interface {
	Launch(ctx context.Context) (BrowserSession, error)
}

type VectorRenderer interface {
	Render(spec ImageSpec) ([]byte, error)
}

type ProgressObserver interface {
	CaptureStarted(total int)
	CaptureProgress(index, total int, result CaptureResult)
}

type BrowserConfig struct {
	RemoteURL string
	Bin       string
	Stealth   bool
	NoSandbox bool
}

// RenderDirective returns the script block a page embeds to request an
// og:image.
func RenderDirective(opts Options) (string, error) {
	return core.RenderDirective(opts)
}

type settings struct {
	rules          []RouteRule
	defaults       Options
	mode           core.Mode
	logger         *slog.Logger
	preview        PreviewStarter
	previewCommand []string
	browser        BrowserLauncher
	browserCfg     BrowserConfig
	vector         VectorRenderer
	readyTimeout   time.Duration
	jobTimeout     time.Duration
	historyPath    string
	progress       ProgressObserver
	lockDir        string
	noCapture      bool
}

type Option func(*settings)

func WithRouteRules(rules ...RouteRule) Option {
	return func(s *settings) { s.rules = append(s.rules, rules...) }
}

// WithDefaults sets the options every page starts from, layered over the
// built-in component and 1200x630 size.
func WithDefaults(defaults Options) Option {
	return func(s *settings) { s.defaults = defaults }
}

// WithDevMode overrides the mode read from OGIMAGE_DEV. Development runs
// strip directives but never render or capture.
func WithDevMode(dev bool) Option {
	return func(s *settings) {
		s.mode = core.ModeProd
		if dev {
			s.mode = core.ModeDev
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithPreviewCommand serves the output directory with an external command
// such as "npx serve" instead of the built in server.
func WithPreviewCommand(command ...string) Option {
	return func(s *settings) { s.previewCommand = command }
}

func WithPreviewStarter(p PreviewStarter) Option {
	return func(s *settings) { s.preview = p }
}

func WithBrowser(cfg BrowserConfig) Option {
	return func(s *settings) { s.browserCfg = cfg }
}

func WithBrowserLauncher(b BrowserLauncher) Option {
	return func(s *settings) { s.browser = b }
}

// WithVectorRenderer replaces the built in card renderer. nil turns vector
// rendering off.
func WithVectorRenderer(r VectorRenderer) Option {
	return func(s *settings) { s.vector = r }
}

func WithTimeouts(ready, job time.Duration) Option {
	return func(s *settings) {
		s.readyTimeout = ready
		s.jobTimeout = job
	}
}

// WithHistory records every capture batch in a SQLite database at path.
func WithHistory(path string) Option {
	return func(s *settings) { s.historyPath = path }
}

func WithProgress(p ProgressObserver) Option {
	return func(s *settings) { s.progress = p }
}

func WithLockDir(dir string) Option {
	return func(s *settings) { s.lockDir = dir }
}

// WithCapture turns the screenshot batch off when enabled is false. Pages
// are still stripped and vector images still rendered.
func WithCapture(enabled bool) Option {
	return func(s *settings) { s.noCapture = !enabled }
}

// Generator holds the wiring shared by every run over one output directory.
type Generator struct {
	outDir   string
	mode     core.Mode
	fs       usecase.FileSystem
	generate *usecase.GenerateService
	capture  *usecase.CaptureService
	history  *history.Store
	logger   *slog.Logger

	captureDisabled bool
}

func New(outDir string, opts ...Option) (*Generator, error) {
	s := settings{
		mode:   env.DetectMode(),
		vector: render.NewVectorRenderer(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	rules, err := core.NewRuleTable(s.rules)
	if err != nil {
		return nil, fmt.Errorf("ogimage: %w", err)
	}

	preview := s.preview
	switch {
	case preview != nil:
	case len(s.previewCommand) > 0:
		preview = process.NewPreviewStarter(s.previewCommand, s.logger)
	default:
		preview = http.NewPreviewStarter(s.logger)
	}

	launcher := s.browser
	if launcher == nil {
		launcher = browser.NewLauncher(browser.Config{
			RemoteURL: s.browserCfg.RemoteURL,
			Bin:       s.browserCfg.Bin,
			Stealth:   s.browserCfg.Stealth,
			NoSandbox: s.browserCfg.NoSandbox,
			Logger:    s.logger,
		})
	}

	defaults := core.MergeOptions(core.DefaultOptions(), s.defaults)
	fileSystem := fs.NewOSFileSystem()

	g := &Generator{
		outDir: outDir,
		mode:   s.mode,
		fs:     fileSystem,
		logger: s.logger,

		captureDisabled: s.noCapture,
	}

	var vector usecase.VectorRenderer
	if s.vector != nil {
		vector = s.vector
	}
	g.generate = usecase.NewGenerateService(rules, defaults, vector, fileSystem, s.logger)

	g.capture = usecase.NewCaptureService(preview, launcher, fileSystem, usecase.CaptureConfig{
		Defaults:     defaults,
		ReadyTimeout: s.readyTimeout,
		JobTimeout:   s.jobTimeout,
	}, s.logger).WithLocker(lock.NewDirLocker(s.lockDir))

	if s.progress != nil {
		g.capture.WithObserver(s.progress)
	}

	if s.historyPath != "" {
		store, err := history.Open(s.historyPath)
		if err != nil {
			return nil, fmt.Errorf("ogimage: %w", err)
		}
		g.history = store
		g.capture.WithHistory(store)
	}

	return g, nil
}

func (g *Generator) OutDir() string {
	return g.outDir
}

func (g *Generator) Dev() bool {
	return g.mode == core.ModeDev
}

// Close releases the history database.
func (g *Generator) Close() error {
	return g.history.Close()
}
