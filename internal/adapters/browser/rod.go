// Package browser drives headless Chrome through go-rod to screenshot
// generated pages.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/3-lines-studio/ogimage/internal/core"
)

type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome. Empty
	// launches a local headless Chrome.
	RemoteURL string

	// Bin overrides the Chrome binary the launcher would download or find.
	Bin string

	Stealth   bool
	NoSandbox bool
	Logger    *slog.Logger
}

type Launcher struct {
	cfg Config
}

func NewLauncher(cfg Config) *Launcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Launcher{cfg: cfg}
}

func (l *Launcher) Launch(ctx context.Context) (core.BrowserSession, error) {
	log := l.cfg.Logger

	var lnch *launcher.Launcher
	wsURL := l.cfg.RemoteURL
	if wsURL == "" {
		lnch = launcher.New().Context(ctx).Headless(true).NoSandbox(l.cfg.NoSandbox)
		if l.cfg.Bin != "" {
			lnch = lnch.Bin(l.cfg.Bin)
		}

		u, err := lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		log.Debug("browser: launched local chrome", "url", wsURL)
	} else {
		log.Debug("browser: connecting to remote", "url", wsURL)
	}

	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b := rod.New().ControlURL(wsURL).Context(connCtx)
	if err := b.Connect(); err != nil {
		cancel()
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	return &Session{
		browser: b,
		lnch:    lnch,
		cancel:  cancel,
		stealth: l.cfg.Stealth,
		logger:  log,
	}, nil
}

// Session is one browser shared by every capture of a batch.
type Session struct {
	browser *rod.Browser
	lnch    *launcher.Launcher
	cancel  context.CancelFunc
	stealth bool
	logger  *slog.Logger
}

// Capture opens a fresh page, renders url at the requested viewport and
// returns a PNG. Recognized options: width, height, colorScheme, mask,
// delay, selector.
func (s *Session) Capture(ctx context.Context, url string, opts core.Options) ([]byte, error) {
	page, err := s.newPage()
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}
	defer s.closePage(page, url)
	page = page.Context(ctx)

	width, ok := opts.Int("width")
	if !ok || width <= 0 {
		width = core.DefaultWidth
	}
	height, ok := opts.Int("height")
	if !ok || height <= 0 {
		height = core.DefaultHeight
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("browser: viewport: %w", err)
	}

	if scheme := opts.String("colorScheme"); scheme != "" {
		err := proto.EmulationSetEmulatedMedia{
			Features: []*proto.EmulationMediaFeature{{Name: "prefers-color-scheme", Value: scheme}},
		}.Call(page)
		if err != nil {
			return nil, fmt.Errorf("browser: color scheme: %w", err)
		}
	}

	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("browser: wait load %s: %w", url, err)
	}

	if mask := opts.String("mask"); mask != "" {
		_, err := page.Eval(`(sel) => document.querySelectorAll(sel).forEach((el) => { el.style.display = 'none' })`, mask)
		if err != nil {
			return nil, fmt.Errorf("browser: mask %q: %w", mask, err)
		}
	}

	if delay, ok := opts.Int("delay"); ok && delay > 0 {
		select {
		case <-time.After(time.Duration(delay) * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if selector := strings.TrimSpace(opts.String("selector")); selector != "" {
		el, err := page.Element(selector)
		if err != nil {
			return nil, fmt.Errorf("browser: selector %q: %w", selector, err)
		}
		return el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	}

	return page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// closePage closes the tab with its own context so a job that ran out of
// time does not leave it open in the shared browser.
func (s *Session) closePage(page *rod.Page, url string) {
	if err := page.Context(context.Background()).Close(); err != nil {
		s.logger.Warn("browser: close page", "url", url, "error", err)
	}
}

func (s *Session) newPage() (*rod.Page, error) {
	if s.stealth {
		return stealth.Page(s.browser)
	}
	return s.browser.Page(proto.TargetCreateTarget{URL: ""})
}

// Close shuts a locally launched Chrome down. A remote browser is only
// disconnected.
func (s *Session) Close() error {
	defer s.cancel()
	if s.lnch == nil {
		return nil
	}
	err := s.browser.Close()
	s.lnch.Cleanup()
	if err != nil {
		return fmt.Errorf("browser: close: %w", err)
	}
	return nil
}
