package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/3-lines-studio/ogimage/internal/core"
)

const (
	readinessInterval = 25 * time.Millisecond
	shutdownTimeout   = 5 * time.Second
)

// PreviewStarter serves the output directory from inside the process on a
// random loopback port.
type PreviewStarter struct {
	logger *slog.Logger
}

func NewPreviewStarter(logger *slog.Logger) *PreviewStarter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreviewStarter{logger: logger}
}

func (p *PreviewStarter) Start(ctx context.Context, dir string) (core.PreviewServer, error) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/*", NewStaticHandler(dir))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen for preview server: %w", err)
	}

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := &PreviewServer{
		srv:  srv,
		url:  "http://" + ln.Addr().String(),
		done: make(chan error, 1),
	}

	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		server.done <- err
	}()

	if err := waitReady(ctx, server.url); err != nil {
		_ = server.Stop()
		return nil, err
	}

	p.logger.Debug("preview server ready", "url", server.url, "dir", dir)
	return server, nil
}

func waitReady(ctx context.Context, url string) error {
	client := &http.Client{Timeout: time.Second}
	ticker := time.NewTicker(readinessInterval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/", nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			_ = resp.Body.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", core.ErrServerNotReady, url, ctx.Err())
		case <-ticker.C:
		}
	}
}

type PreviewServer struct {
	srv  *http.Server
	url  string
	done chan error
	once sync.Once
	err  error
}

func (s *PreviewServer) URL() string {
	return s.url
}

func (s *PreviewServer) Stop() error {
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(ctx); err != nil {
			s.err = fmt.Errorf("failed to stop preview server: %w", err)
			return
		}
		s.err = <-s.done
	})
	return s.err
}
