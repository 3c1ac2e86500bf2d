package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/3-lines-studio/ogimage/internal/core"
)

// ReadyMarker is the stdout text a preview command prints once it serves.
const ReadyMarker = "Accepting connections at "

var DefaultPreviewCommand = []string{"npx", "serve"}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

const stopGrace = 5 * time.Second

// PreviewStarter runs a static file server as a child process over the
// output directory. The directory is appended as the last argument.
type PreviewStarter struct {
	command []string
	stderr  io.Writer
	logger  *slog.Logger
}

func NewPreviewStarter(command []string, logger *slog.Logger) *PreviewStarter {
	if len(command) == 0 {
		command = DefaultPreviewCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PreviewStarter{command: command, stderr: os.Stderr, logger: logger}
}

// Start launches the command and waits until it prints ReadyMarker. ctx
// bounds the wait only; the process outlives it until Stop.
func (p *PreviewStarter) Start(ctx context.Context, dir string) (core.PreviewServer, error) {
	args := append(append([]string{}, p.command[1:]...), dir)
	cmd := exec.Command(p.command[0], args...)
	cmd.Env = os.Environ()
	cmd.Stderr = p.stderr
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach preview stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", p.command[0], err)
	}

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		watchOutput(stdout, ready)
		done <- cmd.Wait()
	}()

	select {
	case url := <-ready:
		p.logger.Debug("preview server ready", "url", url, "pid", cmd.Process.Pid)
		return &PreviewProcess{cmd: cmd, url: url, done: done}, nil
	case err := <-done:
		if err == nil {
			err = errors.New("exit status 0")
		}
		return nil, fmt.Errorf("preview command exited before it was ready: %w", err)
	case <-ctx.Done():
		_ = terminate(cmd)
		waitOrKill(cmd, done)
		return nil, fmt.Errorf("%w: %s gave no ready line: %v", core.ErrServerNotReady, strings.Join(p.command, " "), ctx.Err())
	}
}

// watchOutput reports the first ready URL and keeps draining the pipe so
// the child never blocks on a full stdout.
func watchOutput(r io.Reader, ready chan<- string) {
	sent := false
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if sent {
			continue
		}
		if url, ok := ParseReadyLine(scanner.Text()); ok {
			ready <- url
			sent = true
		}
	}
	_, _ = io.Copy(io.Discard, r)
}

// ParseReadyLine extracts the base URL from a line such as
// "INFO: Accepting connections at http://localhost:3000".
func ParseReadyLine(line string) (string, bool) {
	line = ansiPattern.ReplaceAllString(line, "")
	_, rest, ok := strings.Cut(line, ReadyMarker)
	if !ok {
		return "", false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", false
	}
	return strings.TrimRight(fields[0], "/"), true
}

type PreviewProcess struct {
	cmd  *exec.Cmd
	url  string
	done chan error
	once sync.Once
	err  error
}

func (p *PreviewProcess) URL() string {
	return p.url
}

func (p *PreviewProcess) Stop() error {
	p.once.Do(func() {
		if err := terminate(p.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.err = fmt.Errorf("failed to stop preview server: %w", err)
			return
		}
		waitOrKill(p.cmd, p.done)
	})
	return p.err
}

func waitOrKill(cmd *exec.Cmd, done <-chan error) {
	select {
	case <-done:
	case <-time.After(stopGrace):
		_ = cmd.Process.Kill()
		<-done
	}
}
