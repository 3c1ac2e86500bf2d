package core

import (
	"context"
	"time"
)

// PreviewServer is a running static server over the generated output.
type PreviewServer interface {
	URL() string
	Stop() error
}

// BrowserSession is one live browser shared by every job of a batch.
type BrowserSession interface {
	Capture(ctx context.Context, url string, opts Options) ([]byte, error)
	Close() error
}

type CaptureResult struct {
	Spec       ImageSpec
	OutputPath string
	Elapsed    time.Duration
	Err        error
}

func (r CaptureResult) Success() bool {
	return r.Err == nil
}

type CaptureReport struct {
	RunID      string
	Results    []CaptureResult
	Started    time.Time
	Elapsed    time.Duration
	SkipReason string
	Err        error
	CleanupErr error
}

func (r CaptureReport) Skipped() bool {
	return r.SkipReason != ""
}

func (r CaptureReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success() {
			n++
		}
	}
	return n
}

func (r CaptureReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// HasFailures reports a batch level error or any failed job.
func (r CaptureReport) HasFailures() bool {
	return r.Err != nil || r.Failed() > 0
}
