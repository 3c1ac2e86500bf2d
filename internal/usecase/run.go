package usecase

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/3-lines-studio/ogimage/internal/core"
)

// Run is the state of one build: its screenshot queue and whether the
// capture batch already happened. Nothing is shared between runs.
type Run struct {
	ID       string
	Mode     core.Mode
	Generate bool
	OutDir   string

	queue    *core.Queue
	captured atomic.Bool
}

func NewRun(mode core.Mode, outDir string, generate bool) *Run {
	return &Run{
		ID:       uuid.NewString(),
		Mode:     mode,
		Generate: generate,
		OutDir:   outDir,
		queue:    core.NewQueue(),
	}
}

func (r *Run) Queue() *core.Queue {
	return r.queue
}

func (r *Run) Dev() bool {
	return r.Mode == core.ModeDev
}

// claimCapture returns true exactly once per run.
func (r *Run) claimCapture() bool {
	return r.captured.CompareAndSwap(false, true)
}
