package ogimage

import (
	"context"
	"time"

	"github.com/3-lines-studio/ogimage/internal/usecase"
)

type Page struct {
	// Route is the page's URL path. Derived from FileName when empty.
	Route string
	// FileName is the page's output file relative to the output directory,
	// such as "blog/post/index.html".
	FileName string
	HTML     string
}

type PageResult struct {
	// HTML is the markup to write back, with the directive removed.
	HTML     string
	Spec     *ImageSpec
	Queued   bool
	Rendered string
	// RenderErr reports a vector image that could not be produced.
	RenderErr error
}

// Run is one build over the output directory. Hosts call Page for every
// generated page, then BeforeFinalize (server rendered sites) or Close
// (static exports); only the first of the two captures.
type Run struct {
	g   *Generator
	run *usecase.Run
}

// NewRun starts a build. generate marks a full static export, where every
// browser image is captured; otherwise only pages with prerender set are.
func (g *Generator) NewRun(generate bool) *Run {
	return &Run{g: g, run: usecase.NewRun(g.mode, g.outDir, generate)}
}

func (r *Run) ID() string {
	return r.run.ID
}

// Queued reports how many screenshots wait for capture.
func (r *Run) Queued() int {
	return r.run.Queue().Len()
}

func (r *Run) Page(ctx context.Context, p Page) (PageResult, error) {
	out, err := r.g.generate.ProcessPage(ctx, r.run, usecase.PageInput{
		Route:    p.Route,
		FileName: p.FileName,
		HTML:     p.HTML,
	})
	return PageResult{
		HTML:     out.HTML,
		Spec:     out.Spec,
		Queued:   out.Queued,
		Rendered: out.Rendered,

		RenderErr: out.RenderErr,
	}, err
}

func (r *Run) BeforeFinalize(ctx context.Context) Report {
	return r.capture(ctx)
}

func (r *Run) Close(ctx context.Context) Report {
	return r.capture(ctx)
}

func (r *Run) capture(ctx context.Context) Report {
	if r.g.captureDisabled {
		r.run.Queue().Reset()
		return Report{RunID: r.run.ID, Started: time.Now(), SkipReason: "capture disabled"}
	}
	return r.g.capture.Capture(ctx, r.run)
}
