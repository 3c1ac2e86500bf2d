package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/3-lines-studio/ogimage/internal/core"
)

type PageInput struct {
	Route    string
	FileName string
	HTML     string
}

type PageOutput struct {
	// HTML is the page markup with the directive block removed. Hosts must
	// write it back in place of the original.
	HTML     string
	Spec     *core.ImageSpec
	Queued   bool
	Rendered string
	// RenderErr is set when the vector image could not be produced. The
	// page itself is still processed.
	RenderErr error
}

type GenerateService struct {
	rules    *core.RuleTable
	defaults core.Options
	renderer VectorRenderer
	fs       FileSystem
	logger   *slog.Logger
}

// NewGenerateService wires the per-page hook. renderer may be nil, in which
// case vector specs are resolved but nothing is written for them.
func NewGenerateService(rules *core.RuleTable, defaults core.Options, renderer VectorRenderer, fs FileSystem, logger *slog.Logger) *GenerateService {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults == nil {
		defaults = core.DefaultOptions()
	}
	return &GenerateService{
		rules:    rules,
		defaults: defaults,
		renderer: renderer,
		fs:       fs,
		logger:   logger,
	}
}

func (s *GenerateService) ProcessPage(ctx context.Context, run *Run, in PageInput) (PageOutput, error) {
	out := PageOutput{HTML: in.HTML}

	route := in.Route
	if route == "" && in.FileName != "" {
		route = core.RouteForFile(in.FileName)
	}
	if !core.ShouldScanRoute(route) || in.HTML == "" {
		return out, nil
	}
	route = core.NormalizePath(route)

	directive, found, err := core.ExtractDirective(in.HTML)
	out.HTML = core.StripDirective(in.HTML)
	if err != nil {
		s.logger.Warn("ignoring malformed og:image directive", "route", route, "error", err)
		return out, nil
	}

	spec, ok := core.Normalize(core.NormalizeInput{
		Path:         route,
		Directive:    directive,
		HasDirective: found,
		Override:     s.rules.Resolve(route),
		Defaults:     s.defaults,
		Context:      core.PageContext{Route: route, FileName: in.FileName},
	})
	if !ok {
		return out, nil
	}
	out.Spec = &spec

	if run.Dev() || !(run.Generate || spec.Prerender) {
		return out, nil
	}

	switch spec.Provider {
	case core.ProviderBrowser:
		run.Queue().Enqueue(spec)
		out.Queued = true
		s.logger.Debug("queued og:image screenshot", "route", route, "run", run.ID)
	case core.ProviderVector:
		if s.renderer == nil {
			return out, nil
		}
		rel, err := s.renderVector(ctx, run, spec)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			s.logger.Warn("og:image render failed", "route", route, "error", err)
			out.RenderErr = err
			return out, nil
		}
		out.Rendered = rel
	}

	return out, nil
}

func (s *GenerateService) renderVector(ctx context.Context, run *Run, spec core.ImageSpec) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := s.renderer.Render(spec)
	if err != nil {
		return "", fmt.Errorf("render og:image for %s: %w", spec.Path, err)
	}

	rel := spec.ArtifactPath()
	if err := writeArtifact(s.fs, run.OutDir, rel, data); err != nil {
		return "", fmt.Errorf("write og:image for %s: %w", spec.Path, err)
	}
	return rel, nil
}

func writeArtifact(fs FileSystem, outDir, rel string, data []byte) error {
	full := filepath.Join(outDir, filepath.FromSlash(rel))
	if err := fs.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}
	return fs.WriteFile(full, data, 0644)
}
