package usecase

import (
	"context"
	"fmt"

	"github.com/3-lines-studio/ogimage/internal/core"
)

type OptionsResult struct {
	Disabled bool
	Spec     core.ImageSpec
}

// OptionsService answers "what image does this path get" by fetching the
// page's markup and resolving its directive the way a build would.
type OptionsService struct {
	fetcher  PageFetcher
	rules    *core.RuleTable
	defaults core.Options
}

func NewOptionsService(fetcher PageFetcher, rules *core.RuleTable, defaults core.Options) *OptionsService {
	if defaults == nil {
		defaults = core.DefaultOptions()
	}
	return &OptionsService{fetcher: fetcher, rules: rules, defaults: defaults}
}

func (s *OptionsService) Resolve(ctx context.Context, path string) (OptionsResult, error) {
	if path == "" {
		path = "/"
	}
	path = core.NormalizePath(path)

	html, err := s.fetcher.Fetch(ctx, path)
	if err != nil {
		return OptionsResult{}, fmt.Errorf("%w: failed to read the path %s for og:image extraction: %v", core.ErrFetch, path, err)
	}

	override := s.rules.Resolve(path)
	if override.Disabled {
		return OptionsResult{Disabled: true}, nil
	}

	directive, found, err := core.ExtractDirective(html)
	if err != nil {
		return OptionsResult{}, fmt.Errorf("%w: the path %s has a malformed payload: %v", core.ErrMissingDirective, path, err)
	}

	spec, ok := core.Normalize(core.NormalizeInput{
		Path:         path,
		Directive:    directive,
		HasDirective: found,
		Override:     override,
		Defaults:     s.defaults,
		Context:      core.PageContext{Route: path, FileName: core.FileNameForRoute(path)},
	})
	if !ok {
		return OptionsResult{}, fmt.Errorf("%w: the path %s is missing the og:image payload", core.ErrMissingDirective, path)
	}

	return OptionsResult{Spec: spec}, nil
}
