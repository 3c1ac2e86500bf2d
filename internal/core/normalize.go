package core

type NormalizeInput struct {
	Path         string
	Directive    Options
	HasDirective bool
	Override     Override
	Defaults     Options
	Context      PageContext
}

// Normalize merges defaults < directive < route override into one spec.
// ok is false when the route disables og:image or the page declared none.
func Normalize(in NormalizeInput) (spec ImageSpec, ok bool) {
	if in.Override.Disabled || !in.HasDirective {
		return ImageSpec{}, false
	}

	merged := MergeOptions(in.Defaults, in.Directive, in.Override.Values)

	provider := ProviderVector
	if merged.String("provider") == string(ProviderBrowser) {
		provider = ProviderBrowser
	}

	width := dimension(merged, in.Defaults, "width", DefaultWidth)
	height := dimension(merged, in.Defaults, "height", DefaultHeight)

	ctx := in.Context
	if ctx.Route == "" {
		ctx.Route = in.Path
	}

	return ImageSpec{
		Path:      in.Path,
		Provider:  provider,
		Width:     width,
		Height:    height,
		Component: merged.String("component"),
		Prerender: merged.Bool("prerender"),
		Options:   merged,
		Context:   ctx,
	}, true
}

// dimension reads a positive size from merged, falling back to the site
// defaults and then to fallback.
func dimension(merged, defaults Options, key string, fallback int) int {
	if v, ok := merged.Int(key); ok && v > 0 {
		return v
	}
	if v, ok := defaults.Int(key); ok && v > 0 {
		return v
	}
	return fallback
}
