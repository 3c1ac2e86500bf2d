package config

import (
	"fmt"
	"strings"

	"github.com/3-lines-studio/ogimage/internal/core"
)

func (c *Config) normalize() error {
	c.Host = strings.TrimRight(strings.TrimSpace(c.Host), "/")
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}

	c.Defaults = core.MergeOptions(core.DefaultOptions(), c.Defaults)

	if err := c.normalizeRouteRules(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.History.Path = strings.TrimSpace(c.History.Path)
	c.Browser.RemoteURL = strings.TrimSpace(c.Browser.RemoteURL)
	return nil
}

func (c *Config) normalizeRouteRules() error {
	c.rules = make([]core.RouteRule, 0, len(c.RouteRules))
	for i, rule := range c.RouteRules {
		override, err := parseOverride(rule.OGImage)
		if err != nil {
			return fmt.Errorf("route_rules[%d] (%s): %w", i, rule.Pattern, err)
		}
		c.rules = append(c.rules, core.RouteRule{
			Pattern:  strings.TrimSpace(rule.Pattern),
			Override: override,
		})
	}
	return nil
}

// parseOverride maps the og_image value of a rule: false disables, true
// re-enables a subtree a broader rule disabled, a table overrides.
func parseOverride(v any) (core.Override, error) {
	switch val := v.(type) {
	case nil:
		return core.Override{}, nil
	case bool:
		if !val {
			return core.Override{Disabled: true}, nil
		}
		return core.Override{Enabled: true}, nil
	case map[string]any:
		return core.Override{Values: core.Options(val).Clone()}, nil
	default:
		return core.Override{}, fmt.Errorf("og_image must be a boolean or a table of options, got %T", v)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "text":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
