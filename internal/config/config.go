package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/3-lines-studio/ogimage/internal/core"
)

//go:embed sample_config.yaml
var sampleConfig string

// ProjectFiles are looked up in the working directory when no path is given.
var ProjectFiles = []string{"ogimage.yaml", "ogimage.yml", "ogimage.toml"}

// RouteRule is one route_rules entry. OGImage is either false, to disable
// images for the matching routes, or a table of option overrides.
type RouteRule struct {
	Pattern string `yaml:"pattern" toml:"pattern"`
	OGImage any    `yaml:"og_image" toml:"og_image"`
}

// Preview selects the static server the capture pipeline screenshots
// against. An empty Command serves the output directory in process.
type Preview struct {
	Command      []string `yaml:"command" toml:"command"`
	ReadyTimeout int      `yaml:"ready_timeout" toml:"ready_timeout"`
}

type Browser struct {
	RemoteURL  string `yaml:"remote_url" toml:"remote_url"`
	Bin        string `yaml:"bin" toml:"bin"`
	Stealth    bool   `yaml:"stealth" toml:"stealth"`
	NoSandbox  bool   `yaml:"no_sandbox" toml:"no_sandbox"`
	JobTimeout int    `yaml:"job_timeout" toml:"job_timeout"`
}

type Capture struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	Strict  bool `yaml:"strict" toml:"strict"`
}

// History points at the SQLite ledger of capture runs. Empty disables it.
type History struct {
	Path string `yaml:"path" toml:"path"`
}

type Logging struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

type Config struct {
	Host       string         `yaml:"host" toml:"host"`
	OutputDir  string         `yaml:"output_dir" toml:"output_dir"`
	Defaults   map[string]any `yaml:"defaults" toml:"defaults"`
	RouteRules []RouteRule    `yaml:"route_rules" toml:"route_rules"`
	Preview    Preview        `yaml:"preview" toml:"preview"`
	Browser    Browser        `yaml:"browser" toml:"browser"`
	Capture    Capture        `yaml:"capture" toml:"capture"`
	History    History        `yaml:"history" toml:"history"`
	Logging    Logging        `yaml:"logging" toml:"logging"`

	rules []core.RouteRule
}

// Load locates, parses, and validates a configuration file. It returns the
// resolved path and whether a file existed; a missing file yields defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := decode(file, resolvedPath, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decode(r io.Reader, path string, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", false, fmt.Errorf("resolve config path: %w", err)
		}
		if _, err := os.Stat(abs); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return abs, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return abs, true, nil
	}

	for _, name := range ProjectFiles {
		abs, err := filepath.Abs(name)
		if err != nil {
			return "", false, err
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			return abs, true, nil
		}
	}

	abs, err := filepath.Abs(ProjectFiles[0])
	if err != nil {
		return "", false, err
	}
	return abs, false, nil
}

// Rules returns the normalized route rules in declaration order.
func (c *Config) Rules() []core.RouteRule {
	return c.rules
}

// ImageDefaults returns the options every page starts from.
func (c *Config) ImageDefaults() core.Options {
	return core.Options(c.Defaults).Clone()
}

func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.Preview.ReadyTimeout) * time.Second
}

func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.Browser.JobTimeout) * time.Second
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
