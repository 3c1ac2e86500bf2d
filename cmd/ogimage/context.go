package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/ogimage"
	"github.com/3-lines-studio/ogimage/internal/adapters/cli"
	"github.com/3-lines-studio/ogimage/internal/adapters/fs"
	"github.com/3-lines-studio/ogimage/internal/adapters/http"
	"github.com/3-lines-studio/ogimage/internal/config"
	"github.com/3-lines-studio/ogimage/internal/core"
	"github.com/3-lines-studio/ogimage/internal/logging"
	"github.com/3-lines-studio/ogimage/internal/usecase"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
}

// generatorOptions maps the loaded configuration onto the library options.
func (c *commandContext) generatorOptions(cmd *cobra.Command) ([]ogimage.Option, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return nil, err
	}

	opts := []ogimage.Option{
		ogimage.WithLogger(logger),
		ogimage.WithRouteRules(cfg.Rules()...),
		ogimage.WithDefaults(cfg.ImageDefaults()),
		ogimage.WithTimeouts(cfg.ReadyTimeout(), cfg.JobTimeout()),
		ogimage.WithBrowser(ogimage.BrowserConfig{
			RemoteURL: cfg.Browser.RemoteURL,
			Bin:       cfg.Browser.Bin,
			Stealth:   cfg.Browser.Stealth,
			NoSandbox: cfg.Browser.NoSandbox,
		}),
		ogimage.WithCapture(cfg.Capture.Enabled),
	}
	if len(cfg.Preview.Command) > 0 {
		opts = append(opts, ogimage.WithPreviewCommand(cfg.Preview.Command...))
	}
	if cfg.History.Path != "" {
		opts = append(opts, ogimage.WithHistory(cfg.History.Path))
	}
	return opts, nil
}

// optionsService resolves options against pages read from dir, or from the
// configured host when dir is empty.
func (c *commandContext) optionsService(dir string) (*usecase.OptionsService, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	rules, err := core.NewRuleTable(cfg.Rules())
	if err != nil {
		return nil, err
	}

	var fetcher usecase.PageFetcher
	if dir != "" {
		fetcher = fs.NewPageReader(fs.NewOSFileSystem(), dir)
	} else {
		fetcher = http.NewUpstreamFetcher(cfg.Host, nil)
	}

	return usecase.NewOptionsService(fetcher, rules, cfg.ImageDefaults()), nil
}

func newOutput(w io.Writer) *cli.Output {
	if w == os.Stdout {
		return cli.NewOutput()
	}
	return cli.NewOutputTo(w)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func outputDir(cfg *config.Config, flag string) (string, error) {
	dir := strings.TrimSpace(flag)
	if dir == "" {
		dir = cfg.OutputDir
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("output directory %s is not a directory", dir)
	}
	return dir, nil
}
