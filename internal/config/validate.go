package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/3-lines-studio/ogimage/internal/core"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHost(); err != nil {
		return err
	}
	if err := c.validateRouteRules(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if c.Browser.RemoteURL != "" {
		if _, err := url.Parse(c.Browser.RemoteURL); err != nil {
			return fmt.Errorf("browser.remote_url: %w", err)
		}
	}
	return nil
}

func (c *Config) validateHost() error {
	if c.Host == "" {
		return nil
	}
	u, err := url.Parse(c.Host)
	if err != nil {
		return fmt.Errorf("host: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("host must be an http(s) URL, got %q", c.Host)
	}
	return nil
}

func (c *Config) validateRouteRules() error {
	if _, err := core.NewRuleTable(c.rules); err != nil {
		return fmt.Errorf("route_rules: %w", err)
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	if c.Preview.ReadyTimeout <= 0 {
		return errors.New("preview.ready_timeout must be positive")
	}
	if c.Browser.JobTimeout <= 0 {
		return errors.New("browser.job_timeout must be positive")
	}
	return nil
}
