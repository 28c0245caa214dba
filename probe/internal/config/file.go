// Package config handles prober configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/viewport/viewport"
)

// DefaultWidths is the sweep used when a page lists no widths. It brackets
// the common framework thresholds.
var DefaultWidths = []int{320, 576, 640, 768, 992, 1024, 1200, 1400, 1440, 1920}

// Config is the top-level prober configuration.
type Config struct {
	Browser     BrowserConfig     `yaml:"browser"`
	Breakpoints BreakpointsConfig `yaml:"breakpoints"`
	Pages       []PageConfig      `yaml:"pages"`
	Debounce    DebounceConfig    `yaml:"debounce"`
	Sinks       []SinkConfig      `yaml:"sinks"`
	Store       StoreConfig       `yaml:"store"`
}

// BrowserConfig controls Chrome.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Headless         *bool         `yaml:"headless"`
	Stealth          bool          `yaml:"stealth"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	NavigateTimeout  time.Duration `yaml:"navigate_timeout"`
	Height           int           `yaml:"height"`
}

// BreakpointsConfig selects the breakpoint set: a preset name, or an
// ordered custom list (smallest first) which takes precedence.
type BreakpointsConfig struct {
	Preset string                `yaml:"preset"`
	Custom []viewport.Descriptor `yaml:"custom"`
}

// PageConfig defines a page to probe. Empty fields inherit the global ones.
type PageConfig struct {
	ID          string            `yaml:"id"`
	URL         string            `yaml:"url"`
	Widths      []int             `yaml:"widths"`
	Queries     []string          `yaml:"queries"`
	Breakpoints BreakpointsConfig `yaml:"breakpoints"`
}

// DebounceConfig controls resize handling.
type DebounceConfig struct {
	// Interval is the quiet period before a resize burst is evaluated.
	Interval time.Duration `yaml:"interval"`
	// Settle is the pause after each programmatic resize of a sweep.
	Settle time.Duration `yaml:"settle"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook | sqlite
	URL  string `yaml:"url"`  // for webhook
}

// StoreConfig locates the report history database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Browser.Headless == nil {
		headless := true
		c.Browser.Headless = &headless
	}
	if c.Browser.NavigateTimeout <= 0 {
		c.Browser.NavigateTimeout = 30 * time.Second
	}
	if c.Browser.Height <= 0 {
		c.Browser.Height = 900
	}
	if c.Breakpoints.Preset == "" && len(c.Breakpoints.Custom) == 0 {
		c.Breakpoints.Preset = viewport.DefaultPreset
	}
	if c.Debounce.Interval <= 0 {
		c.Debounce.Interval = viewport.DefaultInterval
	}
	if c.Debounce.Settle < 0 {
		c.Debounce.Settle = 0
	}
	for i := range c.Pages {
		if c.Pages[i].ID == "" {
			c.Pages[i].ID = fmt.Sprintf("page-%d", i+1)
		}
	}
}

func (c *Config) validate() error {
	for i, p := range c.Pages {
		if p.URL == "" {
			return fmt.Errorf("config: pages[%d]: missing url", i)
		}
		for _, w := range p.Widths {
			if w <= 0 {
				return fmt.Errorf("config: pages[%d]: invalid width %d", i, w)
			}
		}
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout", "sqlite":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: sinks[%d]: webhook without url", i)
			}
		default:
			return fmt.Errorf("config: sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}

// IsHeadless reports the effective headless setting.
func (b BrowserConfig) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}
