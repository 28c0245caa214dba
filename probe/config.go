package probe

import (
	"github.com/hazyhaar/viewport/probe/internal/config"
)

// Config is the top-level prober configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// BreakpointsConfig selects the breakpoint set.
type BreakpointsConfig = config.BreakpointsConfig

// PageConfig defines a page to probe.
type PageConfig = config.PageConfig

// DebounceConfig controls resize handling.
type DebounceConfig = config.DebounceConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// StoreConfig locates the history database.
type StoreConfig = config.StoreConfig

// DefaultWidths is the sweep used when a request lists no widths.
var DefaultWidths = config.DefaultWidths

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// ParseConfig decodes YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	return config.Parse(data)
}
