package pagefilter

import (
	"github.com/hazyhaar/adswap/pagefilter/internal/config"
)

// Config is the top-level adswap configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// PageConfig defines a page to filter.
type PageConfig = config.PageConfig

// SinkConfig defines a report backend.
type SinkConfig = config.SinkConfig

// HTTPConfig controls the status/filter API.
type HTTPConfig = config.HTTPConfig

// Page modes.
const (
	ModeAuto    = config.ModeAuto
	ModeHTTP    = config.ModeHTTP
	ModeBrowser = config.ModeBrowser
)

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// ParseConfig decodes YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	return config.Parse(data)
}
