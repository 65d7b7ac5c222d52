// Package config handles adswap configuration from YAML files.
//
// Selectors, size thresholds and the catalog are compiled in; the file only
// says which pages to filter, how to drive Chrome and where to report.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Page modes.
const (
	ModeAuto    = "auto"    // HTTP first, browser when the HTML is an app shell
	ModeHTTP    = "http"    // fetch once, filter the static HTML
	ModeBrowser = "browser" // live tab, rescanned on every DOM change
)

// Config is the top-level adswap configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Pages   []PageConfig  `yaml:"pages"`
	Sinks   []SinkConfig  `yaml:"sinks"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	MemoryLimit      int64         `yaml:"memory_limit"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display"`
	XvfbScreen       string        `yaml:"xvfb_screen"`
}

// PageConfig defines a page to filter.
type PageConfig struct {
	ID   string `yaml:"id"`
	URL  string `yaml:"url"`
	Mode string `yaml:"mode"` // auto | http | browser
}

// SinkConfig defines a report backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook | sqlite
	URL  string `yaml:"url"`  // webhook target
	Path string `yaml:"path"` // sqlite database file
}

// HTTPConfig controls the status/filter API.
type HTTPConfig struct {
	Listen string `yaml:"listen"` // empty = disabled
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
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.XvfbScreen == "" {
		c.Browser.XvfbScreen = "1920x1080x24"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	for i := range c.Pages {
		if c.Pages[i].Mode == "" {
			c.Pages[i].Mode = ModeAuto
		}
		if c.Pages[i].ID == "" {
			c.Pages[i].ID = c.Pages[i].URL
		}
	}
}

// Validate rejects pages without URLs, unknown modes and incomplete sinks.
func (c *Config) Validate() error {
	for i, p := range c.Pages {
		if p.URL == "" {
			return fmt.Errorf("config: page %d: url required", i)
		}
		switch p.Mode {
		case ModeAuto, ModeHTTP, ModeBrowser:
		default:
			return fmt.Errorf("config: page %q: unknown mode %q", p.ID, p.Mode)
		}
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: sink %d: webhook url required", i)
			}
		case "sqlite":
			if s.Path == "" {
				return fmt.Errorf("config: sink %d: sqlite path required", i)
			}
		default:
			return fmt.Errorf("config: sink %d: unknown type %q", i, s.Type)
		}
	}
	return nil
}
