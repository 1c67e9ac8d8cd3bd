// Package config handles domsurface configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level domsurface configuration.
type Config struct {
	Browser       BrowserConfig       `yaml:"browser"`
	Scan          ScanConfig          `yaml:"scan"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	MemoryLimit      int64         `yaml:"memory_limit"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	XvfbDisplay      string        `yaml:"xvfb_display"`
}

// ScanConfig controls discovery passes.
type ScanConfig struct {
	Selectors     []string `yaml:"selectors"`
	IncludeHidden bool     `yaml:"include_hidden"`
	MaxElements   int      `yaml:"max_elements"`
}

// ServerConfig controls the serve mode surfaces.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	MCP      bool   `yaml:"mcp"`
}

// ObservabilityConfig controls the scan event store.
type ObservabilityConfig struct {
	DBPath            string `yaml:"db_path"`
	RetentionDays     int    `yaml:"retention_days"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Scan.MaxElements <= 0 {
		c.Scan.MaxElements = 500
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8846"
	}
	if c.Observability.DBPath == "" {
		c.Observability.DBPath = "domsurface_obs.db"
	}
	if c.Observability.RetentionDays <= 0 {
		c.Observability.RetentionDays = 14
	}
	if c.Observability.HeartbeatInterval <= 0 {
		c.Observability.HeartbeatInterval = 15 * time.Second
	}
}
