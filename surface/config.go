package surface

import (
	"github.com/hazyhaar/domsurface/surface/internal/config"
)

// Config is the top-level domsurface configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// ScanConfig controls discovery passes.
type ScanConfig = config.ScanConfig

// ServerConfig controls the serve mode surfaces.
type ServerConfig = config.ServerConfig

// ObservabilityConfig controls the scan event store.
type ObservabilityConfig = config.ObservabilityConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	return config.Default()
}
