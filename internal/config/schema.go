// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for dailyclaim.
package config

import (
	"github.com/flemzord/dailyclaim/internal/telemetry"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// DataDir overrides the persistent data directory.
	DataDir string `yaml:"data_dir,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`

	// Telemetry configures trace export. Disabled when absent.
	Telemetry telemetry.Config `yaml:"telemetry,omitempty"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "channel.telegram").
	Modules map[string]yaml.Node `yaml:"modules"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level,omitempty"`

	// Format is "text" (default) or "json".
	Format string `yaml:"format,omitempty"`
}
