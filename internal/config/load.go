package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no run can use.
func (c *Config) Validate() error {
	switch c.Textures.Backend {
	case BackendGL, BackendMemory:
	default:
		return fmt.Errorf("textures.backend: unknown backend %q", c.Textures.Backend)
	}
	if c.Layers.EdgeThreshold < 0 || c.Layers.EdgeThreshold > 180 {
		return fmt.Errorf("layers.edge_threshold: %v outside [0, 180]", c.Layers.EdgeThreshold)
	}
	if c.Layers.MaxGeometryBatchSize < 0 {
		return fmt.Errorf("layers.max_geometry_batch_size: negative (%d)", c.Layers.MaxGeometryBatchSize)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	if c.Bench.Portions < 0 || c.Bench.Instances < 0 || c.Bench.Frames < 0 {
		return fmt.Errorf("bench: negative count in %+v", c.Bench)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "dtx")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "dtx")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "dtx")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "dtx")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
