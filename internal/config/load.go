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
		return filepath.Join(home, "Library", "Application Support", "OGLRenderer")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "OGLRenderer")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "oglrenderer")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "oglrenderer")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate rejects values the renderer cannot start with.
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	if c.Graphics.MSAASamples < 0 {
		return fmt.Errorf("invalid msaa_samples %d", c.Graphics.MSAASamples)
	}
	if c.Render.ShadowResolution <= 0 {
		return fmt.Errorf("invalid shadow_resolution %d", c.Render.ShadowResolution)
	}
	if c.Render.ShadowNear >= c.Render.ShadowFar {
		return fmt.Errorf("shadow_near %.2f must be below shadow_far %.2f", c.Render.ShadowNear, c.Render.ShadowFar)
	}
	if c.Graphics.Near <= 0 || c.Graphics.Near >= c.Graphics.Far {
		return fmt.Errorf("invalid clip range [%.2f, %.2f]", c.Graphics.Near, c.Graphics.Far)
	}
	return nil
}
