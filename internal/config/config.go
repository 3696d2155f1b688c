package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Shell overrides $SHELL for the embedded terminal.
	Shell string `yaml:"shell"`
	// Theme names the color table for terminal rendering.
	Theme string `yaml:"theme"`
	// NoTmux disables the per-path tmux launcher.
	NoTmux bool `yaml:"no_tmux"`
}

// Load reads the config from ~/.config/lst/config.yaml.
// Returns defaults if the file doesn't exist.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return &Config{}, nil
	}

	path := filepath.Join(home, ".config", "lst", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
