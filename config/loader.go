package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Load creates configuration with the following precedence:
// 1. Command-line flags (highest)
// 2. YAML config file
// 3. Defaults (lowest)
func Load(flags *Flags) (*Config, error) {
	cfg := DefaultConfig()

	yamlPath := findConfigFile(flags.ConfigPath)
	if yamlPath != "" {
		if err := LoadYAML(yamlPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", yamlPath, err)
		}
	}

	MergeFromFlags(cfg, flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}

	candidates := []string{
		"./screenrec.yaml",
		"./screenrec.yml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".screenrec", "config.yaml"),
			filepath.Join(home, ".config", "screenrec", "config.yaml"),
		)
	}

	candidates = append(candidates, "/etc/screenrec/config.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
