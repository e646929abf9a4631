// Package config handles workspace configuration for domquery.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Flow selection
	Flows       []string `yaml:"flows"`       // Glob patterns for flows, relative to the config file
	IncludeTags []string `yaml:"includeTags"` // Tags to include
	ExcludeTags []string `yaml:"excludeTags"` // Tags to exclude

	// Execution settings
	Env      map[string]string `yaml:"env"`      // Variables for ${NAME} expansion
	Parallel int               `yaml:"parallel"` // Max concurrent flows
	Output   string            `yaml:"output"`   // Report directory

	dir string // Directory the config was loaded from
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Parallel < 0 {
		return nil, fmt.Errorf("%s: parallel must not be negative", path)
	}
	cfg.dir = filepath.Dir(path)

	return &cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return empty config
	return &Config{dir: dir}, nil
}

// ResolveFlows expands the flow globs against the config's directory.
// Matches are returned sorted and without duplicates. With no globs
// configured it returns nil so callers fall back to their own paths.
func (c *Config) ResolveFlows() ([]string, error) {
	if len(c.Flows) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range c.Flows {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(c.dir, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("flows pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}
