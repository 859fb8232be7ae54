// Package config handles loading and validating jiracli configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jirakit/jiracli/internal/jira"
)

// Config holds the application configuration: connection settings plus
// default issue field values applied when a flag was not given.
type Config struct {
	Jira   ConnectionConfig  `yaml:"jira"`
	Issues map[string]string `yaml:"issues,omitempty"`
}

// ConnectionConfig holds the remote connection settings.
type ConnectionConfig struct {
	URL         string `yaml:"url"`
	User        string `yaml:"user"`
	SessionFile string `yaml:"sessionfile,omitempty"`
}

// DefaultConfigDir returns the .jiracli directory in the user's home.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".jiracli"), nil
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultSessionPath returns the default session cache file path.
func DefaultSessionPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session"), nil
}

// Load reads and parses the config file. A missing file is not an error:
// a commented sample is written in its place and an empty config returned,
// so first runs can proceed on flags alone.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := WriteSample(path); err != nil {
				return nil, err
			}
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that every issue-defaults key names a recognized issue
// field. A stray key would otherwise be dropped silently at build time.
func (c *Config) Validate() error {
	for key := range c.Issues {
		if !recognizedDefault(key) {
			return fmt.Errorf("unknown issue attribute: %s", key)
		}
	}
	return nil
}

// recognizedDefault reports whether key may appear in the issues section.
// Beyond the standard fields, the epic/theme extension value is allowed.
func recognizedDefault(key string) bool {
	if jira.IsIssueField(key) {
		return true
	}
	return key == "epic_theme"
}
