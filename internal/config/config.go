package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the top-level configuration for taskcc.
type Config struct {
	// Top is the name of the top-level kernel task.
	Top string `json:"top,omitempty"`

	// Namespace is the dialect namespace the annotated types live in.
	Namespace string `json:"namespace,omitempty"`

	// OutputDir receives the rewritten source and metadata documents.
	OutputDir string `json:"outputDir,omitempty"`

	// PolicyDir holds additional *.rego graph policy rules.
	PolicyDir string `json:"policyDir,omitempty"`

	// SuffixVectorNames gives each replica of a named vectorized
	// invocation its own suffixed display name instead of sharing one.
	SuffixVectorNames bool `json:"suffixVectorNames,omitempty"`

	// Rules maps policy rule names to severity overrides: "off",
	// "warning", "error".
	Rules map[string]string `json:"rules,omitempty"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Namespace: "tapa",
		OutputDir: ".",
		Rules:     map[string]string{},
	}
}

// Load finds and loads the configuration file.
// Search order:
//  1. ./taskcc.json (current working directory)
//  2. ./.taskcc.json (current working directory)
//  3. ~/.config/taskcc/config.json
//
// Returns DefaultConfig if no config file is found.
func Load() (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, "taskcc.json"),
		filepath.Join(cwd, ".taskcc.json"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "taskcc", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Namespace == "" {
		c.Namespace = "tapa"
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.Rules == nil {
		c.Rules = map[string]string{}
	}
}

// Save writes the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
