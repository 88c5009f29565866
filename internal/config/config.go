// Package config loads the runtime configuration shared by the CLI and the
// API server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raysh454/crumb/internal/history"
	"github.com/raysh454/crumb/internal/logging"
	"github.com/raysh454/crumb/internal/scan"
	"github.com/raysh454/crumb/internal/scoring"
	"github.com/raysh454/crumb/internal/server"
	"gopkg.in/yaml.v3"
)

// Config aggregates every component's settings.
type Config struct {
	Log     logging.Options   `json:"log" yaml:"log"`
	History history.Config    `json:"history" yaml:"history"`
	Chrome  scan.ChromeConfig `json:"chrome" yaml:"chrome"`
	Scoring scoring.Weights   `json:"scoring" yaml:"scoring"`
	Server  server.Config     `json:"server" yaml:"server"`

	// CompaniesFile is an optional YAML company database appended after the
	// built-in one.
	CompaniesFile string `json:"companies_file,omitempty" yaml:"companies_file,omitempty" validate:"omitempty,file"`
}

// Default returns a Config populated with working defaults.
func Default() *Config {
	return &Config{
		Log:     logging.DefaultOptions(),
		History: history.DefaultConfig(),
		Chrome:  scan.DefaultChromeConfig(),
		Scoring: scoring.DefaultWeights(),
		Server:  server.DefaultConfig(),
	}
}

// Load reads path over the defaults and validates the result. Files ending in
// .yaml or .yml are YAML; anything else is JSON. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints of the whole tree.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
