// Package config loads pipeline configuration from .env, an optional JSON
// file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
)

// Config is the top-level configuration structure.
type Config struct {
	DBPath        string   `json:"db_path"`
	Provider      string   `json:"provider"`
	APIKey        string   `json:"api_key"`
	Model         string   `json:"model"`
	LogLevel      string   `json:"log_level"`
	RetrieveLimit int      `json:"retrieve_limit"`
	RetentionDays int      `json:"retention_days"`
	Timeouts      Timeouts `json:"timeouts"`
}

// Timeouts bound each suspending call of a run.
type Timeouts struct {
	Reasoning Duration `json:"reasoning"`
	Store     Duration `json:"store"`
	Action    Duration `json:"action"`
}

// Duration decodes Go duration strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DBPath:        filepath.Join(home, ".agent-pipeline", "memory.db"),
		Provider:      "gemini",
		LogLevel:      "info",
		RetrieveLimit: 5,
		RetentionDays: 30,
		Timeouts: Timeouts{
			Reasoning: Duration{30 * time.Second},
			Store:     Duration{5 * time.Second},
			Action:    Duration{10 * time.Second},
		},
	}
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load builds the configuration. A .env file in the working directory is
// loaded first, then the JSON file at path (if any) with environment
// references substituted, then AGENT_PIPELINE_* overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}

		resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
			parts := envVarRe.FindStringSubmatch(match)
			if v := os.Getenv(parts[1]); v != "" {
				return v
			}
			return parts[2]
		})

		if err := json.Unmarshal([]byte(resolved), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("AGENT_PIPELINE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("AGENT_PIPELINE_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("AGENT_PIPELINE_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("AGENT_PIPELINE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if cfg.APIKey == "" {
		switch cfg.Provider {
		case "anthropic":
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

// Validate checks value ranges. A missing API key is only reported when a
// reasoning service is actually built.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path is required")
	}
	if c.RetrieveLimit < 0 {
		return fmt.Errorf("config: retrieve_limit must not be negative")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("config: retention_days must not be negative")
	}
	switch c.Provider {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	return nil
}
