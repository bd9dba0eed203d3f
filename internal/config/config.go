// Package config loads client configuration from the environment, with an
// optional YAML file overriding individual values. A .env file in the working
// directory is honoured when present.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything needed to wire up the SpendWise client.
type Config struct {
	// APIBaseURL is the root of the resource API.
	APIBaseURL string `env:"SPENDWISE_API_URL,default=http://localhost:8090/api" yaml:"api_base_url"`
	// SupabaseURL is the root of the auth provider (GoTrue lives under
	// /auth/v1 of this URL).
	SupabaseURL string `env:"SPENDWISE_SUPABASE_URL" yaml:"supabase_url"`
	// SupabaseAnonKey is the project's public API key, sent as the apikey
	// header on auth calls.
	SupabaseAnonKey string `env:"SPENDWISE_SUPABASE_ANON_KEY" yaml:"supabase_anon_key"`
	// TokenPath is where the bearer token slot lives on disk. Empty means
	// the default location under the user's home directory.
	TokenPath string `env:"SPENDWISE_TOKEN_PATH" yaml:"token_path"`
	// SessionPath is where the full auth session is persisted for restore.
	SessionPath string `env:"SPENDWISE_SESSION_PATH" yaml:"session_path"`
	// RequestTimeout bounds each HTTP call.
	RequestTimeout time.Duration `env:"SPENDWISE_REQUEST_TIMEOUT,default=15s" yaml:"request_timeout"`
	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `env:"SPENDWISE_LOG_LEVEL,default=info" yaml:"log_level"`
	// LogPretty switches to human-readable console output.
	LogPretty bool `env:"SPENDWISE_LOG_PRETTY,default=false" yaml:"log_pretty"`
}

// Load builds a Config from the environment. When file is non-empty it names
// a YAML file whose set fields override the environment values.
func Load(file string) (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if file != "" {
		if err := cfg.applyFile(file); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func (c *Config) applyFile(file string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	// Decode into a fresh struct so unset YAML fields keep their
	// environment values rather than zeroing them.
	var overlay struct {
		APIBaseURL      *string        `yaml:"api_base_url"`
		SupabaseURL     *string        `yaml:"supabase_url"`
		SupabaseAnonKey *string        `yaml:"supabase_anon_key"`
		TokenPath       *string        `yaml:"token_path"`
		SessionPath     *string        `yaml:"session_path"`
		RequestTimeout  *time.Duration `yaml:"request_timeout"`
		LogLevel        *string        `yaml:"log_level"`
		LogPretty       *bool          `yaml:"log_pretty"`
	}
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", file, err)
	}

	if overlay.APIBaseURL != nil {
		c.APIBaseURL = *overlay.APIBaseURL
	}
	if overlay.SupabaseURL != nil {
		c.SupabaseURL = *overlay.SupabaseURL
	}
	if overlay.SupabaseAnonKey != nil {
		c.SupabaseAnonKey = *overlay.SupabaseAnonKey
	}
	if overlay.TokenPath != nil {
		c.TokenPath = *overlay.TokenPath
	}
	if overlay.SessionPath != nil {
		c.SessionPath = *overlay.SessionPath
	}
	if overlay.RequestTimeout != nil {
		c.RequestTimeout = *overlay.RequestTimeout
	}
	if overlay.LogLevel != nil {
		c.LogLevel = *overlay.LogLevel
	}
	if overlay.LogPretty != nil {
		c.LogPretty = *overlay.LogPretty
	}
	return nil
}

// Validate reports missing values that have no usable default.
func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("supabase_url is required (set SPENDWISE_SUPABASE_URL)")
	}
	if c.SupabaseAnonKey == "" {
		return fmt.Errorf("supabase_anon_key is required (set SPENDWISE_SUPABASE_ANON_KEY)")
	}
	return nil
}
