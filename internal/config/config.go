// Package config loads and exposes application configuration (TOML, or YAML by extension).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default configuration values used when a field is missing.
const (
	DefaultConfigPath     = "config.toml"
	DefaultAPIBaseURL     = "http://127.0.0.1:25046"
	DefaultTimeoutSeconds = 60
	DefaultEmbeddingModel = "open_ai"
	DefaultAppType        = "app"
	DefaultStoragePath    = "data/memochat.db"
	DefaultLogFile        = "data/memochat.log"
)

// Environment variables that override file values.
const (
	EnvConfigPath = "CONFIG_PATH"
	EnvAPIURL     = "MEMOCHAT_API_URL"
	EnvUserID     = "MEMOCHAT_USER_ID"
	EnvLogLevel   = "MEMOCHAT_LOG_LEVEL"
)

// Config is the root application configuration.
type Config struct {
	Log      LogConfig      `toml:"log" yaml:"log"`
	API      APIConfig      `toml:"api" yaml:"api"`
	Answer   AnswerConfig   `toml:"answer" yaml:"answer"`
	Storage  StorageConfig  `toml:"storage" yaml:"storage"`
	Identity IdentityConfig `toml:"identity" yaml:"identity"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
// File receives log output while the terminal UI owns the screen.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	File   string `toml:"file" yaml:"file"`
}

// APIConfig holds the backend base URL and per-request timeout.
type APIConfig struct {
	BaseURL        string `toml:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// Timeout returns the request timeout, falling back to the default.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AnswerConfig holds the fixed model/app parameters sent with every question.
type AnswerConfig struct {
	EmbeddingModel string `toml:"embedding_model" yaml:"embedding_model"`
	AppType        string `toml:"app_type" yaml:"app_type"`
}

// StorageConfig holds the durable client state file path.
type StorageConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// IdentityConfig pins the user id instead of the generated per-install one.
type IdentityConfig struct {
	UserID string `toml:"user_id" yaml:"user_id"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   DefaultLogFile,
		},
		API: APIConfig{
			BaseURL:        DefaultAPIBaseURL,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Answer: AnswerConfig{
			EmbeddingModel: DefaultEmbeddingModel,
			AppType:        DefaultAppType,
		},
		Storage: StorageConfig{
			Path: DefaultStoragePath,
		},
	}
}

// Load reads the config file at path over the defaults, then applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if err := decodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return yaml.Unmarshal(raw, cfg)
	default:
		_, err := toml.DecodeFile(path, cfg)
		return err
	}
}

// ApplyEnv overrides fields from MEMOCHAT_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUserID)); v != "" {
		c.Identity.UserID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env") into the
// process environment without overriding variables that are already set.
// Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ConfigPath resolves the config path from an explicit value, CONFIG_PATH, or the default.
func ConfigPath(explicit string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(EnvConfigPath)); v != "" {
		return v
	}
	return DefaultConfigPath
}
