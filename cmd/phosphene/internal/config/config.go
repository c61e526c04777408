// Package config provides configuration management for the phosphene CLI.
//
// This file handles loading configuration from the settings file, .env files and
// environment variables, and creating configured phosphene clients.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	phosphene "github.com/aixiera/phosphene-web"
	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/ui/components"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const settingsFilename = "phosphene.yml"

// Config holds everything the CLI needs to reach the backend and save results
type Config struct {
	APIURL      string        `yaml:"api_url"`
	DownloadDir string        `yaml:"download_dir"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	LogLevel    string        `yaml:"log_level,omitempty"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		APIURL:      phosphene.DefaultBaseURL,
		DownloadDir: ".",
		LogLevel:    "info",
	}
}

// Path returns the settings file location. PHOSPHENE_CONFIG overrides it
func Path() (string, error) {
	if p := os.Getenv("PHOSPHENE_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "phosphene", settingsFilename), nil
}

// Load resolves the configuration from defaults, the settings file, .env and the environment.
// The result is not validated; callers apply their own overrides first, then call Validate
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit settings file path
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, err
	}

	// .env never overrides variables that are already set
	godotenv.Load()

	if v := os.Getenv("PHOSPHENE_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("PHOSPHENE_DOWNLOAD_DIR"); v != "" {
		cfg.DownloadDir = v
	}
	if v := os.Getenv("PHOSPHENE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PHOSPHENE_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("PHOSPHENE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}

// Save writes the configuration to the settings file
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo is Save with an explicit settings file path
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields a user can get wrong
func (c Config) Validate() error {
	if err := ValidateAPIURL(c.APIURL); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if strings.TrimSpace(c.DownloadDir) == "" {
		return fmt.Errorf("download directory must not be empty")
	}
	return nil
}

// ValidateAPIURL accepts absolute http and https URLs
func ValidateAPIURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API URL must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("API URL must include a host")
	}
	return nil
}

// UserAgent identifies the CLI build to the backend
func UserAgent() string {
	return "phosphene-cli/" + components.Version
}

// NewClient creates a phosphene client for this configuration
func (c Config) NewClient() *phosphene.Client {
	opts := []phosphene.ClientOption{
		phosphene.WithBaseURL(strings.TrimSpace(c.APIURL)),
		phosphene.WithHeader("User-Agent", UserAgent()),
	}
	if c.Timeout > 0 {
		opts = append(opts, phosphene.WithTimeout(c.Timeout))
	}
	return phosphene.NewClient(opts...)
}
