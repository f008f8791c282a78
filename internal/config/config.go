// Package config provides configuration management for the chart analysis application.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"chartsight/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Access      AccessConfig   `mapstructure:"access"`
	Store       StoreConfig    `mapstructure:"store"`
	Analyzer    AnalyzerConfig `mapstructure:"analyzer"`
	UI          UIConfig       `mapstructure:"ui"`
	Credentials Credentials    `mapstructure:"-"` // Loaded separately
}

// AccessConfig holds access control configuration.
type AccessConfig struct {
	// MasterKey grants admin-level access. The shipped default mirrors
	// the embedded master secret of the original deployment; override it
	// via config or CHARTSIGHT_MASTER_KEY.
	MasterKey string `mapstructure:"master_key"`
}

// StoreConfig holds persistence configuration. A non-empty RemoteDSN
// selects the remote Postgres backend once at startup; otherwise the
// local fallback store at LocalPath is used.
type StoreConfig struct {
	RemoteDSN string `mapstructure:"remote_dsn"`
	LocalPath string `mapstructure:"local_path"`
}

// IsRemote reports whether the remote backend is configured.
func (c StoreConfig) IsRemote() bool {
	return c.RemoteDSN != ""
}

// AnalyzerConfig holds AI analyzer configuration.
type AnalyzerConfig struct {
	Model        string `mapstructure:"model"`
	MaxImageEdge int    `mapstructure:"max_image_edge"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	TimeFormat   string `mapstructure:"time_format"`
}

// Credentials holds API credentials.
type Credentials struct {
	OpenAI OpenAICredentials `mapstructure:"openai"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/chartsight"
	}
	return filepath.Join(home, ".config", "chartsight")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("access.master_key", "SIGNAL-MASTER-2024")
	v.SetDefault("analyzer.model", "gpt-4o")
	v.SetDefault("analyzer.max_image_edge", 1280)
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.time_format", "15:04:05")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := createTemplateConfig(configDir); werr != nil {
				return werr
			}
			return v.Unmarshal(target)
		}
		return err
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("CHARTSIGHT_MASTER_KEY"); v != "" {
		cfg.Access.MasterKey = v
	}
	if v := os.Getenv("CHARTSIGHT_REMOTE_DSN"); v != "" {
		cfg.Store.RemoteDSN = v
	}
	if v := os.Getenv("CHARTSIGHT_MODEL"); v != "" {
		cfg.Analyzer.Model = v
	}
}

func applyDefaults(cfg *Config, configDir string) {
	if cfg.Store.LocalPath == "" {
		cfg.Store.LocalPath = filepath.Join(configDir, "chartsight.db")
	}
	if cfg.Analyzer.Model == "" {
		cfg.Analyzer.Model = "gpt-4o"
	}
	if cfg.Analyzer.MaxImageEdge <= 0 {
		cfg.Analyzer.MaxImageEdge = 1280
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Access.MasterKey == "" {
		return fmt.Errorf("%w: access.master_key must not be empty", errors.ErrConfigInvalid)
	}
	if c.Analyzer.MaxImageEdge < 64 {
		return fmt.Errorf("%w: analyzer.max_image_edge must be at least 64", errors.ErrConfigInvalid)
	}
	return nil
}
