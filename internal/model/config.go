package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds the remote endpoints and credential reference.
type ServerConfig struct {
	// APIBaseURL is the root URL of the notification REST API.
	APIBaseURL string `mapstructure:"api_base_url" yaml:"api_base_url"`

	// StreamBaseURL is the root URL of the live-position SSE feed.
	// Empty means "same as api_base_url".
	StreamBaseURL string `mapstructure:"stream_base_url" yaml:"stream_base_url"`
}

// CacheConfig holds local persistence settings.
type CacheConfig struct {
	// DBPath is the SQLite database file; empty uses the default
	// under the user config directory.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// RetentionLimit is the maximum number of notifications kept
	// locally after each sync.
	RetentionLimit int `mapstructure:"retention_limit" yaml:"retention_limit"`
}

// TrackingConfig holds live-tracking display settings.
type TrackingConfig struct {
	// BusNo is the default tracked bus number.
	BusNo string `mapstructure:"bus_no" yaml:"bus_no"`

	// AnimationMs is the marker transition duration in milliseconds.
	AnimationMs int `mapstructure:"animation_ms" yaml:"animation_ms"`

	// StaleAfterSec is the age at which the feed is flagged degraded.
	StaleAfterSec int `mapstructure:"stale_after_sec" yaml:"stale_after_sec"`
}

// ProfileConfig identifies the local user to the app.
type ProfileConfig struct {
	// Role is "student" or "incharge"; only the transport incharge can
	// compose and delete notifications.
	Role string `mapstructure:"role" yaml:"role"`

	// SenderName is stamped on notifications composed locally.
	SenderName string `mapstructure:"sender_name" yaml:"sender_name"`
}

// CanSend reports whether this profile may compose and delete
// notifications.
func (p ProfileConfig) CanSend() bool {
	return p.Role == "incharge"
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Tracking TrackingConfig `mapstructure:"tracking" yaml:"tracking"`
	Profile  ProfileConfig  `mapstructure:"profile" yaml:"profile"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// StreamURL returns the base URL for the SSE feed, falling back to the
// API base URL when no separate stream host is configured.
func (c *AppConfig) StreamURL() string {
	if c.Server.StreamBaseURL != "" {
		return c.Server.StreamBaseURL
	}
	return c.Server.APIBaseURL
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/bustracker/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "bustracker", "config.yaml")
}

// DefaultDBPath returns the default SQLite database location.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "bustracker.db")
	}
	return filepath.Join(home, ".config", "bustracker", "bustracker.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Cache: CacheConfig{
			DBPath:         DefaultDBPath(),
			RetentionLimit: 30,
		},
		Tracking: TrackingConfig{
			AnimationMs:   8000,
			StaleAfterSec: 5,
		},
		Profile: ProfileConfig{
			Role:       "student",
			SenderName: "Transport Incharge",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("cache.db_path", DefaultDBPath())
	v.SetDefault("cache.retention_limit", 30)
	v.SetDefault("tracking.animation_ms", 8000)
	v.SetDefault("tracking.stale_after_sec", 5)
	v.SetDefault("profile.role", "student")
	v.SetDefault("profile.sender_name", "Transport Incharge")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("cache", cfg.Cache)
	v.Set("tracking", cfg.Tracking)
	v.Set("profile", cfg.Profile)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
