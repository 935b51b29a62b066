package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// APIConfig holds settings for the remote CRM server connection.
type APIConfig struct {
	// BaseURL is the root URL of the CRM REST API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds every HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// NotifyConfig holds timing for the reminder scanner and backend poller.
type NotifyConfig struct {
	// ScanIntervalSec is how often the local reminder scanner runs.
	ScanIntervalSec int `mapstructure:"scan_interval_sec" yaml:"scan_interval_sec"`

	// PollIntervalSec is how often server-pending notifications are fetched.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// AckDelaySec is how long to wait before acknowledging a fetched
	// notification back to the server, so it stays visible first.
	AckDelaySec int `mapstructure:"ack_delay_sec" yaml:"ack_delay_sec"`
}

// DisplayConfig holds UI preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`

	// DBPath is the local cache database location.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// LogPath is where background activity is logged.
	LogPath string `mapstructure:"log_path" yaml:"log_path"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/crmdesk/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "crmdesk", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dataDir := "."
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".config", "crmdesk")
	}
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:5000/api",
			TimeoutSec: 30,
		},
		Notify: NotifyConfig{
			ScanIntervalSec: 15,
			PollIntervalSec: 10,
			AckDelaySec:     10,
		},
		Display: DisplayConfig{Theme: "default"},
		DBPath:  filepath.Join(dataDir, "cache.db"),
		LogPath: filepath.Join(dataDir, "crmdesk.log"),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := defaultAppConfig()
	v.SetDefault("api.base_url", defaults.API.BaseURL)
	v.SetDefault("api.timeout_sec", defaults.API.TimeoutSec)
	v.SetDefault("notify.scan_interval_sec", defaults.Notify.ScanIntervalSec)
	v.SetDefault("notify.poll_interval_sec", defaults.Notify.PollIntervalSec)
	v.SetDefault("notify.ack_delay_sec", defaults.Notify.AckDelaySec)
	v.SetDefault("display.theme", defaults.Display.Theme)
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("log_path", defaults.LogPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
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

	v.Set("api", cfg.API)
	v.Set("notify", cfg.Notify)
	v.Set("display", cfg.Display)
	v.Set("db_path", cfg.DBPath)
	v.Set("log_path", cfg.LogPath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
