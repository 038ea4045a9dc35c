package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the entire application configuration
type Config struct {
	Download DownloadConfig `mapstructure:"download"`
	UI       UIConfig       `mapstructure:"ui"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DownloadConfig contains download engine settings
type DownloadConfig struct {
	Dir                   string `mapstructure:"dir"` // empty means $HOME/Downloads
	QueueCapacity         int    `mapstructure:"queue_capacity"`
	BufferSizeKB          int    `mapstructure:"buffer_size_kb"`
	ResponseHeaderTimeout string `mapstructure:"response_header_timeout"`
	UserAgent             string `mapstructure:"user_agent"`
}

// UIConfig contains front end cadence settings
type UIConfig struct {
	PollInterval   string `mapstructure:"poll_interval"`
	SpeedInterval  string `mapstructure:"speed_interval"`
	StatusInterval string `mapstructure:"status_interval"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"` // empty logs to stderr
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DatabaseConfig contains history database settings
type DatabaseConfig struct {
	Path          string `mapstructure:"path"` // empty disables history
	BusyTimeoutMs int    `mapstructure:"busy_timeout_ms"`
}

// DefaultLogFile returns the debug log path in the OS temp directory
func DefaultLogFile() string {
	return filepath.Join(os.TempDir(), "request_tui-debug.log")
}

// Load loads configuration from the specified file path. An empty path
// uses defaults only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("download.dir", "")
	v.SetDefault("download.queue_capacity", 32)
	v.SetDefault("download.buffer_size_kb", 64)
	v.SetDefault("download.response_header_timeout", "30s")
	v.SetDefault("download.user_agent", "request-tui")
	v.SetDefault("ui.poll_interval", "100ms")
	v.SetDefault("ui.speed_interval", "500ms")
	v.SetDefault("ui.status_interval", "2s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", DefaultLogFile())
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)
	v.SetDefault("database.path", "")
	v.SetDefault("database.busy_timeout_ms", 5000)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Download.QueueCapacity < 1 || c.Download.QueueCapacity > 1024 {
		return fmt.Errorf("download.queue_capacity must be between 1 and 1024")
	}
	if c.Download.BufferSizeKB < 0 {
		return fmt.Errorf("download.buffer_size_kb must not be negative")
	}

	durations := map[string]string{
		"download.response_header_timeout": c.Download.ResponseHeaderTimeout,
		"ui.poll_interval":                 c.UI.PollInterval,
		"ui.speed_interval":                c.UI.SpeedInterval,
		"ui.status_interval":               c.UI.StatusInterval,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// GetBufferSize returns the file write buffer size in bytes
func (c *DownloadConfig) GetBufferSize() int {
	if c.BufferSizeKB <= 0 {
		return 64 * 1024 // 64KB default
	}
	return c.BufferSizeKB * 1024
}

// GetResponseHeaderTimeout returns the response header timeout. Zero disables it.
func (c *DownloadConfig) GetResponseHeaderTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ResponseHeaderTimeout)
	return d
}

// GetPollInterval returns the front end poll interval as time.Duration
func (c *UIConfig) GetPollInterval() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	if d <= 0 {
		return 100 * time.Millisecond
	}
	return d
}

// GetSpeedInterval returns the speed sampling interval as time.Duration
func (c *UIConfig) GetSpeedInterval() time.Duration {
	d, _ := time.ParseDuration(c.SpeedInterval)
	if d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// GetStatusInterval returns the automatic status interval. Zero disables it.
func (c *UIConfig) GetStatusInterval() time.Duration {
	d, _ := time.ParseDuration(c.StatusInterval)
	if d < 0 {
		return 0
	}
	return d
}

// GetBusyTimeout returns the sqlite busy timeout as time.Duration
func (c *DatabaseConfig) GetBusyTimeout() time.Duration {
	if c.BusyTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.BusyTimeoutMs) * time.Millisecond
}
