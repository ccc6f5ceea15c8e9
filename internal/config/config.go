package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Base URL of the music server
	// Default: "http://pi-server:8080"
	ServerURL string

	// Deadline for downloading one track
	FetchTimeout time.Duration

	// How often the preloader re-checks the prefetch cache
	PreloadInterval time.Duration

	// How often the transition monitor polls the active lane
	MonitorInterval time.Duration

	// Number of tracks after the current one to keep cached
	PreloadAhead int

	// How long a transition waits for an in-flight prefetch (0 disables)
	PrefetchWait time.Duration

	// Mixer sample rate in Hz
	SampleRate int

	// Output format template for status lines
	// Default: "now playing: {{.Title}} - {{.Artist}} on lane {{.Lane}}"
	OutputFormat string

	// Fixed display width for status lines (0 disables padding)
	OutputWidth int

	// Initial output volume in percent, 0 to 100
	Volume int
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("server_url", "http://pi-server:8080")
	v.SetDefault("fetch_timeout", "30s")
	v.SetDefault("preload_interval", "2s")
	v.SetDefault("monitor_interval", "50ms")
	v.SetDefault("preload_ahead", 1)
	v.SetDefault("prefetch_wait", "1s")
	v.SetDefault("sample_rate", 44100)
	v.SetDefault("output_format", "now playing: {{.Title}} - {{.Artist}} on lane {{.Lane}}")
	v.SetDefault("output_width", 0)
	v.SetDefault("volume", 100)

	// Read config file (optional - don't fail if missing)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Read from environment variables
	v.SetEnvPrefix("SEAMLESS")
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		ServerURL:       v.GetString("server_url"),
		FetchTimeout:    v.GetDuration("fetch_timeout"),
		PreloadInterval: v.GetDuration("preload_interval"),
		MonitorInterval: v.GetDuration("monitor_interval"),
		PreloadAhead:    v.GetInt("preload_ahead"),
		PrefetchWait:    v.GetDuration("prefetch_wait"),
		SampleRate:      v.GetInt("sample_rate"),
		OutputFormat:    v.GetString("output_format"),
		OutputWidth:     v.GetInt("output_width"),
		Volume:          v.GetInt("volume"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configured values are usable
func (c *Config) Validate() error {
	switch {
	case c.ServerURL == "":
		return fmt.Errorf("invalid config: server_url is required")
	case c.FetchTimeout <= 0:
		return fmt.Errorf("invalid config: fetch_timeout must be positive, got %v", c.FetchTimeout)
	case c.PreloadInterval <= 0:
		return fmt.Errorf("invalid config: preload_interval must be positive, got %v", c.PreloadInterval)
	case c.MonitorInterval <= 0:
		return fmt.Errorf("invalid config: monitor_interval must be positive, got %v", c.MonitorInterval)
	case c.PreloadAhead < 1:
		return fmt.Errorf("invalid config: preload_ahead must be at least 1, got %d", c.PreloadAhead)
	case c.PrefetchWait < 0:
		return fmt.Errorf("invalid config: prefetch_wait must not be negative, got %v", c.PrefetchWait)
	case c.SampleRate <= 0:
		return fmt.Errorf("invalid config: sample_rate must be positive, got %d", c.SampleRate)
	case c.OutputWidth < 0:
		return fmt.Errorf("invalid config: output_width must not be negative, got %d", c.OutputWidth)
	case c.Volume < 0 || c.Volume > 100:
		return fmt.Errorf("invalid config: volume must be between 0 and 100, got %d", c.Volume)
	}
	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(homeDir, ".config", "seamless")
}
