package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Spotify application credentials
	ClientID     string
	ClientSecret string

	// RedirectURI must match the Spotify app configuration
	RedirectURI string

	// Address the web server listens on
	ListenAddr string

	// Path to the session database
	DBPath string

	// Poll interval for the tracker (in seconds)
	PollInterval int

	// Duration reported for a track whose length is unknown (in seconds)
	FallbackDuration int

	// Margin subtracted from the token lifetime (in seconds)
	ExpiryMargin int
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
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("db_path", filepath.Join(getDataDir(), "sessions.db"))
	v.SetDefault("poll_interval", 5)
	v.SetDefault("fallback_duration", 180)
	v.SetDefault("expiry_margin", 60)

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables
	v.SetEnvPrefix("SPINLOG")
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		ClientID:         v.GetString("client_id"),
		ClientSecret:     v.GetString("client_secret"),
		RedirectURI:      v.GetString("redirect_uri"),
		ListenAddr:       v.GetString("listen_addr"),
		DBPath:           v.GetString("db_path"),
		PollInterval:     v.GetInt("poll_interval"),
		FallbackDuration: v.GetInt("fallback_duration"),
		ExpiryMargin:     v.GetInt("expiry_margin"),
	}

	return cfg, nil
}

// Validate checks the static configuration the tracker cannot start
// without. Missing Spotify credentials are the only fatal condition.
func (c *Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if c.RedirectURI == "" {
		missing = append(missing, "redirect_uri")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v (set in config.yaml or SPINLOG_* environment)", missing)
	}
	return nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "spinlog")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// getDataDir returns the data directory path
func getDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	dataDir := filepath.Join(homeDir, ".local", "share", "spinlog")
	_ = os.MkdirAll(dataDir, 0755)

	return dataDir
}
