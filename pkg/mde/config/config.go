package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// CacheConfig configures the digest cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Config represents the application configuration.
type Config struct {
	Threshold     int           `mapstructure:"threshold"`
	Media         string        `mapstructure:"media"`
	Recursive     bool          `mapstructure:"recursive"`
	IncludeHidden bool          `mapstructure:"include_hidden"`
	Workers       int           `mapstructure:"workers"`
	Cache         CacheConfig   `mapstructure:"cache"`
	Logging       LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/mde/config.yaml
//   - $HOME/.config/mde/config.yaml
//
// Environment variables are prefixed with MDE_ (e.g., MDE_THRESHOLD).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "mde"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "mde"))

	v.SetEnvPrefix("MDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values on a viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("threshold", DefaultThreshold)
	v.SetDefault("media", DefaultMedia)
	v.SetDefault("recursive", DefaultRecursive)
	v.SetDefault("include_hidden", false)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.path", DefaultCachePath())
	v.SetDefault("logging.level", DefaultLogLevel)
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold cannot be negative: %d", c.Threshold)
	}
	switch c.Media {
	case "all", "images", "videos":
	default:
		return fmt.Errorf("invalid media filter %q (want all, images, or videos)", c.Media)
	}
	return nil
}

// DefaultCachePath returns the digest cache location under the user's
// XDG cache directory.
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, "mde", "digests")
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "mde"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "mde"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a commented default config file if none exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	// Check if config file already exists
	if _, err := os.Stat(configPath); err == nil {
		// Config file exists, do nothing
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# mde Duplicate Eraser Configuration

# Maximum Hamming distance (in bits) between perceptual fingerprints
# for two media files to count as duplicates
threshold: %d

# Media filter applied when scanning: all, images, or videos
media: %s

# Descend into subdirectories
recursive: %t

# Include hidden (dot-prefixed) files and directories
include_hidden: false

# Hashing worker count; 0 selects a value based on the CPU count
workers: %d

# Digest cache configuration
cache:
  enabled: %t
  path: %s

# Logging configuration
logging:
  level: %s
`, DefaultThreshold, DefaultMedia, DefaultRecursive, DefaultWorkers,
		DefaultCacheEnabled, DefaultCachePath(), DefaultLogLevel)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
