package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete drivestore configuration.
//
// This structure captures all configurable aspects of the drivestore server
// including:
//   - Logging configuration
//   - HTTP server settings
//   - Metadata store selection and configuration (store-specific)
//   - Blob store selection and configuration (store-specific)
//   - Authentication settings (JWKS)
//   - Upload limits
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DRIVESTORE_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration type and factory
// function. The Config struct contains type-specific sections (e.g.
// metadata.memory, metadata.badger) and only the section matching the
// selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains HTTP server settings
	Server ServerConfig `mapstructure:"server"`

	// Metadata specifies the metadata store type and type-specific configuration
	Metadata MetadataConfig `mapstructure:"metadata"`

	// Blob specifies the blob store type and type-specific configuration
	Blob BlobConfig `mapstructure:"blob"`

	// Auth contains token verification settings
	Auth AuthConfig `mapstructure:"auth"`

	// Upload contains upload limits
	Upload UploadConfig `mapstructure:"upload"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the host:port the HTTP server binds to
	ListenAddress string `mapstructure:"listen_address" validate:"required"`

	// ReadTimeout bounds how long reading a request may take
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"required,gt=0"`

	// WriteTimeout bounds how long writing a response may take
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"required,gt=0"`

	// IdleTimeout bounds how long idle keep-alive connections are held
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"required,gt=0"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`

	// RedeemRateLimit throttles the public share redemption endpoint,
	// in requests per second. Zero disables the limit.
	RedeemRateLimit uint `mapstructure:"redeem_rate_limit"`

	// RedeemRateBurst is the redemption limiter's burst capacity
	RedeemRateBurst uint `mapstructure:"redeem_rate_burst"`
}

// MetadataConfig specifies metadata store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type MetadataConfig struct {
	// Type specifies which metadata store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// BlobConfig specifies blob store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type BlobConfig struct {
	// Type specifies which blob store implementation to use
	// Valid values: memory, s3
	Type string `mapstructure:"type" validate:"required,oneof=memory s3"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// AuthConfig contains token verification settings.
type AuthConfig struct {
	// JWKSURL is the JSON Web Key Set endpoint used to verify access
	// tokens. Required in production; when empty the server refuses to
	// start (there is no unauthenticated mode).
	JWKSURL string `mapstructure:"jwks_url" validate:"omitempty,url"`

	// Issuer, when set, is the required token issuer claim
	Issuer string `mapstructure:"issuer"`

	// Leeway is the clock skew tolerated when checking token expiry
	Leeway time.Duration `mapstructure:"leeway" validate:"gte=0"`
}

// UploadConfig contains upload limits.
type UploadConfig struct {
	// MaxSizeBytes is the largest accepted upload
	MaxSizeBytes int64 `mapstructure:"max_size_bytes" validate:"required,gt=0"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DRIVESTORE_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Set up environment variable support
	// Environment variables use DRIVESTORE_ prefix and underscores
	// Example: DRIVESTORE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DRIVESTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/drivestore/config.{yaml,toml}
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml") // Primary format
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// Check if error is "config file not found". Viper reports this
		// differently depending on whether the file was searched for or
		// named explicitly.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		// Other errors are problems
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	// Check XDG_CONFIG_HOME
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "drivestore")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, use current directory as last resort
		return "."
	}

	return filepath.Join(home, ".config", "drivestore")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
