package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete nfsinspect configuration.
//
// This structure captures all configurable aspects of a decode run:
//   - Logging configuration
//   - Stream reassembly and correlation limits
//   - Metrics server settings
//   - Output format for CLI listings
//   - Payload file store selection and configuration (store-specific)
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (NFSINSPECT_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each file store implementation defines its own options. The FileStore
// section holds one map per type and only the map matching Type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Stream bounds record reassembly and call tracking
	Stream StreamConfig `mapstructure:"stream" yaml:"stream"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Output controls how the CLI prints tables
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	// FileStore selects where READ/WRITE payloads are persisted
	FileStore FileStoreConfig `mapstructure:"filestore" yaml:"filestore"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// StreamConfig bounds the memory used per decoded connection.
type StreamConfig struct {
	// MaxRecordSize caps how much of one RPC record is buffered. Larger
	// records are decoded from their prefix.
	MaxRecordSize ByteSize `mapstructure:"max_record_size" yaml:"max_record_size"`

	// MaxFragmentSize is the largest fragment length accepted before the
	// byte stream is treated as out of sync.
	MaxFragmentSize ByteSize `mapstructure:"max_fragment_size" yaml:"max_fragment_size"`

	// PendingCalls is the number of calls remembered while awaiting replies
	PendingCalls int `mapstructure:"pending_calls" yaml:"pending_calls" validate:"gt=0"`

	// ReadSize is how many bytes of a capture file are fed per step
	ReadSize ByteSize `mapstructure:"read_size" yaml:"read_size"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled starts the metrics HTTP server during decode runs
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for /metrics
	Port int `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`
}

// OutputConfig controls CLI output.
type OutputConfig struct {
	// Format is the default output format
	// Valid values: table, json, yaml
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=table json yaml"`
}

// FileStoreConfig specifies the payload store.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type FileStoreConfig struct {
	// Type specifies which store implementation to use
	// Valid values: none, memory, filesystem, badger, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=none memory filesystem badger s3"`

	// ChunkSize splits payloads into chunks of at most this many bytes.
	// 0 stores each payload whole.
	ChunkSize ByteSize `mapstructure:"chunk_size" yaml:"chunk_size"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory,omitempty"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// envKeys are bound explicitly so environment variables apply even when no
// config file defines the key.
var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"stream.max_record_size",
	"stream.max_fragment_size",
	"stream.pending_calls",
	"stream.read_size",
	"metrics.enabled",
	"metrics.port",
	"output.format",
	"filestore.type",
	"filestore.chunk_size",
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (NFSINSPECT_*)
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
	if err := v.Unmarshal(&cfg, viper.DecodeHook(byteSizeDecodeHook())); err != nil {
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
	// Environment variables use NFSINSPECT_ prefix and underscores
	// Example: NFSINSPECT_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("NFSINSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/nfsinspect/config.{yaml,toml}
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml") // Primary format
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		// Explicit config path that doesn't exist
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "nfsinspect")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "nfsinspect")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
