package config

import (
	"strings"

	"github.com/marmos91/nfsinspect/internal/stream"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store-specific defaults are handled by the store factories
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStreamDefaults(&cfg.Stream)
	applyMetricsDefaults(&cfg.Metrics)
	applyOutputDefaults(&cfg.Output)
	applyFileStoreDefaults(&cfg.FileStore)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyStreamDefaults mirrors the session defaults so they show up in
// generated config files.
func applyStreamDefaults(cfg *StreamConfig) {
	if cfg.MaxRecordSize == 0 {
		cfg.MaxRecordSize = stream.DefaultMaxRecordSize
	}
	if cfg.MaxFragmentSize == 0 {
		cfg.MaxFragmentSize = stream.DefaultMaxFragmentSize
	}
	if cfg.PendingCalls == 0 {
		cfg.PendingCalls = stream.DefaultPendingCalls
	}
	if cfg.ReadSize == 0 {
		cfg.ReadSize = 64 << 10 // 64KiB
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyOutputDefaults(cfg *OutputConfig) {
	if cfg.Format == "" {
		cfg.Format = "table"
	}
	cfg.Format = strings.ToLower(cfg.Format)
}

// applyFileStoreDefaults sets file store defaults.
func applyFileStoreDefaults(cfg *FileStoreConfig) {
	if cfg.Type == "" {
		cfg.Type = "none"
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}

	// Apply defaults for the local store types (for config file generation)
	if _, ok := cfg.Memory["max_size"]; !ok {
		cfg.Memory["max_size"] = ByteSize(1 << 30) // 1GiB
	}
	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = "/tmp/nfsinspect-payloads"
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = "/tmp/nfsinspect-badger"
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		FileStore: FileStoreConfig{
			ChunkSize: 64 << 10,
			S3: map[string]any{
				"region":     "us-east-1",
				"bucket":     "",
				"key_prefix": "nfsinspect/",
			},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
