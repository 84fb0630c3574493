package config

import (
	"github.com/marmos91/nfsinspect/pkg/metrics"
	promMetrics "github.com/marmos91/nfsinspect/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// DecodeMetrics is passed to stream sessions (never nil, uses noop if disabled)
	DecodeMetrics metrics.DecodeMetrics

	// FileStoreMetrics wraps the payload store (never nil, uses noop if disabled)
	FileStoreMetrics metrics.FileStoreMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed metrics instances for all components
//
// stats, when non-nil, backs the server's /stats endpoint.
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
func InitializeMetrics(cfg *Config, stats func() any) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			DecodeMetrics:    metrics.NewNoopDecodeMetrics(),
			FileStoreMetrics: metrics.NewNoopFileStoreMetrics(),
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port:  cfg.Metrics.Port,
		Stats: stats,
	})

	return &MetricsResult{
		Server:           server,
		DecodeMetrics:    promMetrics.NewDecodeMetrics(),
		FileStoreMetrics: promMetrics.NewFileStoreMetrics(),
	}
}
