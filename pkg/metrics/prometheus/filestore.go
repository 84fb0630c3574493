package prometheus

import (
	"time"

	"github.com/marmos91/nfsinspect/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// fileStoreMetrics is the Prometheus implementation of metrics.FileStoreMetrics.
type fileStoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
}

// NewFileStoreMetrics creates a new Prometheus-backed FileStoreMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled.
func NewFileStoreMetrics() metrics.FileStoreMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopFileStoreMetrics()
	}

	reg := metrics.GetRegistry()

	return &fileStoreMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsinspect_filestore_operations_total",
				Help: "Total number of payload store operations by store, operation and status",
			},
			[]string{"store", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nfsinspect_filestore_operation_duration_seconds",
				Help: "Duration of payload store operations in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.1,   // 100ms
					1.0,   // 1s
					10.0,  // 10s
				},
			},
			[]string{"store", "operation"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsinspect_filestore_bytes_total",
				Help: "Total payload bytes moved through the store",
			},
			[]string{"store", "operation"},
		),
	}
}

func (m *fileStoreMetrics) ObserveOperation(store, operation string, duration time.Duration, bytes int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(store, operation, status).Inc()
	m.operationDuration.WithLabelValues(store, operation).Observe(duration.Seconds())
	if bytes > 0 {
		m.bytesTotal.WithLabelValues(store, operation).Add(float64(bytes))
	}
}
