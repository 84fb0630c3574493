// Package prometheus contains Prometheus-backed implementations of the
// interfaces in pkg/metrics.
package prometheus

import (
	"strconv"

	"github.com/marmos91/nfsinspect/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// decodeMetrics is the Prometheus implementation of metrics.DecodeMetrics.
type decodeMetrics struct {
	recordsTotal      *prometheus.CounterVec
	payloadBytes      *prometheus.CounterVec
	desyncsTotal      *prometheus.CounterVec
	oversizedTotal    *prometheus.CounterVec
	unmatchedReplies  prometheus.Counter
	evictedCalls      prometheus.Counter
	pendingCallsGauge prometheus.Gauge
}

// NewDecodeMetrics creates a new Prometheus-backed DecodeMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewDecodeMetrics() metrics.DecodeMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopDecodeMetrics()
	}

	reg := metrics.GetRegistry()

	return &decodeMetrics{
		recordsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsinspect_records_total",
				Help: "Total number of NFS RPC records by direction, procedure and decode status",
			},
			[]string{"direction", "procedure", "status"},
		),
		payloadBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsinspect_payload_bytes_total",
				Help: "Total READ/WRITE payload bytes observed",
			},
			[]string{"procedure", "truncated"},
		),
		desyncsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsinspect_stream_desyncs_total",
				Help: "Total number of record-marking desynchronizations",
			},
			[]string{"direction"},
		),
		oversizedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsinspect_oversized_records_total",
				Help: "Total number of records truncated at the size cap",
			},
			[]string{"direction"},
		),
		unmatchedReplies: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nfsinspect_unmatched_replies_total",
				Help: "Total number of replies without a tracked call",
			},
		),
		evictedCalls: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nfsinspect_evicted_calls_total",
				Help: "Total number of pending calls evicted before their reply",
			},
		),
		pendingCallsGauge: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "nfsinspect_pending_calls",
				Help: "Current number of calls awaiting a reply",
			},
		),
	}
}

func (m *decodeMetrics) RecordRecord(direction, procedure, status string) {
	m.recordsTotal.WithLabelValues(direction, procedure, status).Inc()
}

func (m *decodeMetrics) RecordPayloadBytes(procedure string, bytes int, truncated bool) {
	m.payloadBytes.WithLabelValues(procedure, strconv.FormatBool(truncated)).Add(float64(bytes))
}

func (m *decodeMetrics) RecordDesync(direction string) {
	m.desyncsTotal.WithLabelValues(direction).Inc()
}

func (m *decodeMetrics) RecordOversizedRecord(direction string) {
	m.oversizedTotal.WithLabelValues(direction).Inc()
}

func (m *decodeMetrics) RecordUnmatchedReply() {
	m.unmatchedReplies.Inc()
}

func (m *decodeMetrics) RecordEvictedCall() {
	m.evictedCalls.Inc()
}

func (m *decodeMetrics) SetPendingCalls(count int) {
	m.pendingCallsGauge.Set(float64(count))
}
