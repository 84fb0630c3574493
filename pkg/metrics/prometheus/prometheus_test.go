package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/marmos91/nfsinspect/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The registry is process-global and promauto panics on duplicate
// registration, so every collector is created exactly once here.
func TestPrometheusMetrics(t *testing.T) {
	metrics.InitRegistry()
	decode, ok := NewDecodeMetrics().(*decodeMetrics)
	require.True(t, ok, "enabled registry must yield the Prometheus implementation")
	store, ok := NewFileStoreMetrics().(*fileStoreMetrics)
	require.True(t, ok)

	t.Run("RecordsByLabel", func(t *testing.T) {
		decode.RecordRecord("call", "WRITE", metrics.StatusOK)
		decode.RecordRecord("call", "WRITE", metrics.StatusOK)
		decode.RecordRecord("reply", "READ", metrics.StatusMalformed)

		assert.Equal(t, 2.0, testutil.ToFloat64(decode.recordsTotal.WithLabelValues("call", "WRITE", "ok")))
		assert.Equal(t, 1.0, testutil.ToFloat64(decode.recordsTotal.WithLabelValues("reply", "READ", "malformed")))
	})

	t.Run("PayloadBytesSplitByTruncation", func(t *testing.T) {
		decode.RecordPayloadBytes("READ", 4096, false)
		decode.RecordPayloadBytes("READ", 100, true)

		assert.Equal(t, 4096.0, testutil.ToFloat64(decode.payloadBytes.WithLabelValues("READ", "false")))
		assert.Equal(t, 100.0, testutil.ToFloat64(decode.payloadBytes.WithLabelValues("READ", "true")))
	})

	t.Run("StreamHealth", func(t *testing.T) {
		decode.RecordDesync("to_server")
		decode.RecordOversizedRecord("to_client")
		decode.RecordUnmatchedReply()
		decode.RecordEvictedCall()
		decode.SetPendingCalls(7)

		assert.Equal(t, 1.0, testutil.ToFloat64(decode.desyncsTotal.WithLabelValues("to_server")))
		assert.Equal(t, 1.0, testutil.ToFloat64(decode.oversizedTotal.WithLabelValues("to_client")))
		assert.Equal(t, 1.0, testutil.ToFloat64(decode.unmatchedReplies))
		assert.Equal(t, 1.0, testutil.ToFloat64(decode.evictedCalls))
		assert.Equal(t, 7.0, testutil.ToFloat64(decode.pendingCallsGauge))
	})

	t.Run("FileStoreOperations", func(t *testing.T) {
		store.ObserveOperation("memory", "put", time.Millisecond, 512, nil)
		store.ObserveOperation("memory", "put", time.Millisecond, 0, errors.New("boom"))

		assert.Equal(t, 1.0, testutil.ToFloat64(store.operationsTotal.WithLabelValues("memory", "put", "success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(store.operationsTotal.WithLabelValues("memory", "put", "error")))
		assert.Equal(t, 512.0, testutil.ToFloat64(store.bytesTotal.WithLabelValues("memory", "put")))
	})
}
