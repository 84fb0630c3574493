package metrics

// Record outcome labels used by DecodeMetrics.RecordRecord.
const (
	StatusOK          = "ok"
	StatusIncomplete  = "incomplete"
	StatusConstraint  = "constraint"
	StatusMalformed   = "malformed"
	StatusUnsupported = "unsupported"
	StatusRejected    = "rejected"
	StatusError       = "error"
)

// DecodeMetrics provides observability for the stream decoder.
//
// Implementations collect per-procedure record counts, payload volume and
// stream health (desyncs, oversized records, unmatched replies). This
// interface is optional - if nil is passed to a stream session, a no-op
// implementation is used with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	m := prometheus.NewDecodeMetrics()
//	session, err := stream.NewSession(stream.Config{Metrics: m}, handler)
//
//	// Without metrics (no-op)
//	session, err := stream.NewSession(stream.Config{}, handler)
type DecodeMetrics interface {
	// RecordRecord counts one RPC record.
	//
	// Parameters:
	//   - direction: "call" or "reply"
	//   - procedure: NFS procedure name (e.g., "LOOKUP", "READ", "WRITE")
	//   - status: one of the Status* constants
	RecordRecord(direction, procedure, status string)

	// RecordPayloadBytes records READ/WRITE payload bytes seen on the wire.
	//
	// Parameters:
	//   - procedure: "READ" or "WRITE"
	//   - bytes: number of payload bytes present in the record
	//   - truncated: whether the record carried only part of its payload
	RecordPayloadBytes(procedure string, bytes int, truncated bool)

	// RecordDesync counts a record-marking desynchronization.
	RecordDesync(direction string)

	// RecordOversizedRecord counts a record that exceeded the size cap and
	// was delivered as a prefix.
	RecordOversizedRecord(direction string)

	// RecordUnmatchedReply counts a reply whose call was never seen or was
	// evicted from the pending-call table.
	RecordUnmatchedReply()

	// RecordEvictedCall counts a pending call dropped to make room.
	RecordEvictedCall()

	// SetPendingCalls reports the current size of the pending-call table.
	SetPendingCalls(count int)
}

// NewNoopDecodeMetrics returns a DecodeMetrics that discards everything.
func NewNoopDecodeMetrics() DecodeMetrics {
	return noopDecodeMetrics{}
}

// noopDecodeMetrics is a no-op implementation of DecodeMetrics with zero overhead.
type noopDecodeMetrics struct{}

func (noopDecodeMetrics) RecordRecord(direction, procedure, status string)               {}
func (noopDecodeMetrics) RecordPayloadBytes(procedure string, bytes int, truncated bool) {}
func (noopDecodeMetrics) RecordDesync(direction string)                                  {}
func (noopDecodeMetrics) RecordOversizedRecord(direction string)                         {}
func (noopDecodeMetrics) RecordUnmatchedReply()                                          {}
func (noopDecodeMetrics) RecordEvictedCall()                                             {}
func (noopDecodeMetrics) SetPendingCalls(count int)                                      {}
