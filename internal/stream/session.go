package stream

import (
	"encoding/binary"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/marmos91/nfsinspect/internal/logger"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/rpc"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/v3/records"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
	"github.com/marmos91/nfsinspect/pkg/metrics"
)

var (
	// ErrDesync reports a record-marking header that cannot be right.
	ErrDesync = errors.New("stream: record marking out of sync")

	// ErrNotRPC reports a record that is neither an RPC call nor a reply.
	ErrNotRPC = errors.New("stream: not an RPC message")

	// ErrUnmatchedReply reports a reply whose call was not tracked.
	ErrUnmatchedReply = errors.New("stream: reply without a tracked call")

	// ErrRPCRejected reports a reply that was denied or not accepted with
	// SUCCESS, so it carries no NFS results.
	ErrRPCRejected = errors.New("stream: rpc call not successful")
)

// Defaults applied by NewSession for zero Config fields.
const (
	DefaultMaxRecordSize   = 1 << 20
	DefaultMaxFragmentSize = 16 << 20
	DefaultPendingCalls    = 4096
)

// rpcPrefixSize covers the XID and message type shared by calls and replies.
const rpcPrefixSize = 8

// Direction identifies which peer sent a chunk.
type Direction int

const (
	ToServer Direction = iota
	ToClient
)

func (d Direction) String() string {
	if d == ToClient {
		return "to_client"
	}
	return "to_server"
}

// Config bounds the memory a session may use.
type Config struct {
	// MaxRecordSize caps how much of one RPC record is buffered.
	MaxRecordSize uint32

	// MaxFragmentSize is the largest fragment length accepted before the
	// stream is considered out of sync.
	MaxFragmentSize uint32

	// PendingCalls is the capacity of the XID correlation table.
	PendingCalls int

	// Metrics receives decode counters. nil disables metrics.
	Metrics metrics.DecodeMetrics
}

func (c *Config) applyDefaults() {
	if c.MaxRecordSize == 0 {
		c.MaxRecordSize = DefaultMaxRecordSize
	}
	if c.MaxFragmentSize == 0 {
		c.MaxFragmentSize = DefaultMaxFragmentSize
	}
	if c.PendingCalls <= 0 {
		c.PendingCalls = DefaultPendingCalls
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewNoopDecodeMetrics()
	}
}

// Stats are running totals for a session.
type Stats struct {
	Records   uint64 `json:"records" yaml:"records"`
	Calls     uint64 `json:"calls" yaml:"calls"`
	Replies   uint64 `json:"replies" yaml:"replies"`
	Decoded   uint64 `json:"decoded" yaml:"decoded"`
	Errors    uint64 `json:"errors" yaml:"errors"`
	Desyncs   uint64 `json:"desyncs" yaml:"desyncs"`
	Oversized uint64 `json:"oversized" yaml:"oversized"`
	Unmatched uint64 `json:"unmatched" yaml:"unmatched"`
	Rejected  uint64 `json:"rejected" yaml:"rejected"`
	Evicted   uint64 `json:"evicted" yaml:"evicted"`
}

// pendingCall is what a reply needs from its call. The handle is an owned
// copy because the call's buffer is reused before the reply arrives.
type pendingCall struct {
	procedure uint32
	handle    xdr.FileHandle
	offset    uint64
}

// assembler is the record-marking state of one direction.
type assembler struct {
	dir Direction

	header    [rpc.FragmentHeaderSize]byte
	headerLen int

	inFragment bool
	fragLeft   uint32
	last       bool

	buf      []byte
	n        int
	overflow bool
}

func (a *assembler) reset() {
	putBuffer(a.buf)
	*a = assembler{dir: a.dir}
}

// Session decodes one NFS-over-TCP connection.
type Session struct {
	cfg     Config
	handler Handler
	pending *lru.Cache[uint32, pendingCall]
	dirs    [2]assembler
	stats   Stats
}

// NewSession creates a session that reports every decoded record to handler.
func NewSession(cfg Config, handler Handler) (*Session, error) {
	cfg.applyDefaults()

	pending, err := lru.New[uint32, pendingCall](cfg.PendingCalls)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending-call table: %w", err)
	}
	if handler == nil {
		handler = func(*Event) {}
	}

	s := &Session{cfg: cfg, handler: handler, pending: pending}
	s.dirs[ToServer].dir = ToServer
	s.dirs[ToClient].dir = ToClient
	return s, nil
}

// Stats returns the session's running totals.
func (s *Session) Stats() Stats {
	return s.stats
}

// Feed appends bytes observed in one direction. Events for every record
// completed by chunk are delivered before Feed returns. chunk is not
// retained.
func (s *Session) Feed(dir Direction, chunk []byte) {
	if dir != ToServer && dir != ToClient {
		return
	}
	a := &s.dirs[dir]

	for len(chunk) > 0 {
		if !a.inFragment {
			k := copy(a.header[a.headerLen:], chunk)
			a.headerLen += k
			chunk = chunk[k:]
			if a.headerLen < rpc.FragmentHeaderSize {
				return
			}
			a.headerLen = 0

			length, last := rpc.ParseFragmentHeader(binary.BigEndian.Uint32(a.header[:]))
			if length > s.cfg.MaxFragmentSize || (length == 0 && !last) {
				s.desync(a, length)
				return
			}
			if length == 0 {
				s.finishRecord(a)
				continue
			}
			a.inFragment, a.fragLeft, a.last = true, length, last
		}

		take := a.fragLeft
		if uint64(take) > uint64(len(chunk)) {
			take = uint32(len(chunk))
		}
		s.collect(a, chunk[:take])
		chunk = chunk[take:]
		a.fragLeft -= take

		if a.fragLeft == 0 {
			a.inFragment = false
			if a.last {
				s.finishRecord(a)
			}
		}
	}
}

// Close delivers any record cut off by the end of the capture as a
// fragment, then releases the session's buffers.
func (s *Session) Close() Stats {
	for i := range s.dirs {
		a := &s.dirs[i]
		if a.n > 0 && !a.overflow {
			s.deliver(a.dir, a.buf[:a.n], records.PayloadFragment)
		}
		a.reset()
	}
	s.pending.Purge()
	s.cfg.Metrics.SetPendingCalls(0)
	return s.stats
}

// collect appends fragment bytes to the current record, honouring the
// record size cap.
func (s *Session) collect(a *assembler, p []byte) {
	if a.overflow || len(p) == 0 {
		return
	}

	room := int(s.cfg.MaxRecordSize) - a.n
	overflow := len(p) > room
	if overflow {
		p = p[:room]
	}

	a.buf = growBuffer(a.buf, a.n, uint32(a.n+len(p)))
	a.n += copy(a.buf[a.n:], p)

	if overflow {
		a.overflow = true
		s.stats.Oversized++
		s.cfg.Metrics.RecordOversizedRecord(a.dir.String())
		logger.Debug("Record exceeds %d bytes (%s), decoding prefix", s.cfg.MaxRecordSize, a.dir)
		s.deliver(a.dir, a.buf[:a.n], records.PayloadFragment)
	}
}

func (s *Session) finishRecord(a *assembler) {
	if !a.overflow {
		s.deliver(a.dir, a.buf[:a.n], records.PayloadComplete)
	}
	a.n = 0
	a.overflow = false
}

func (s *Session) desync(a *assembler, length uint32) {
	s.stats.Desyncs++
	s.cfg.Metrics.RecordDesync(a.dir.String())
	logger.Warn("Record marking out of sync (%s): fragment length %d", a.dir, length)

	s.emit(&Event{
		Kind:      EventStreamError,
		Direction: a.dir,
		Err:       fmt.Errorf("%w: fragment length %d", ErrDesync, length),
	})
	a.reset()
}

// ============================================================================
// Record Handling
// ============================================================================

func (s *Session) deliver(dir Direction, msg []byte, mode records.PayloadMode) {
	s.stats.Records++

	if len(msg) < rpcPrefixSize {
		s.emit(&Event{
			Kind:      EventStreamError,
			Direction: dir,
			Mode:      mode,
			Err:       fmt.Errorf("%w: %d-byte record", ErrNotRPC, len(msg)),
		})
		return
	}

	switch msgType := binary.BigEndian.Uint32(msg[4:]); msgType {
	case rpc.RPCCall:
		s.handleCall(dir, msg, mode)
	case rpc.RPCReply:
		s.handleReply(dir, msg, mode)
	default:
		s.emit(&Event{
			Kind:      EventStreamError,
			Direction: dir,
			XID:       binary.BigEndian.Uint32(msg),
			Mode:      mode,
			Err:       fmt.Errorf("%w: message type %d", ErrNotRPC, msgType),
		})
	}
}

func (s *Session) handleCall(dir Direction, msg []byte, mode records.PayloadMode) {
	s.stats.Calls++

	call, err := rpc.ReadCall(msg)
	if err != nil {
		s.emit(&Event{Kind: EventCall, Direction: dir, XID: binary.BigEndian.Uint32(msg), Mode: mode, Err: err})
		return
	}
	if !call.IsNFSv3() {
		logger.Debug("Skipping RPC call xid=0x%x program=%d version=%d", call.XID, call.Program, call.Version)
		return
	}

	ev := &Event{
		Kind:      EventCall,
		Direction: dir,
		XID:       call.XID,
		Procedure: call.Procedure,
		Call:      call,
		Caller:    nfs.ExtractCaller(call),
		Mode:      mode,
	}

	args, err := rpc.ReadData(msg)
	if err == nil {
		ev.Record, _, err = nfs.DecodeCall(call.Procedure, args, mode)
	}
	ev.Err = err

	s.track(call, ev.Record)
	s.emit(ev)
}

func (s *Session) track(call *rpc.RPCCallMessage, rec records.Record) {
	pc := pendingCall{procedure: call.Procedure}
	switch r := rec.(type) {
	case *records.ReadRequest:
		pc.handle, pc.offset = r.Handle.Clone(), r.Offset
	case *records.LookupRequest:
		pc.handle = r.Handle.Clone()
	case *records.CreateRequest:
		pc.handle = r.Handle.Clone()
	case *records.ReaddirplusRequest:
		pc.handle = r.Handle.Clone()
	}

	if s.pending.Add(call.XID, pc) {
		s.stats.Evicted++
		s.cfg.Metrics.RecordEvictedCall()
	}
	s.cfg.Metrics.SetPendingCalls(s.pending.Len())
}

func (s *Session) handleReply(dir Direction, msg []byte, mode records.PayloadMode) {
	s.stats.Replies++

	reply, body, err := rpc.ReadReply(msg)
	if err != nil {
		s.emit(&Event{Kind: EventReply, Direction: dir, XID: binary.BigEndian.Uint32(msg), Mode: mode, Err: err})
		return
	}

	pc, ok := s.pending.Peek(reply.XID)
	if !ok {
		s.stats.Unmatched++
		s.cfg.Metrics.RecordUnmatchedReply()
		s.emit(&Event{Kind: EventReply, Direction: dir, XID: reply.XID, Reply: reply, Mode: mode, Err: ErrUnmatchedReply})
		return
	}
	s.pending.Remove(reply.XID)
	s.cfg.Metrics.SetPendingCalls(s.pending.Len())

	ev := &Event{
		Kind:      EventReply,
		Direction: dir,
		XID:       reply.XID,
		Procedure: pc.procedure,
		Reply:     reply,
		Handle:    pc.handle,
		Offset:    pc.offset,
		Mode:      mode,
	}
	if reply.Succeeded() {
		ev.Record, _, ev.Err = nfs.DecodeReply(pc.procedure, body, mode)
	} else {
		ev.Err = fmt.Errorf("%w: %s", ErrRPCRejected, reply)
	}
	s.emit(ev)
}

// emit updates counters, logs the outcome and hands the event to the
// handler.
func (s *Session) emit(ev *Event) {
	status := StatusOf(ev.Err)
	procedure := types.ProcedureName(ev.Procedure)

	switch {
	case ev.Kind == EventStreamError:
		s.stats.Errors++
	case errors.Is(ev.Err, ErrUnmatchedReply):
		logger.Debug("Reply xid=0x%x has no tracked call", ev.XID)
	case status == metrics.StatusOK:
		s.stats.Decoded++
		s.cfg.Metrics.RecordRecord(ev.Kind.String(), procedure, status)
		s.recordPayload(ev.Record)
		logger.Debug("%s %s xid=0x%x (%s)", procedure, ev.Kind, ev.XID, ev.Mode)
	case status == metrics.StatusUnsupported:
		s.cfg.Metrics.RecordRecord(ev.Kind.String(), procedure, status)
		logger.Debug("%s %s xid=0x%x not decoded", procedure, ev.Kind, ev.XID)
	case status == metrics.StatusRejected:
		s.stats.Rejected++
		s.cfg.Metrics.RecordRecord(ev.Kind.String(), procedure, status)
		logger.Debug("%s %s: %v", procedure, ev.Kind, ev.Err)
	default:
		s.stats.Errors++
		s.cfg.Metrics.RecordRecord(ev.Kind.String(), procedure, status)
		logger.Warn("%s %s xid=0x%x: %v", procedure, ev.Kind, ev.XID, ev.Err)
	}

	s.handler(ev)
}

func (s *Session) recordPayload(rec records.Record) {
	switch r := rec.(type) {
	case *records.WriteRequest:
		s.cfg.Metrics.RecordPayloadBytes("WRITE", len(r.Data), r.Truncated)
	case *records.ReadReply:
		s.cfg.Metrics.RecordPayloadBytes("READ", len(r.Data), r.Truncated)
	}
}

// StatusOf maps a decode error to one of the metrics.Status* labels.
func StatusOf(err error) string {
	if err == nil {
		return metrics.StatusOK
	}
	if errors.Is(err, nfs.ErrUnsupportedProcedure) {
		return metrics.StatusUnsupported
	}
	if errors.Is(err, ErrRPCRejected) {
		return metrics.StatusRejected
	}
	switch xdr.KindOf(err) {
	case xdr.KindIncomplete:
		return metrics.StatusIncomplete
	case xdr.KindConstraint:
		return metrics.StatusConstraint
	case xdr.KindMalformed:
		return metrics.StatusMalformed
	default:
		return metrics.StatusError
	}
}
