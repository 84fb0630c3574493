package stream

import (
	"github.com/marmos91/nfsinspect/internal/protocol/nfs"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/rpc"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/v3/records"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// EventKind tells what an Event describes.
type EventKind int

const (
	// EventCall is a decoded (or failed) NFSv3 call.
	EventCall EventKind = iota

	// EventReply is a reply paired with a tracked call.
	EventReply

	// EventStreamError is a transport-level problem not tied to a
	// procedure (desync, non-RPC record).
	EventStreamError
)

func (k EventKind) String() string {
	switch k {
	case EventCall:
		return "call"
	case EventReply:
		return "reply"
	default:
		return "stream"
	}
}

// Event is one decoded RPC record.
//
// Record and every byte slice reachable from it borrow the session's
// reassembly buffer and are only valid during the Handler call. Names and
// Handle are owned.
type Event struct {
	Kind      EventKind
	Direction Direction
	XID       uint32
	Procedure uint32

	// Call and Caller are set for calls.
	Call   *rpc.RPCCallMessage
	Caller *nfs.Caller

	// Reply is set for replies.
	Reply *rpc.RPCReplyMessage

	// Handle and Offset come from the tracked call for replies to READ,
	// LOOKUP, CREATE and READDIRPLUS.
	Handle xdr.FileHandle
	Offset uint64

	// Record is the decoded body, nil when decoding failed or the
	// procedure has no decoder.
	Record records.Record

	// Mode is the completeness the body was decoded with.
	Mode records.PayloadMode

	// Err is the decode or stream error, if any. errors.Is matches the
	// xdr sentinels, nfs.ErrUnsupportedProcedure and the stream errors.
	Err error
}

// Handler receives events. It runs synchronously inside Feed or Close.
type Handler func(ev *Event)
