package stream

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/marmos91/nfsinspect/internal/protocol/nfs"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/rpc"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/v3/records"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr/xdrtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

var testFH = []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x00, 0x00, 0x2a}

// seen is a snapshot of an Event taken inside the handler, since the
// event's views do not outlive the call.
type seen struct {
	kind      EventKind
	xid       uint32
	procedure uint32
	record    string
	data      []byte
	truncated bool
	handle    []byte
	offset    uint64
	caller    *nfs.Caller
	mode      records.PayloadMode
	err       error
}

func collect(out *[]seen) Handler {
	return func(ev *Event) {
		s := seen{
			kind:      ev.Kind,
			xid:       ev.XID,
			procedure: ev.Procedure,
			handle:    bytes.Clone(ev.Handle.Value),
			offset:    ev.Offset,
			caller:    ev.Caller,
			mode:      ev.Mode,
			err:       ev.Err,
		}
		switch r := ev.Record.(type) {
		case *records.WriteRequest:
			s.record, s.data, s.truncated = "write", bytes.Clone(r.Data), r.Truncated
		case *records.ReadReply:
			s.record, s.data, s.truncated = "read-reply", bytes.Clone(r.Data), r.Truncated
		case *records.ReadRequest:
			s.record = "read"
		case *records.GetAttrRequest:
			s.record = "getattr"
		case *records.LookupReply:
			s.record = "lookup-reply"
		}
		*out = append(*out, s)
	}
}

func newSession(t *testing.T, cfg Config) (*Session, *[]seen) {
	t.Helper()
	var events []seen
	s, err := NewSession(cfg, collect(&events))
	require.NoError(t, err)
	return s, &events
}

func callWithCred(xid, program, proc uint32, cred rpc.OpaqueAuth, args []byte) []byte {
	return xdrtest.New().XDR(&rpc.RPCCallMessage{
		XID:        xid,
		MsgType:    rpc.RPCCall,
		RPCVersion: rpc.RPCVersion,
		Program:    program,
		Version:    rpc.NFSVersion3,
		Procedure:  proc,
		Cred:       cred,
		Verf:       rpc.OpaqueAuth{Flavor: rpc.AuthNull, Body: []byte{}},
	}).Raw(args).Bytes()
}

func call(xid, proc uint32, args []byte) []byte {
	return callWithCred(xid, rpc.ProgramNFS, proc, rpc.OpaqueAuth{Flavor: rpc.AuthNull, Body: []byte{}}, args)
}

func reply(xid uint32, results []byte) []byte {
	return xdrtest.New().
		Uint32(xid).Uint32(rpc.RPCReply).Uint32(rpc.RPCMsgAccepted).
		Uint32(rpc.AuthNull).Uint32(0).
		Uint32(rpc.RPCSuccess).
		Raw(results).
		Bytes()
}

func getattrArgs() []byte {
	return xdrtest.New().Handle(testFH).Bytes()
}

func readArgs(offset uint64, count uint32) []byte {
	return xdrtest.New().Handle(testFH).Uint64(offset).Uint32(count).Bytes()
}

func writeArgs(payload []byte) []byte {
	return xdrtest.New().
		Handle(testFH).Uint64(0).
		Uint32(uint32(len(payload))).Uint32(types.WriteUnstable).
		Data(payload).
		Bytes()
}

func last(body []byte) []byte {
	return xdrtest.RecordMark(body, true)
}

// ============================================================================
// Record Marking Tests
// ============================================================================

func TestRecordMarking(t *testing.T) {
	t.Run("SingleRecord", func(t *testing.T) {
		s, events := newSession(t, Config{})
		s.Feed(ToServer, last(call(1, types.NFSProcGetAttr, getattrArgs())))

		require.Len(t, *events, 1)
		ev := (*events)[0]
		assert.Equal(t, EventCall, ev.kind)
		assert.Equal(t, "getattr", ev.record)
		assert.Equal(t, records.PayloadComplete, ev.mode)
		assert.NoError(t, ev.err)
		assert.Equal(t, uint64(1), s.Stats().Decoded)
	})

	t.Run("ByteAtATime", func(t *testing.T) {
		s, events := newSession(t, Config{})
		for _, b := range last(call(2, types.NFSProcGetAttr, getattrArgs())) {
			s.Feed(ToServer, []byte{b})
		}
		require.Len(t, *events, 1)
		assert.Equal(t, uint32(2), (*events)[0].xid)
	})

	t.Run("MultipleRecordsInOneChunk", func(t *testing.T) {
		s, events := newSession(t, Config{})
		chunk := append(last(call(1, types.NFSProcGetAttr, getattrArgs())),
			last(call(2, types.NFSProcGetAttr, getattrArgs()))...)
		s.Feed(ToServer, chunk)

		require.Len(t, *events, 2)
		assert.Equal(t, uint32(1), (*events)[0].xid)
		assert.Equal(t, uint32(2), (*events)[1].xid)
	})

	t.Run("MultiFragmentRecord", func(t *testing.T) {
		s, events := newSession(t, Config{})
		body := call(3, types.NFSProcWrite, writeArgs([]byte("fragmented payload")))

		s.Feed(ToServer, xdrtest.RecordMark(body[:20], false))
		assert.Empty(t, *events)
		s.Feed(ToServer, xdrtest.RecordMark(body[20:], true))

		require.Len(t, *events, 1)
		assert.Equal(t, "write", (*events)[0].record)
		assert.Equal(t, []byte("fragmented payload"), (*events)[0].data)
	})

	t.Run("DirectionsAreIndependent", func(t *testing.T) {
		s, events := newSession(t, Config{})
		c := last(call(4, types.NFSProcRead, readArgs(0, 4)))
		r := last(reply(4, xdrtest.New().Uint32(types.NFS3OK).Uint32(0).Zeros(types.FileAttrSize).Uint32(4).Uint32(1).Data([]byte("abcd")).Bytes()))

		s.Feed(ToServer, c[:10])
		s.Feed(ToClient, r[:6])
		s.Feed(ToServer, c[10:])
		s.Feed(ToClient, r[6:])

		require.Len(t, *events, 2)
		assert.Equal(t, EventCall, (*events)[0].kind)
		assert.Equal(t, EventReply, (*events)[1].kind)
		assert.Equal(t, []byte("abcd"), (*events)[1].data)
	})
}

func TestOversizedRecord(t *testing.T) {
	s, events := newSession(t, Config{MaxRecordSize: 256})
	payload := bytes.Repeat([]byte{0x42}, 1000)

	chunk := append(last(call(1, types.NFSProcWrite, writeArgs(payload))),
		last(call(2, types.NFSProcGetAttr, getattrArgs()))...)
	s.Feed(ToServer, chunk)

	require.Len(t, *events, 2)
	w := (*events)[0]
	assert.Equal(t, "write", w.record)
	assert.Equal(t, records.PayloadFragment, w.mode)
	assert.True(t, w.truncated)
	assert.NotEmpty(t, w.data)
	assert.Less(t, len(w.data), len(payload))
	assert.Equal(t, payload[:len(w.data)], w.data)

	assert.Equal(t, "getattr", (*events)[1].record, "stream stays in sync after an oversized record")
	assert.Equal(t, uint64(1), s.Stats().Oversized)
}

func TestDesync(t *testing.T) {
	t.Run("HugeFragmentLength", func(t *testing.T) {
		s, events := newSession(t, Config{MaxFragmentSize: 1 << 20})
		s.Feed(ToServer, []byte{0x7f, 0xff, 0xff, 0xff, 1, 2, 3})

		require.Len(t, *events, 1)
		assert.Equal(t, EventStreamError, (*events)[0].kind)
		assert.ErrorIs(t, (*events)[0].err, ErrDesync)
		assert.Equal(t, uint64(1), s.Stats().Desyncs)

		s.Feed(ToServer, last(call(5, types.NFSProcGetAttr, getattrArgs())))
		require.Len(t, *events, 2)
		assert.Equal(t, "getattr", (*events)[1].record)
	})

	t.Run("EmptyNonFinalFragment", func(t *testing.T) {
		s, events := newSession(t, Config{})
		s.Feed(ToServer, []byte{0, 0, 0, 0})

		require.Len(t, *events, 1)
		assert.ErrorIs(t, (*events)[0].err, ErrDesync)
	})

	t.Run("NotAnRPCMessage", func(t *testing.T) {
		s, events := newSession(t, Config{})
		s.Feed(ToServer, last(xdrtest.New().Uint32(9).Uint32(5).Bytes()))

		require.Len(t, *events, 1)
		assert.ErrorIs(t, (*events)[0].err, ErrNotRPC)
		assert.Equal(t, uint32(9), (*events)[0].xid)
	})

	t.Run("TinyRecord", func(t *testing.T) {
		s, events := newSession(t, Config{})
		s.Feed(ToServer, last([]byte{1, 2}))

		require.Len(t, *events, 1)
		assert.ErrorIs(t, (*events)[0].err, ErrNotRPC)
	})
}

// ============================================================================
// Call/Reply Correlation Tests
// ============================================================================

func TestCorrelation(t *testing.T) {
	t.Run("ReadReplyCarriesCallContext", func(t *testing.T) {
		s, events := newSession(t, Config{})
		s.Feed(ToServer, last(call(7, types.NFSProcRead, readArgs(4096, 10))))

		results := xdrtest.New().
			Uint32(types.NFS3OK).
			Uint32(0).Zeros(types.FileAttrSize).
			Uint32(10).Uint32(1).
			Data([]byte("0123456789")).
			Bytes()
		s.Feed(ToClient, last(reply(7, results)))

		require.Len(t, *events, 2)
		r := (*events)[1]
		assert.Equal(t, EventReply, r.kind)
		assert.Equal(t, uint32(types.NFSProcRead), r.procedure)
		assert.Equal(t, "read-reply", r.record)
		assert.Equal(t, []byte("0123456789"), r.data)
		assert.Equal(t, testFH, r.handle)
		assert.Equal(t, uint64(4096), r.offset)
	})

	t.Run("ReplyWithoutCall", func(t *testing.T) {
		s, events := newSession(t, Config{})
		s.Feed(ToClient, last(reply(99, nil)))

		require.Len(t, *events, 1)
		assert.ErrorIs(t, (*events)[0].err, ErrUnmatchedReply)
		assert.Equal(t, uint64(1), s.Stats().Unmatched)
	})

	t.Run("ReplyMatchesOnlyOnce", func(t *testing.T) {
		s, events := newSession(t, Config{})
		s.Feed(ToServer, last(call(8, types.NFSProcGetAttr, getattrArgs())))
		s.Feed(ToClient, last(reply(8, nil)))
		s.Feed(ToClient, last(reply(8, nil)))

		require.Len(t, *events, 3)
		assert.ErrorIs(t, (*events)[1].err, nfs.ErrUnsupportedProcedure)
		assert.ErrorIs(t, (*events)[2].err, ErrUnmatchedReply)
	})

	t.Run("OldestCallIsEvicted", func(t *testing.T) {
		s, events := newSession(t, Config{PendingCalls: 2})
		for xid := uint32(1); xid <= 3; xid++ {
			s.Feed(ToServer, last(call(xid, types.NFSProcGetAttr, getattrArgs())))
		}
		s.Feed(ToClient, last(reply(1, nil)))

		assert.Equal(t, uint64(1), s.Stats().Evicted)
		assert.ErrorIs(t, (*events)[len(*events)-1].err, ErrUnmatchedReply)
	})

	t.Run("GarbageArgsReplyIsRejected", func(t *testing.T) {
		s, events := newSession(t, Config{})
		s.Feed(ToServer, last(call(11, types.NFSProcRead, readArgs(0, 4))))
		s.Feed(ToClient, last(xdrtest.New().
			Uint32(11).Uint32(rpc.RPCReply).Uint32(rpc.RPCMsgAccepted).
			Uint32(rpc.AuthNull).Uint32(0).
			Uint32(rpc.RPCGarbageArgs).
			Bytes()))

		require.Len(t, *events, 2)
		assert.ErrorIs(t, (*events)[1].err, ErrRPCRejected)
		assert.Equal(t, "rejected", StatusOf((*events)[1].err))

		stats := s.Stats()
		assert.Equal(t, uint64(1), stats.Rejected)
		assert.Equal(t, uint64(1), stats.Decoded, "only the call decoded")
		assert.Zero(t, stats.Errors)
	})

	t.Run("DeniedReplyIsRejected", func(t *testing.T) {
		s, events := newSession(t, Config{})
		s.Feed(ToServer, last(call(12, types.NFSProcRead, readArgs(0, 4))))
		s.Feed(ToClient, last(xdrtest.New().
			Uint32(12).Uint32(rpc.RPCReply).Uint32(rpc.RPCMsgDenied).
			Uint32(rpc.RPCAuthError).Uint32(1).
			Bytes()))

		require.Len(t, *events, 2)
		assert.ErrorIs(t, (*events)[1].err, ErrRPCRejected)
		assert.Equal(t, uint64(1), s.Stats().Rejected)
		assert.Equal(t, uint64(1), s.Stats().Decoded)
	})

	t.Run("LookupReplyDecodes", func(t *testing.T) {
		s, events := newSession(t, Config{})
		args := xdrtest.New().Handle(testFH).Name("file.txt").Bytes()
		s.Feed(ToServer, last(call(10, types.NFSProcLookup, args)))
		s.Feed(ToClient, last(reply(10, xdrtest.New().Uint32(types.NFS3OK).Handle([]byte{1, 2, 3, 4}).Bytes())))

		require.Len(t, *events, 2)
		assert.Equal(t, "lookup-reply", (*events)[1].record)
		assert.Equal(t, testFH, (*events)[1].handle, "directory handle from the call")
	})
}

// ============================================================================
// Call Handling Tests
// ============================================================================

func TestCalls(t *testing.T) {
	t.Run("ExtractsUnixCaller", func(t *testing.T) {
		s, events := newSession(t, Config{})
		body := xdrtest.New().Uint32(1).Name("client").Uint32(1000).Uint32(100).Uint32(0).Bytes()
		cred := rpc.OpaqueAuth{Flavor: rpc.AuthUnix, Body: body}
		s.Feed(ToServer, last(callWithCred(1, rpc.ProgramNFS, types.NFSProcGetAttr, cred, getattrArgs())))

		require.Len(t, *events, 1)
		c := (*events)[0].caller
		require.NotNil(t, c)
		assert.Equal(t, "client", c.MachineName)
		require.NotNil(t, c.UID)
		assert.Equal(t, uint32(1000), *c.UID)
	})

	t.Run("NonNFSProgramIsSkipped", func(t *testing.T) {
		s, events := newSession(t, Config{})
		s.Feed(ToServer, last(callWithCred(1, rpc.ProgramMount, 1, rpc.OpaqueAuth{Body: []byte{}}, nil)))

		assert.Empty(t, *events)
		assert.Equal(t, uint64(1), s.Stats().Calls)
	})

	t.Run("UnsupportedProcedure", func(t *testing.T) {
		s, events := newSession(t, Config{})
		s.Feed(ToServer, last(call(1, types.NFSProcNull, nil)))

		require.Len(t, *events, 1)
		assert.ErrorIs(t, (*events)[0].err, nfs.ErrUnsupportedProcedure)
		assert.Equal(t, uint64(0), s.Stats().Errors)
	})

	t.Run("MalformedArgumentsAreReported", func(t *testing.T) {
		s, events := newSession(t, Config{})
		args := xdrtest.New().Handle(testFH).Uint64(0).Uint32(4).Uint32(7).Data([]byte("abcd")).Bytes()
		s.Feed(ToServer, last(call(1, types.NFSProcWrite, args)))

		require.Len(t, *events, 1)
		assert.ErrorIs(t, (*events)[0].err, xdr.ErrConstraintViolation)
		assert.Equal(t, uint64(1), s.Stats().Errors)
	})
}

func TestClose(t *testing.T) {
	t.Run("FlushesPartialRecordAsFragment", func(t *testing.T) {
		s, events := newSession(t, Config{})
		body := call(1, types.NFSProcWrite, writeArgs(bytes.Repeat([]byte{7}, 100)))
		marked := last(body)
		s.Feed(ToServer, marked[:len(marked)-60])
		assert.Empty(t, *events)

		stats := s.Close()
		require.Len(t, *events, 1)
		w := (*events)[0]
		assert.Equal(t, records.PayloadFragment, w.mode)
		assert.True(t, w.truncated)
		assert.Len(t, w.data, 40)
		assert.Equal(t, uint64(1), stats.Records)
	})

	t.Run("NothingPending", func(t *testing.T) {
		s, events := newSession(t, Config{})
		s.Close()
		assert.Empty(t, *events)
	})
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, "ok", StatusOf(nil))
	assert.Equal(t, "unsupported", StatusOf(nfs.ErrUnsupportedProcedure))
	assert.Equal(t, "malformed", StatusOf(&xdr.DecodeError{Kind: xdr.KindMalformed}))
	assert.Equal(t, "rejected", StatusOf(fmt.Errorf("%w: denied", ErrRPCRejected)))
	assert.Equal(t, "error", StatusOf(ErrDesync))
}
