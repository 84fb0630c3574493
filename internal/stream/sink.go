package stream

import (
	"context"

	"github.com/marmos91/nfsinspect/internal/logger"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/v3/records"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
	"github.com/marmos91/nfsinspect/pkg/filestore"
)

// PayloadSink returns a Handler that stores WRITE call data and READ reply
// data in store, then passes every event on to next (which may be nil).
//
// Payloads larger than chunkSize are split into several chunks keyed by
// their own file offset; chunkSize <= 0 stores each payload whole. Only the
// final piece of a truncated payload is marked truncated.
//
// Store errors are logged and never interrupt decoding.
func PayloadSink(ctx context.Context, store filestore.Store, chunkSize int, next Handler) Handler {
	return func(ev *Event) {
		switch r := ev.Record.(type) {
		case *records.WriteRequest:
			putPayload(ctx, store, chunkSize, ev.XID, r.Handle, r.Offset, filestore.SourceWrite, r.Data, r.Truncated)
		case *records.ReadReply:
			putPayload(ctx, store, chunkSize, ev.XID, ev.Handle, ev.Offset, filestore.SourceRead, r.Data, r.Truncated)
		}
		if next != nil {
			next(ev)
		}
	}
}

func putPayload(ctx context.Context, store filestore.Store, chunkSize int, xid uint32,
	fh xdr.FileHandle, offset uint64, src filestore.Source, data []byte, truncated bool) {
	if fh.Len == 0 || len(data) == 0 {
		return
	}

	size := len(data)
	if chunkSize > 0 && chunkSize < size {
		size = chunkSize
	}

	for pos := 0; pos < len(data); pos += size {
		end := min(pos+size, len(data))
		chunk := &filestore.Chunk{
			Key:       filestore.KeyFor(fh, offset+uint64(pos), src),
			XID:       xid,
			Truncated: truncated && end == len(data),
			Data:      data[pos:end],
		}
		if err := store.Put(ctx, chunk); err != nil {
			logger.Warn("Failed to store %s payload xid=0x%x: %v", src, xid, err)
			return
		}
	}
}
