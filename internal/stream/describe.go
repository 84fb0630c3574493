package stream

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/v3/records"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// Describe renders the interesting fields of an event's record on one line,
// e.g. `fh=01020304 off=4096 count=8192`. It returns the error text for
// failed events and "" when there is nothing to show.
//
// Like the event itself, Describe must be called from inside the Handler.
func Describe(ev *Event) string {
	if ev.Err != nil {
		return ev.Err.Error()
	}

	var b strings.Builder
	field := func(key string, value any) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", key, value)
	}

	switch r := ev.Record.(type) {
	case *records.GetAttrRequest:
		field("fh", r.Handle)
	case *records.AccessRequest:
		field("fh", r.Handle)
		field("access", types.AccessString(r.Access))
	case *records.CommitRequest:
		field("fh", r.Handle)
	case *records.LookupRequest:
		field("dir", r.Handle)
		field("name", quote(r.Name))
	case *records.LookupReply:
		field("status", types.StatusString(r.Status))
		field("fh", r.Handle)
	case *records.CreateRequest:
		field("dir", r.Handle)
		field("name", quote(r.Name))
		field("mode", types.CreateModeString(r.Mode))
		if r.Mode == types.CreateExclusive && len(r.Verifier) >= types.CreateVerfSize {
			field("verf", fmt.Sprintf("%x", r.Verifier[:types.CreateVerfSize]))
		}
	case *records.CreateReply:
		field("status", types.StatusString(r.Status))
		if fh, ok := r.Handle.Get(); ok {
			field("fh", fh)
		}
	case *records.MkdirRequest:
		field("dir", r.Handle)
		field("name", quote(r.Name))
	case *records.RemoveRequest:
		field("dir", r.Handle)
		field("name", quote(r.Name))
	case *records.RmdirRequest:
		field("dir", r.Handle)
		field("name", quote(r.Name))
	case *records.RenameRequest:
		field("from", fmt.Sprintf("%s/%s", r.FromHandle, quote(r.FromName)))
		field("to", fmt.Sprintf("%s/%s", r.ToHandle, quote(r.ToName)))
	case *records.ReadRequest:
		field("fh", r.Handle)
		field("off", r.Offset)
		field("count", r.Count)
	case *records.ReadReply:
		field("status", types.StatusString(r.Status))
		field("fh", ev.Handle)
		field("off", ev.Offset)
		field("data", payloadSize(len(r.Data), r.Truncated))
		if r.EOF {
			field("eof", true)
		}
	case *records.WriteRequest:
		field("fh", r.Handle)
		field("off", r.Offset)
		field("stable", types.StableString(r.Stable))
		field("data", payloadSize(len(r.Data), r.Truncated))
	case *records.ReaddirplusRequest:
		field("dir", r.Handle)
		field("cookie", r.Cookie)
		field("maxcount", r.MaxCount)
	case *records.ReaddirplusReply:
		field("status", types.StatusString(r.Status))
		field("dir", ev.Handle)
		field("entries", countEntries(r))
	}
	return b.String()
}

func quote(name []byte) string {
	return fmt.Sprintf("%q", name)
}

func payloadSize(n int, truncated bool) string {
	s := humanize.IBytes(uint64(n))
	if truncated {
		s += "(truncated)"
	}
	return s
}

// countEntries walks the entry list without keeping it. A list cut short by
// a fragment is reported as "n+".
func countEntries(r *records.ReaddirplusReply) string {
	s := r.Entries()
	for s.Next() {
	}
	if s.Err() != nil && xdr.KindOf(s.Err()) == xdr.KindIncomplete {
		return fmt.Sprintf("%d+", s.Count())
	}
	return fmt.Sprint(s.Count())
}
