package records

import (
	"fmt"

	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// ============================================================================
// READDIRPLUS Request
// ============================================================================

// ReaddirplusRequest is a decoded READDIRPLUS3args.
//
// RFC 1813 Section 3.3.17:
//
//	struct READDIRPLUS3args {
//	    nfs_fh3      dir;
//	    cookie3      cookie;
//	    cookieverf3  cookieverf;
//	    count3       dircount;
//	    count3       maxcount;
//	};
type ReaddirplusRequest struct {
	Handle xdr.FileHandle

	// Cookie is the position to resume from (0 for the first call).
	Cookie uint64

	// Verifier is the 8-byte cookie verifier, as a view.
	Verifier []byte

	DirCount uint32
	MaxCount uint32
}

func (*ReaddirplusRequest) Procedure() uint32 { return types.NFSProcReadDirPlus }

func DecodeReaddirplusRequest(buf []byte) (*ReaddirplusRequest, []byte, error) {
	return decode(buf, "READDIRPLUS request", func(d *xdr.Decoder) (*ReaddirplusRequest, error) {
		handle, err := d.FileHandle("directory handle")
		if err != nil {
			return nil, err
		}
		// cookie3 is 64 bits wide.
		cookie, err := d.Uint64("cookie")
		if err != nil {
			return nil, err
		}
		verf, err := d.Fixed("cookie verifier", types.CookieVerfSize)
		if err != nil {
			return nil, err
		}
		dirCount, err := d.Uint32("dircount")
		if err != nil {
			return nil, err
		}
		maxCount, err := d.Uint32("maxcount")
		if err != nil {
			return nil, err
		}
		return &ReaddirplusRequest{
			Handle:   handle,
			Cookie:   cookie,
			Verifier: verf,
			DirCount: dirCount,
			MaxCount: maxCount,
		}, nil
	})
}

// ============================================================================
// READDIRPLUS Reply
// ============================================================================

// ReaddirplusReply is the fixed head of a READDIRPLUS3res.
//
// The entry list is not decoded eagerly: Data holds the raw bytes after the
// cookie verifier and Entries walks them on demand.
type ReaddirplusReply struct {
	Status uint32

	// DirAttributes is the directory's post_op_attr blob.
	DirAttributes xdr.Optional[[]byte]

	// Verifier is the 8-byte cookie verifier.
	Verifier []byte

	// Data is everything after the verifier: the entry list, the eof flag
	// and any trailing bytes.
	Data []byte
}

func (*ReaddirplusReply) Procedure() uint32 { return types.NFSProcReadDirPlus }

// DecodeReaddirplusReply decodes the reply head and hands the rest of the
// buffer to Data, so the returned remainder is always empty.
func DecodeReaddirplusReply(buf []byte) (*ReaddirplusReply, []byte, error) {
	return decode(buf, "READDIRPLUS reply", func(d *xdr.Decoder) (*ReaddirplusReply, error) {
		status, err := d.Uint32("status")
		if err != nil {
			return nil, err
		}
		attrs, err := d.OptionalFixed("directory attributes", types.FileAttrSize)
		if err != nil {
			return nil, err
		}
		verf, err := d.Fixed("cookie verifier", types.CookieVerfSize)
		if err != nil {
			return nil, err
		}
		return &ReaddirplusReply{
			Status:        status,
			DirAttributes: attrs,
			Verifier:      verf,
			Data:          d.TakeRest(),
		}, nil
	})
}

// Entries returns a scanner over the reply's entry list.
func (r *ReaddirplusReply) Entries() *EntryScanner {
	return NewEntryScanner(r.Data)
}

// ============================================================================
// Directory Entries
// ============================================================================

// DirEntry is one entryplus3 row.
type DirEntry struct {
	FileID uint64

	// Name is an owned copy of the entry name.
	Name []byte

	Cookie uint64

	// Attributes is the entry's optional 84-byte fattr3 blob.
	Attributes xdr.Optional[[]byte]

	// Handle is the entry's optional file handle.
	Handle xdr.Optional[xdr.FileHandle]
}

// EntryScanner walks a READDIRPLUS entry list one entry at a time.
//
// Each entry is preceded by a {0,1} "value follows" flag; the list ends at
// the first 0. The scan is iterative, so a list of any length uses constant
// stack. A scanner cannot be rewound.
//
//	s := reply.Entries()
//	for s.Next() {
//		e := s.Entry()
//		...
//	}
//	if err := s.Err(); err != nil {
//		...
//	}
type EntryScanner struct {
	d     *xdr.Decoder
	entry DirEntry
	count int
	err   error
	done  bool
}

// NewEntryScanner returns a scanner positioned at the first continuation
// flag in buf.
func NewEntryScanner(buf []byte) *EntryScanner {
	return &EntryScanner{d: xdr.NewDecoder(buf)}
}

// Next advances to the next entry. It returns false at the terminating flag
// or on a decode error; check Err to tell them apart.
func (s *EntryScanner) Next() bool {
	if s.done {
		return false
	}
	e, err := xdr.DecodeOptional(s.d, "entry", decodeEntry)
	if err != nil {
		s.err = fmt.Errorf("decode READDIRPLUS entry %d: %w", s.count, err)
		s.done = true
		return false
	}
	if !e.Present {
		s.done = true
		return false
	}
	s.entry = e.Value
	s.count++
	return true
}

// Entry returns the entry read by the last successful Next.
func (s *EntryScanner) Entry() DirEntry {
	return s.entry
}

// Err returns the error that stopped the scan, if any.
func (s *EntryScanner) Err() error {
	return s.err
}

// Count returns the number of entries decoded so far.
func (s *EntryScanner) Count() int {
	return s.count
}

// Rest returns the bytes not consumed by the scan. After a clean stop this
// is whatever follows the terminating flag. After an error it starts at the
// flag of the entry that failed.
func (s *EntryScanner) Rest() []byte {
	return s.d.Rest()
}

// CollectEntries scans buf to completion and returns the entries along with
// the bytes after the terminating flag.
func CollectEntries(buf []byte) ([]DirEntry, []byte, error) {
	s := NewEntryScanner(buf)
	var entries []DirEntry
	for s.Next() {
		entries = append(entries, s.Entry())
	}
	if err := s.Err(); err != nil {
		return entries, s.Rest(), err
	}
	return entries, s.Rest(), nil
}

func decodeEntry(d *xdr.Decoder) (DirEntry, error) {
	fileID, err := d.Uint64("fileid")
	if err != nil {
		return DirEntry{}, err
	}
	name, err := d.Name("entry name")
	if err != nil {
		return DirEntry{}, err
	}
	cookie, err := d.Uint64("cookie")
	if err != nil {
		return DirEntry{}, err
	}
	attrs, err := d.OptionalFixed("entry attributes", types.FileAttrSize)
	if err != nil {
		return DirEntry{}, err
	}
	handle, err := d.OptionalFileHandle("entry handle")
	if err != nil {
		return DirEntry{}, err
	}
	return DirEntry{
		FileID:     fileID,
		Name:       name,
		Cookie:     cookie,
		Attributes: attrs,
		Handle:     handle,
	}, nil
}
