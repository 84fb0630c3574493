package records

import (
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// LookupRequest is a decoded LOOKUP3args (RFC 1813 Section 3.3.3).
type LookupRequest struct {
	// Handle identifies the directory to search.
	Handle xdr.FileHandle

	// Name is the component being looked up. Owned copy.
	Name []byte
}

func (*LookupRequest) Procedure() uint32 { return types.NFSProcLookup }

// DecodeLookupRequest decodes a LOOKUP call body. The name's padding and
// anything after it are consumed, so the remainder is always empty.
func DecodeLookupRequest(buf []byte) (*LookupRequest, []byte, error) {
	return decode(buf, "LOOKUP request", func(d *xdr.Decoder) (*LookupRequest, error) {
		handle, err := d.FileHandle("directory handle")
		if err != nil {
			return nil, err
		}
		name, err := d.NameUnpadded("name")
		if err != nil {
			return nil, err
		}
		d.TakeRest()
		return &LookupRequest{Handle: handle, Name: name}, nil
	})
}

// LookupReply is the head of a LOOKUP3res.
//
// The handle is mandatory on the wire as decoded here: the status is not
// inspected, so a failed lookup whose body does not start with a handle is
// reported as a decode error rather than an empty record.
type LookupReply struct {
	Status uint32
	Handle xdr.FileHandle
}

func (*LookupReply) Procedure() uint32 { return types.NFSProcLookup }

// DecodeLookupReply decodes the status and the object handle. Attributes
// that follow are returned as the remainder.
func DecodeLookupReply(buf []byte) (*LookupReply, []byte, error) {
	return decode(buf, "LOOKUP reply", func(d *xdr.Decoder) (*LookupReply, error) {
		status, err := d.Uint32("status")
		if err != nil {
			return nil, err
		}
		handle, err := d.FileHandle("handle")
		if err != nil {
			return nil, err
		}
		return &LookupReply{Status: status, Handle: handle}, nil
	})
}
