package records

import (
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// MkdirRequest is a decoded MKDIR3args (RFC 1813 Section 3.3.9).
// The sattr3 that follows the name is discarded.
type MkdirRequest struct {
	Handle xdr.FileHandle
	Name   []byte
}

func (*MkdirRequest) Procedure() uint32 { return types.NFSProcMkdir }

// DecodeMkdirRequest decodes an MKDIR call body. The initial attributes
// are consumed without being decoded, so the remainder is always empty.
func DecodeMkdirRequest(buf []byte) (*MkdirRequest, []byte, error) {
	return decode(buf, "MKDIR request", func(d *xdr.Decoder) (*MkdirRequest, error) {
		handle, err := d.FileHandle("directory handle")
		if err != nil {
			return nil, err
		}
		name, err := d.Name("name")
		if err != nil {
			return nil, err
		}
		d.TakeRest()
		return &MkdirRequest{Handle: handle, Name: name}, nil
	})
}
