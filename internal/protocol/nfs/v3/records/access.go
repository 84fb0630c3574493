package records

import (
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// AccessRequest is a decoded ACCESS3args (RFC 1813 Section 3.3.4).
type AccessRequest struct {
	Handle xdr.FileHandle

	// Access is the bitmap of requested permissions (types.Access*).
	// Unknown bits are kept as sent.
	Access uint32
}

func (*AccessRequest) Procedure() uint32 { return types.NFSProcAccess }

func DecodeAccessRequest(buf []byte) (*AccessRequest, []byte, error) {
	return decode(buf, "ACCESS request", func(d *xdr.Decoder) (*AccessRequest, error) {
		handle, err := d.FileHandle("handle")
		if err != nil {
			return nil, err
		}
		access, err := d.Uint32("access")
		if err != nil {
			return nil, err
		}
		return &AccessRequest{Handle: handle, Access: access}, nil
	})
}
