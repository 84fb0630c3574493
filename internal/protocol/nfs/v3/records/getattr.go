package records

import (
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// GetAttrRequest is a decoded GETATTR3args (RFC 1813 Section 3.3.1).
type GetAttrRequest struct {
	Handle xdr.FileHandle
}

func (*GetAttrRequest) Procedure() uint32 { return types.NFSProcGetAttr }

func DecodeGetAttrRequest(buf []byte) (*GetAttrRequest, []byte, error) {
	return decode(buf, "GETATTR request", func(d *xdr.Decoder) (*GetAttrRequest, error) {
		handle, err := d.FileHandle("handle")
		if err != nil {
			return nil, err
		}
		return &GetAttrRequest{Handle: handle}, nil
	})
}
