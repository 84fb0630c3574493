package records

import (
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// RenameRequest is a decoded RENAME3args.
//
// RFC 1813 Section 3.3.14:
//
//	struct RENAME3args {
//	    diropargs3 from;
//	    diropargs3 to;
//	};
type RenameRequest struct {
	FromHandle xdr.FileHandle
	FromName   []byte
	ToHandle   xdr.FileHandle
	ToName     []byte
}

func (*RenameRequest) Procedure() uint32 { return types.NFSProcRename }

// DecodeRenameRequest decodes a RENAME call body. The source name must be
// padded so the destination handle starts aligned; the destination name's
// padding is swallowed with the rest of the buffer.
func DecodeRenameRequest(buf []byte) (*RenameRequest, []byte, error) {
	return decode(buf, "RENAME request", func(d *xdr.Decoder) (*RenameRequest, error) {
		fromHandle, err := d.FileHandle("from handle")
		if err != nil {
			return nil, err
		}
		fromName, err := d.Name("from name")
		if err != nil {
			return nil, err
		}
		toHandle, err := d.FileHandle("to handle")
		if err != nil {
			return nil, err
		}
		toName, err := d.NameUnpadded("to name")
		if err != nil {
			return nil, err
		}
		d.TakeRest()
		return &RenameRequest{
			FromHandle: fromHandle,
			FromName:   fromName,
			ToHandle:   toHandle,
			ToName:     toName,
		}, nil
	})
}
