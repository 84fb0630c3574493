package records

import (
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// RemoveRequest is a decoded REMOVE3args (RFC 1813 Section 3.3.12).
type RemoveRequest struct {
	Handle xdr.FileHandle
	Name   []byte
}

func (*RemoveRequest) Procedure() uint32 { return types.NFSProcRemove }

// DecodeRemoveRequest decodes a REMOVE call body. Padding after the name is
// swallowed together with any trailing bytes.
func DecodeRemoveRequest(buf []byte) (*RemoveRequest, []byte, error) {
	return decode(buf, "REMOVE request", func(d *xdr.Decoder) (*RemoveRequest, error) {
		handle, err := d.FileHandle("directory handle")
		if err != nil {
			return nil, err
		}
		name, err := d.NameUnpadded("name")
		if err != nil {
			return nil, err
		}
		d.TakeRest()
		return &RemoveRequest{Handle: handle, Name: name}, nil
	})
}

// RmdirRequest is a decoded RMDIR3args (RFC 1813 Section 3.3.13).
type RmdirRequest struct {
	Handle xdr.FileHandle
	Name   []byte
}

func (*RmdirRequest) Procedure() uint32 { return types.NFSProcRmdir }

// DecodeRmdirRequest decodes an RMDIR call body. The name's padding is
// required; bytes after it are returned as the remainder.
func DecodeRmdirRequest(buf []byte) (*RmdirRequest, []byte, error) {
	return decode(buf, "RMDIR request", func(d *xdr.Decoder) (*RmdirRequest, error) {
		handle, err := d.FileHandle("directory handle")
		if err != nil {
			return nil, err
		}
		name, err := d.Name("name")
		if err != nil {
			return nil, err
		}
		return &RmdirRequest{Handle: handle, Name: name}, nil
	})
}
