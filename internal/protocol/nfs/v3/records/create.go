package records

import (
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// CreateRequest is a decoded CREATE3args.
//
// RFC 1813 Section 3.3.8:
//
//	CREATE3res NFSPROC3_CREATE(CREATE3args) = 8;
//
// Only the directory handle, the new name and the creation mode are
// decoded. The how-union that follows (sattr3 or a createverf3) is kept as
// an opaque view in Verifier.
type CreateRequest struct {
	// Handle identifies the parent directory.
	Handle xdr.FileHandle

	// Name is the new file's name. Owned copy.
	Name []byte

	// Mode is the createmode3 discriminant (UNCHECKED, GUARDED, EXCLUSIVE).
	// It is carried as seen and not range-checked.
	Mode uint32

	// Verifier holds every byte after the mode: attributes for UNCHECKED
	// and GUARDED, the 8-byte verifier for EXCLUSIVE.
	Verifier []byte
}

func (*CreateRequest) Procedure() uint32 { return types.NFSProcCreate }

// DecodeCreateRequest decodes a CREATE call body. The trailing how-union is
// consumed, so the returned remainder is always empty.
func DecodeCreateRequest(buf []byte) (*CreateRequest, []byte, error) {
	return decode(buf, "CREATE request", func(d *xdr.Decoder) (*CreateRequest, error) {
		handle, err := d.FileHandle("directory handle")
		if err != nil {
			return nil, err
		}
		name, err := d.Name("name")
		if err != nil {
			return nil, err
		}
		mode, err := d.Uint32("create mode")
		if err != nil {
			return nil, err
		}
		return &CreateRequest{
			Handle:   handle,
			Name:     name,
			Mode:     mode,
			Verifier: d.TakeRest(),
		}, nil
	})
}

// CreateReply is the head of a CREATE3res: the status and the optional
// handle of the created object (post_op_fh3).
type CreateReply struct {
	Status uint32
	Handle xdr.Optional[xdr.FileHandle]
}

func (*CreateReply) Procedure() uint32 { return types.NFSProcCreate }

// DecodeCreateReply decodes the status and optional handle. Attributes and
// wcc_data after the handle are returned as the remainder.
func DecodeCreateReply(buf []byte) (*CreateReply, []byte, error) {
	return decode(buf, "CREATE reply", func(d *xdr.Decoder) (*CreateReply, error) {
		status, err := d.Uint32("status")
		if err != nil {
			return nil, err
		}
		handle, err := d.OptionalFileHandle("handle")
		if err != nil {
			return nil, err
		}
		return &CreateReply{Status: status, Handle: handle}, nil
	})
}
