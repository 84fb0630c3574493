package records

import (
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// WriteRequest is a decoded WRITE3args.
//
// RFC 1813 Section 3.3.7:
//
//	struct WRITE3args {
//	    nfs_fh3     file;
//	    offset3     offset;
//	    count3      count;
//	    stable_how  stable;
//	    opaque      data<>;
//	};
type WriteRequest struct {
	// Handle is the file being written.
	Handle xdr.FileHandle

	// Offset is the byte position in the file where the data starts.
	Offset uint64

	// Count is the number of bytes the client asked to write.
	Count uint32

	// Stable is the stable_how level (types.WriteUnstable,
	// types.WriteDataSync or types.WriteFileSync).
	Stable uint32

	// DataLen is the length declared in front of the payload. It never
	// exceeds Count.
	DataLen uint32

	// Data is a view of the payload. It is shorter than DataLen only when
	// Truncated is set.
	Data []byte

	// Truncated reports that the buffer ended inside the payload and Data
	// holds only the bytes that were present.
	Truncated bool
}

func (*WriteRequest) Procedure() uint32 { return types.NFSProcWrite }

// DecodeWriteRequest decodes a WRITE call body.
//
// The stable level must be at most FILE_SYNC and the declared data length
// must not exceed count; either violation is a ConstraintViolation. See
// PayloadMode for how a buffer shorter than the payload is handled.
func DecodeWriteRequest(buf []byte, mode PayloadMode) (*WriteRequest, []byte, error) {
	return decode(buf, "WRITE request", func(d *xdr.Decoder) (*WriteRequest, error) {
		handle, err := d.FileHandle("handle")
		if err != nil {
			return nil, err
		}
		offset, err := d.Uint64("offset")
		if err != nil {
			return nil, err
		}
		count, err := d.Uint32("count")
		if err != nil {
			return nil, err
		}
		stable, err := d.Enum("stable", types.WriteFileSync)
		if err != nil {
			return nil, err
		}
		dataLen, err := d.Bounded("data length", count)
		if err != nil {
			return nil, err
		}
		data, truncated, err := decodePayload(d, dataLen, mode)
		if err != nil {
			return nil, err
		}
		return &WriteRequest{
			Handle:    handle,
			Offset:    offset,
			Count:     count,
			Stable:    stable,
			DataLen:   dataLen,
			Data:      data,
			Truncated: truncated,
		}, nil
	})
}
