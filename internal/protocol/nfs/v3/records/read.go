package records

import (
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// ReadRequest is a decoded READ3args (RFC 1813 Section 3.3.6).
type ReadRequest struct {
	Handle xdr.FileHandle
	Offset uint64
	Count  uint32
}

func (*ReadRequest) Procedure() uint32 { return types.NFSProcRead }

func DecodeReadRequest(buf []byte) (*ReadRequest, []byte, error) {
	return decode(buf, "READ request", func(d *xdr.Decoder) (*ReadRequest, error) {
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
		return &ReadRequest{Handle: handle, Offset: offset, Count: count}, nil
	})
}

// ReadReply is a decoded READ3res.
//
// RFC 1813 Section 3.3.6:
//
//	struct READ3resok {
//	    post_op_attr   file_attributes;
//	    count3         count;
//	    bool           eof;
//	    opaque         data<>;
//	};
//
// The body is decoded the same way whatever the status says. The follows
// flag must be 0 or 1, but the 84-byte attribute blob is consumed either way.
type ReadReply struct {
	Status uint32

	// AttrFollows is the post_op_attr flag as sent.
	AttrFollows bool

	// Attributes is the 84-byte fattr3 blob, kept opaque.
	Attributes []byte

	// Count is the number of bytes the server says it read.
	Count uint32

	// EOF reports that the read reached the end of the file.
	EOF bool

	// DataLen is the declared payload length. It never exceeds Count.
	DataLen uint32

	// Data is a view of the payload; shorter than DataLen only when
	// Truncated is set.
	Data      []byte
	Truncated bool
}

func (*ReadReply) Procedure() uint32 { return types.NFSProcRead }

// DecodeReadReply decodes a READ reply body. See PayloadMode for how a
// buffer shorter than the payload is handled.
func DecodeReadReply(buf []byte, mode PayloadMode) (*ReadReply, []byte, error) {
	return decode(buf, "READ reply", func(d *xdr.Decoder) (*ReadReply, error) {
		status, err := d.Uint32("status")
		if err != nil {
			return nil, err
		}
		follows, err := d.Flag("attributes follow")
		if err != nil {
			return nil, err
		}
		attrs, err := d.Fixed("file attributes", types.FileAttrSize)
		if err != nil {
			return nil, err
		}
		count, err := d.Uint32("count")
		if err != nil {
			return nil, err
		}
		eof, err := d.Flag("eof")
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
		return &ReadReply{
			Status:      status,
			AttrFollows: follows,
			Attributes:  attrs,
			Count:       count,
			EOF:         eof,
			DataLen:     dataLen,
			Data:        data,
			Truncated:   truncated,
		}, nil
	})
}
