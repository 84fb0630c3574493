package records

import (
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// CommitRequest is a decoded COMMIT3args (RFC 1813 Section 3.3.21).
// The offset and count are read for alignment but not kept.
type CommitRequest struct {
	Handle xdr.FileHandle
}

func (*CommitRequest) Procedure() uint32 { return types.NFSProcCommit }

func DecodeCommitRequest(buf []byte) (*CommitRequest, []byte, error) {
	return decode(buf, "COMMIT request", func(d *xdr.Decoder) (*CommitRequest, error) {
		handle, err := d.FileHandle("handle")
		if err != nil {
			return nil, err
		}
		if _, err := d.Uint64("offset"); err != nil {
			return nil, err
		}
		if _, err := d.Uint32("count"); err != nil {
			return nil, err
		}
		return &CommitRequest{Handle: handle}, nil
	})
}
