package records

import (
	"fmt"

	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// Record is implemented by every decoded call and reply.
type Record interface {
	// Procedure returns the NFSv3 procedure number the record belongs to.
	Procedure() uint32
}

// decode runs fn over buf and packages its result with the unconsumed
// remainder. On failure the original buffer is returned untouched so the
// caller can retry once more bytes have arrived.
func decode[T any](buf []byte, what string, fn func(d *xdr.Decoder) (*T, error)) (*T, []byte, error) {
	d := xdr.NewDecoder(buf)
	rec, err := fn(d)
	if err != nil {
		return nil, buf, fmt.Errorf("decode %s: %w", what, err)
	}
	return rec, d.Rest(), nil
}
