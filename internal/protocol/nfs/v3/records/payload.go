package records

import (
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

// PayloadMode tells a payload decoder whether the caller guarantees that the
// buffer holds the whole message.
//
// The mode is supplied by whoever reassembled the bytes. It is never
// inferred from the buffer length: a short buffer in PayloadComplete mode is
// a caller error, the same buffer in PayloadFragment mode is a normal
// mid-stream arrival.
type PayloadMode int

const (
	// PayloadComplete means the full declared data and its padding are in
	// the buffer.
	PayloadComplete PayloadMode = iota

	// PayloadFragment means the buffer may stop anywhere inside the data or
	// its padding.
	PayloadFragment
)

func (m PayloadMode) String() string {
	switch m {
	case PayloadComplete:
		return "complete"
	case PayloadFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// decodePayload extracts dataLen bytes of opaque file content followed by
// its XDR padding.
//
// Three outcomes are possible:
//
//  1. PayloadComplete: exactly dataLen bytes are taken and the padding is
//     skipped. If either is short the message is Malformed.
//  2. PayloadFragment with at least dataLen bytes: the data is taken in
//     full and as much padding as is present is skipped.
//  3. PayloadFragment with fewer than dataLen bytes: everything left is
//     returned as the data and truncated is true. This is not an error.
func decodePayload(d *xdr.Decoder, dataLen uint32, mode PayloadMode) (data []byte, truncated bool, err error) {
	pad := xdr.Padding(dataLen)

	if mode == PayloadComplete {
		if need := uint64(dataLen) + uint64(pad); !d.Has(need) {
			return nil, false, &xdr.DecodeError{
				Kind:   xdr.KindMalformed,
				Field:  "data",
				Offset: d.Offset(),
				Need:   need,
				Have:   d.Remaining(),
			}
		}
		data, err = d.Opaque("data", dataLen)
		if err != nil {
			return nil, false, err
		}
		if err = d.Skip("data padding", pad); err != nil {
			return nil, false, err
		}
		return data, false, nil
	}

	if !d.Has(uint64(dataLen)) {
		return d.TakeRest(), true, nil
	}
	data, err = d.Opaque("data", dataLen)
	if err != nil {
		return nil, false, err
	}
	d.SkipAvailable(pad)
	return data, false, nil
}
