package xdr

import (
	"encoding/hex"
)

// FileHandle is an NFSv3 file handle (nfs_fh3) as seen on the wire.
//
// Per RFC 1813 Section 2.3.3 (nfs_fh3):
// File handles are opaque values of up to 64 bytes used to identify files.
//
// Value is a zero-copy view into the buffer it was decoded from.
// Use Clone when the handle has to outlive that buffer.
type FileHandle struct {
	Len   uint32
	Value []byte
}

// DecodeFileHandle decodes a length-prefixed handle from the front of buf and
// returns it together with the unconsumed remainder.
//
// Format: [length:uint32][data:length bytes]
//
// The body is not padded beyond its declared length. A length that overruns
// buf is reported as Malformed and nothing is under-read.
func DecodeFileHandle(buf []byte) (FileHandle, []byte, error) {
	d := NewDecoder(buf)
	fh, err := d.FileHandle("handle")
	if err != nil {
		return FileHandle{}, buf, err
	}
	return fh, d.Rest(), nil
}

// FileHandle decodes a handle at the cursor.
func (d *Decoder) FileHandle(field string) (FileHandle, error) {
	start := d.off
	length, err := d.Uint32(field + " length")
	if err != nil {
		return FileHandle{}, err
	}
	value, err := d.Opaque(field, length)
	if err != nil {
		d.off = start
		return FileHandle{}, err
	}
	return FileHandle{Len: length, Value: value}, nil
}

// OptionalFileHandle decodes a post_op_fh3 style handle: a {0,1} flag
// followed by a handle when the flag is set.
func (d *Decoder) OptionalFileHandle(field string) (Optional[FileHandle], error) {
	return DecodeOptional(d, field, func(d *Decoder) (FileHandle, error) {
		return d.FileHandle(field)
	})
}

// Clone returns a copy of the handle that owns its bytes.
func (fh FileHandle) Clone() FileHandle {
	if fh.Value == nil {
		return fh
	}
	v := make([]byte, len(fh.Value))
	copy(v, fh.Value)
	return FileHandle{Len: fh.Len, Value: v}
}

// String renders the handle body as lowercase hex.
func (fh FileHandle) String() string {
	return hex.EncodeToString(fh.Value)
}
