package filestore

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size of the header EncodeValue puts before the data.
const HeaderSize = 5

const flagTruncated = 0x01

// EncodeValue serializes a chunk's XID, truncation flag and data for stores
// that keep a single blob per key.
//
// Layout: flags (1 byte) | xid (4 bytes, big-endian) | data.
func EncodeValue(c *Chunk) []byte {
	out := make([]byte, HeaderSize+len(c.Data))
	if c.Truncated {
		out[0] = flagTruncated
	}
	binary.BigEndian.PutUint32(out[1:], c.XID)
	copy(out[HeaderSize:], c.Data)
	return out
}

// DecodeValue parses a blob written by EncodeValue. The returned chunk's
// Data aliases b.
func DecodeValue(key Key, b []byte) (*Chunk, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("chunk %s: value is %d bytes, need at least %d", key, len(b), HeaderSize)
	}
	return &Chunk{
		Key:       key,
		Truncated: b[0]&flagTruncated != 0,
		XID:       binary.BigEndian.Uint32(b[1:]),
		Data:      b[HeaderSize:],
	}, nil
}
