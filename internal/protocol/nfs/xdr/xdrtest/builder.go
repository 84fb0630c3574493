// Package xdrtest builds NFSv3 wire fixtures for tests.
//
// The decoders in this module never encode, so test buffers are assembled by
// hand with a Builder. Struct-shaped headers (RPC call/reply) go through
// go-xdr so the fixtures match what a real ONC-RPC peer would send.
package xdrtest

import (
	"bytes"
	"encoding/binary"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// AttrSize is the wire size of an NFSv3 fattr3 structure.
const AttrSize = 84

// Builder accumulates big-endian XDR fields.
type Builder struct {
	buf bytes.Buffer
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Uint32 appends a 4-byte big-endian integer.
func (b *Builder) Uint32(v uint32) *Builder {
	_ = binary.Write(&b.buf, binary.BigEndian, v)
	return b
}

// Uint64 appends an 8-byte big-endian integer.
func (b *Builder) Uint64(v uint64) *Builder {
	_ = binary.Write(&b.buf, binary.BigEndian, v)
	return b
}

// Raw appends bytes verbatim.
func (b *Builder) Raw(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

// Zeros appends n zero bytes.
func (b *Builder) Zeros(n int) *Builder {
	b.buf.Write(make([]byte, n))
	return b
}

// Handle appends an unpadded length-prefixed file handle.
func (b *Builder) Handle(h []byte) *Builder {
	return b.Uint32(uint32(len(h))).Raw(h)
}

// Name appends a length-prefixed name followed by its padding.
func (b *Builder) Name(name string) *Builder {
	return b.NameUnpadded(name).Zeros(int(pad(uint32(len(name)))))
}

// NameUnpadded appends a length-prefixed name without padding.
func (b *Builder) NameUnpadded(name string) *Builder {
	return b.Uint32(uint32(len(name))).Raw([]byte(name))
}

// Data appends a length-prefixed payload followed by its padding.
func (b *Builder) Data(p []byte) *Builder {
	return b.Uint32(uint32(len(p))).Raw(p).Zeros(int(pad(uint32(len(p)))))
}

// Attr appends an 84-byte attribute blob filled with fill.
func (b *Builder) Attr(fill byte) *Builder {
	return b.Raw(bytes.Repeat([]byte{fill}, AttrSize))
}

// XDR marshals v with go-xdr and appends the result.
func (b *Builder) XDR(v any) *Builder {
	if _, err := xdr.Marshal(&b.buf, v); err != nil {
		panic(err)
	}
	return b
}

// Bytes returns a copy of everything appended so far.
func (b *Builder) Bytes() []byte {
	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	return out
}

// Len returns the number of bytes appended so far.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// RecordMark prefixes body with an RPC record marking header (RFC 5531
// Section 11). last sets the last-fragment bit.
func RecordMark(body []byte, last bool) []byte {
	header := uint32(len(body))
	if last {
		header |= 0x80000000
	}
	out := make([]byte, 4, 4+len(body))
	binary.BigEndian.PutUint32(out, header)
	return append(out, body...)
}

func pad(n uint32) uint32 {
	return (4 - n%4) % 4
}
