package xdr

import (
	"encoding/binary"
)

// ============================================================================
// XDR Decoding Helpers - Wire Format → Go Structures
// ============================================================================
//
// Decoder is a cursor over a borrowed byte slice. Every read either advances
// the cursor and returns a value, or leaves the cursor untouched and returns
// a *DecodeError. Nothing is ever read past the end of the buffer.
//
// Views returned by Fixed, Opaque, Rest and TakeRest alias the input buffer
// and are only valid for as long as the caller keeps that buffer alive.

// Decoder walks an XDR-encoded buffer field by field.
//
// A Decoder is not safe for concurrent use, but it holds no shared state:
// independent Decoders over the same buffer may run in parallel.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder returns a Decoder positioned at the start of buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.off
}

// Remaining returns the number of unconsumed bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

// Has reports whether at least n more bytes are available.
// n is a uint64 so that declared 32-bit lengths can be checked without
// overflowing int on 32-bit platforms.
func (d *Decoder) Has(n uint64) bool {
	return uint64(d.Remaining()) >= n
}

// Rest returns a view of the unconsumed bytes without advancing.
func (d *Decoder) Rest() []byte {
	return d.buf[d.off:]
}

// TakeRest consumes and returns every remaining byte.
// It never fails; an exhausted buffer yields an empty slice.
func (d *Decoder) TakeRest() []byte {
	rest := d.buf[d.off:]
	d.off = len(d.buf)
	return rest
}

// Uint32 decodes a big-endian unsigned 32-bit integer.
//
// Per RFC 4506 Section 4.2 (Unsigned Integer).
func (d *Decoder) Uint32(field string) (uint32, error) {
	if !d.Has(4) {
		return 0, d.incomplete(field, 4)
	}
	v := binary.BigEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

// Uint64 decodes a big-endian unsigned 64-bit integer.
//
// Per RFC 4506 Section 4.5 (Hyper Integer).
func (d *Decoder) Uint64(field string) (uint64, error) {
	if !d.Has(8) {
		return 0, d.incomplete(field, 8)
	}
	v := binary.BigEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v, nil
}

// Fixed returns a zero-copy view of exactly n bytes of a fixed-size field
// (cookie verifiers, attribute blobs). A short buffer is Incomplete: the
// size is dictated by the protocol, not by the peer.
func (d *Decoder) Fixed(field string, n int) ([]byte, error) {
	if n < 0 || !d.Has(uint64(n)) {
		return nil, d.incomplete(field, n)
	}
	v := d.buf[d.off : d.off+n : d.off+n]
	d.off += n
	return v, nil
}

// Opaque returns a zero-copy view of a body whose length was declared on
// the wire. A declared length that overruns the buffer is Malformed: there
// is no partial-read fallback for handle and name bodies.
func (d *Decoder) Opaque(field string, length uint32) ([]byte, error) {
	if !d.Has(uint64(length)) {
		return nil, d.malformed(field, uint64(length))
	}
	n := int(length)
	v := d.buf[d.off : d.off+n : d.off+n]
	d.off += n
	return v, nil
}

// Skip discards exactly n bytes.
func (d *Decoder) Skip(field string, n uint32) error {
	if !d.Has(uint64(n)) {
		return d.incomplete(field, int(n))
	}
	d.off += int(n)
	return nil
}

// SkipAvailable discards up to n bytes and returns how many were skipped.
// Used for trailing padding that may legitimately be cut off at a fragment
// boundary.
func (d *Decoder) SkipAvailable(n uint32) int {
	skip := d.Remaining()
	if uint64(n) < uint64(skip) {
		skip = int(n)
	}
	d.off += skip
	return skip
}

// Flag decodes an XDR boolean that gates an optional field.
//
// Unlike a plain RFC 4506 bool, any value other than 0 or 1 is rejected as
// a ConstraintViolation instead of being coerced to true.
func (d *Decoder) Flag(field string) (bool, error) {
	v, err := d.Enum(field, 1)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// Enum decodes a uint32 restricted to the range [0, max].
func (d *Decoder) Enum(field string, max uint32) (uint32, error) {
	start := d.off
	v, err := d.Uint32(field)
	if err != nil {
		return 0, err
	}
	if v > max {
		d.off = start
		return 0, &DecodeError{Kind: KindConstraint, Field: field, Offset: start, Value: uint64(v), Limit: uint64(max)}
	}
	return v, nil
}

// Bounded decodes a uint32 that must not exceed limit, typically a data
// length governed by a previously decoded count.
func (d *Decoder) Bounded(field string, limit uint32) (uint32, error) {
	return d.Enum(field, limit)
}

func (d *Decoder) incomplete(field string, need int) error {
	return &DecodeError{Kind: KindIncomplete, Field: field, Offset: d.off, Need: uint64(need), Have: d.Remaining()}
}

func (d *Decoder) malformed(field string, need uint64) error {
	return &DecodeError{Kind: KindMalformed, Field: field, Offset: d.off, Need: need, Have: d.Remaining()}
}
