package xdr

// Padding returns the number of filler bytes (0-3) that follow a
// variable-length field of the given length so that the next field starts
// on a 4-byte boundary.
//
// Per RFC 4506 Section 4.10:
//
//	length=1 → 3, length=2 → 2, length=3 → 1, length=4 → 0, length=5 → 3
func Padding(length uint32) uint32 {
	return (4 - (length % 4)) % 4
}

// PaddedSize returns the total wire size of a length-prefixed, padded field:
// 4 bytes of length, the body, and its padding.
func PaddedSize(length uint32) uint64 {
	return 4 + uint64(length) + uint64(Padding(length))
}

// Name decodes a filename3 component: length, body and padding.
//
// The returned bytes are an owned copy, so the name survives the buffer it
// was decoded from. Missing padding is Incomplete.
func (d *Decoder) Name(field string) ([]byte, error) {
	start := d.off
	name, err := d.NameUnpadded(field)
	if err != nil {
		return nil, err
	}
	if err := d.Skip(field+" padding", Padding(uint32(len(name)))); err != nil {
		d.off = start
		return nil, err
	}
	return name, nil
}

// NameUnpadded decodes a filename3 component but leaves the padding in
// place, for procedures whose trailing bytes are consumed by a final
// "take the rest" step.
func (d *Decoder) NameUnpadded(field string) ([]byte, error) {
	start := d.off
	length, err := d.Uint32(field + " length")
	if err != nil {
		return nil, err
	}
	body, err := d.Opaque(field, length)
	if err != nil {
		d.off = start
		return nil, err
	}
	name := make([]byte, len(body))
	copy(name, body)
	return name, nil
}
