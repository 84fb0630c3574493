package xdr

// Optional is an XDR "value follows" field: absent, or present with a value.
//
// Absence is an explicit state rather than a nil pointer so that a present
// zero value (e.g. an empty handle) is never confused with a missing one.
type Optional[T any] struct {
	Present bool
	Value   T
}

// Some wraps v as a present optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: v}
}

// None returns an absent optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Present
}

// DecodeOptional reads a {0,1} flag and, when it is 1, runs decode.
//
// A flag of 0 consumes nothing beyond the flag itself. Any other flag value
// is a ConstraintViolation. If decode fails the cursor is rewound to the
// flag so the caller sees a consistent position.
func DecodeOptional[T any](d *Decoder, field string, decode func(*Decoder) (T, error)) (Optional[T], error) {
	start := d.off
	follows, err := d.Flag(field + " follows")
	if err != nil {
		return Optional[T]{}, err
	}
	if !follows {
		return None[T](), nil
	}
	v, err := decode(d)
	if err != nil {
		d.off = start
		return Optional[T]{}, err
	}
	return Some(v), nil
}

// OptionalFixed decodes a flag-gated blob of a fixed size, such as the
// 84-byte fattr3 in post_op_attr.
func (d *Decoder) OptionalFixed(field string, size int) (Optional[[]byte], error) {
	return DecodeOptional(d, field, func(d *Decoder) ([]byte, error) {
		return d.Fixed(field, size)
	})
}
