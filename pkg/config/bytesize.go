package config

import (
	"fmt"
	"reflect"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/mapstructure"
)

// ByteSize is a size in bytes that config files may write as "64KiB",
// "1 MiB", "16MB" or a plain number.
type ByteSize uint64

// ParseByteSize parses a human-readable size.
func ParseByteSize(s string) (ByteSize, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return ByteSize(n), nil
}

// String formats the size with binary units, e.g. "64 KiB".
func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

func (b ByteSize) MarshalYAML() (any, error) {
	return b.String(), nil
}

func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// byteSizeDecodeHook lets mapstructure turn strings and numbers into
// ByteSize values.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return ParseByteSize(v)
		case int:
			return ByteSize(v), nil
		case int64:
			return ByteSize(v), nil
		case uint64:
			return ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return ByteSize(v), nil
		default:
			return data, nil
		}
	}
}
