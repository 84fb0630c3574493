// Package filestore persists READ and WRITE payloads recovered from NFS
// traffic.
//
// A payload chunk is identified by the file handle it belongs to, the file
// offset it starts at and the direction it was seen in (a WRITE call or a
// READ reply). Stores are append-mostly: the decoder puts chunks as records
// are decoded, and the CLI lists, fetches and deletes them afterwards.
//
// Implementations live in subpackages:
//   - memory: map-backed, for tests and short captures
//   - fs: one file per chunk under a base directory
//   - badger: embedded BadgerDB key-value store
//   - s3: Amazon S3 or any S3-compatible object store
package filestore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
)

var (
	// ErrChunkNotFound is returned by Get for a key that was never stored.
	ErrChunkNotFound = errors.New("chunk not found")

	// ErrInvalidKey is returned for keys that cannot be encoded.
	ErrInvalidKey = errors.New("invalid chunk key")
)

// Source tells which operation carried a chunk.
type Source string

const (
	SourceWrite Source = "write"
	SourceRead  Source = "read"
)

// Key identifies a payload chunk.
type Key struct {
	// Handle is the hex-encoded NFS file handle.
	Handle string

	// Offset is the file offset of the first payload byte.
	Offset uint64

	Source Source
}

// KeyFor builds the key for a payload at offset in the file named by fh.
func KeyFor(fh xdr.FileHandle, offset uint64, src Source) Key {
	return Key{Handle: fh.String(), Offset: offset, Source: src}
}

// Validate checks that the key can be encoded.
func (k Key) Validate() error {
	if k.Handle == "" {
		return fmt.Errorf("%w: empty handle", ErrInvalidKey)
	}
	if _, err := hex.DecodeString(k.Handle); err != nil {
		return fmt.Errorf("%w: handle %q is not hex", ErrInvalidKey, k.Handle)
	}
	if k.Source != SourceWrite && k.Source != SourceRead {
		return fmt.Errorf("%w: source %q", ErrInvalidKey, k.Source)
	}
	return nil
}

// String encodes the key as "<handle>/<offset>.<source>". Offsets are zero
// padded so lexical order matches offset order within a handle.
func (k Key) String() string {
	return fmt.Sprintf("%s/%020d.%s", k.Handle, k.Offset, k.Source)
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	handle, rest, ok := strings.Cut(s, "/")
	if !ok {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	offset, src, ok := strings.Cut(rest, ".")
	if !ok {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	off, err := strconv.ParseUint(offset, 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("%w: offset in %q", ErrInvalidKey, s)
	}

	k := Key{Handle: handle, Offset: off, Source: Source(src)}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// HandlePrefix returns the key prefix shared by every chunk of handle, or ""
// to match all chunks.
func HandlePrefix(handle string) string {
	if handle == "" {
		return ""
	}
	return handle + "/"
}

// Chunk is a stored payload.
type Chunk struct {
	Key

	// XID is the RPC transaction the payload was decoded from.
	XID uint32

	// Truncated is set when the record carried only part of its payload.
	Truncated bool

	Data []byte
}

// ChunkInfo describes a stored chunk without its data.
type ChunkInfo struct {
	Key
	Size int
}

// Store persists payload chunks.
//
// Put copies Data before returning, so callers may pass views into a
// reassembly buffer. Putting an existing key replaces it. Delete of a
// missing key succeeds.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// Put stores a chunk.
	Put(ctx context.Context, chunk *Chunk) error

	// Get returns the chunk stored under key, or ErrChunkNotFound.
	Get(ctx context.Context, key Key) (*Chunk, error)

	// List returns the chunks of handle ordered by offset then source. An
	// empty handle lists every chunk, grouped by handle.
	List(ctx context.Context, handle string) ([]ChunkInfo, error)

	// Delete removes a chunk.
	Delete(ctx context.Context, key Key) error

	// Close releases the store's resources.
	Close() error
}
