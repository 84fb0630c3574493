package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/marmos91/nfsinspect/pkg/filestore"
)

// MemoryFileStore implements filestore.Store using in-memory storage.
//
// This implementation is designed for:
//   - Testing and development
//   - Short captures whose payloads fit in RAM
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Data is copied on Put and
// on Get, so callers never share buffers with the store.
type MemoryFileStore struct {
	// chunks is keyed by filestore.Key.String()
	chunks map[string]*filestore.Chunk

	// size is the sum of stored payload bytes
	size uint64

	// maxSize bounds size; 0 means unlimited
	maxSize uint64

	mu sync.RWMutex
}

// NewMemoryFileStore creates an empty store holding at most maxSize payload
// bytes (0 means unlimited).
func NewMemoryFileStore(ctx context.Context, maxSize uint64) (*MemoryFileStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &MemoryFileStore{
		chunks:  make(map[string]*filestore.Chunk),
		maxSize: maxSize,
	}, nil
}

// Put stores a copy of chunk.
func (s *MemoryFileStore) Put(ctx context.Context, chunk *filestore.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chunk.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := chunk.Key.String()
	newSize := s.size + uint64(len(chunk.Data))
	if old, ok := s.chunks[id]; ok {
		newSize -= uint64(len(old.Data))
	}
	if s.maxSize > 0 && newSize > s.maxSize {
		return fmt.Errorf("memory store full: %d of %d bytes used", s.size, s.maxSize)
	}

	stored := *chunk
	stored.Data = bytes.Clone(chunk.Data)
	s.chunks[id] = &stored
	s.size = newSize
	return nil
}

// Get returns a copy of the chunk stored under key.
func (s *MemoryFileStore) Get(ctx context.Context, key filestore.Key) (*filestore.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.chunks[key.String()]
	if !ok {
		return nil, fmt.Errorf("chunk %s: %w", key, filestore.ErrChunkNotFound)
	}

	out := *stored
	out.Data = bytes.Clone(stored.Data)
	return &out, nil
}

// List returns the chunks of handle in key order.
func (s *MemoryFileStore) List(ctx context.Context, handle string) ([]filestore.ChunkInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := filestore.HandlePrefix(handle)

	s.mu.RLock()
	ids := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	infos := make([]filestore.ChunkInfo, 0, len(ids))
	for _, id := range ids {
		c := s.chunks[id]
		infos = append(infos, filestore.ChunkInfo{Key: c.Key, Size: len(c.Data)})
	}
	s.mu.RUnlock()

	return infos, nil
}

// Delete removes the chunk stored under key, if any.
func (s *MemoryFileStore) Delete(ctx context.Context, key filestore.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := key.String()
	if old, ok := s.chunks[id]; ok {
		s.size -= uint64(len(old.Data))
		delete(s.chunks, id)
	}
	return nil
}

// Size returns the number of payload bytes held.
func (s *MemoryFileStore) Size() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Close drops all chunks.
func (s *MemoryFileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[string]*filestore.Chunk)
	s.size = 0
	return nil
}
