package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marmos91/nfsinspect/pkg/filestore"
)

// FSFileStore implements filestore.Store on the local filesystem.
//
// Layout:
//
//	<basePath>/<handle hex>/<offset, 20 digits>.<source>
//
// Each file holds filestore.EncodeValue output, so the XID and truncation
// flag survive restarts. Chunk files are written to a temporary name and
// renamed into place.
//
// Thread Safety:
// Concurrent operations on different keys are safe. Concurrent Puts of the
// same key are last-write-wins.
type FSFileStore struct {
	basePath string
}

// NewFSFileStore creates the base directory if needed and returns a store
// rooted there.
func NewFSFileStore(ctx context.Context, basePath string) (*FSFileStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSFileStore{basePath: basePath}, nil
}

// getFilePath returns the path of the file holding key.
func (s *FSFileStore) getFilePath(key filestore.Key) string {
	return filepath.Join(s.basePath, key.Handle, fmt.Sprintf("%020d.%s", key.Offset, key.Source))
}

// Put writes chunk to its file.
func (s *FSFileStore) Put(ctx context.Context, chunk *filestore.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chunk.Validate(); err != nil {
		return err
	}

	path := s.getFilePath(chunk.Key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create handle directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, filestore.EncodeValue(chunk), 0644); err != nil {
		return fmt.Errorf("failed to write chunk %s: %w", chunk.Key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to commit chunk %s: %w", chunk.Key, err)
	}
	return nil
}

// Get reads the chunk stored under key.
func (s *FSFileStore) Get(ctx context.Context, key filestore.Key) (*filestore.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(s.getFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("chunk %s: %w", key, filestore.ErrChunkNotFound)
		}
		return nil, fmt.Errorf("failed to read chunk %s: %w", key, err)
	}
	return filestore.DecodeValue(key, b)
}

// List walks the handle directories.
func (s *FSFileStore) List(ctx context.Context, handle string) ([]filestore.ChunkInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var handles []string
	if handle != "" {
		handles = []string{handle}
	} else {
		entries, err := os.ReadDir(s.basePath)
		if err != nil {
			return nil, fmt.Errorf("failed to list base directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				handles = append(handles, e.Name())
			}
		}
		sort.Strings(handles)
	}

	var infos []filestore.ChunkInfo
	for _, h := range handles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entries, err := os.ReadDir(filepath.Join(s.basePath, h))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to list handle %s: %w", h, err)
		}

		// ReadDir sorts by name, which is offset order thanks to padding.
		for _, e := range entries {
			if e.IsDir() || strings.HasSuffix(e.Name(), ".tmp") {
				continue
			}
			key, err := filestore.ParseKey(h + "/" + e.Name())
			if err != nil {
				continue
			}
			fi, err := e.Info()
			if err != nil {
				return nil, fmt.Errorf("failed to stat chunk %s: %w", key, err)
			}
			size := int(fi.Size()) - filestore.HeaderSize
			if size < 0 {
				size = 0
			}
			infos = append(infos, filestore.ChunkInfo{Key: key, Size: size})
		}
	}
	return infos, nil
}

// Delete removes key's file and, when it was the last chunk, the handle
// directory.
func (s *FSFileStore) Delete(ctx context.Context, key filestore.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := key.Validate(); err != nil {
		return err
	}

	path := s.getFilePath(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete chunk %s: %w", key, err)
	}

	// Fails harmlessly while other chunks remain.
	_ = os.Remove(filepath.Dir(path))
	return nil
}

// Close is a no-op; the store holds no open files.
func (s *FSFileStore) Close() error {
	return nil
}
