package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/nfsinspect/internal/logger"
	"github.com/marmos91/nfsinspect/pkg/filestore"
)

// keyPrefix namespaces chunk keys inside the database.
const keyPrefix = "chunk:"

// metaTruncated is stored in the entry's user meta byte.
const metaTruncated byte = 0x01

// BadgerFileStore implements filestore.Store using BadgerDB.
//
// Storage Model:
//   - key: "chunk:" + filestore.Key.String()
//   - value: XID (4 bytes, big-endian) followed by the payload
//   - user meta: truncation flag
//
// Keys sort by handle then offset, so List is a single prefix scan.
//
// Thread Safety:
// BadgerDB transactions make every operation safe for concurrent use.
type BadgerFileStore struct {
	db *badger.DB
}

// BadgerFileStoreConfig contains configuration for the BadgerDB store.
type BadgerFileStoreConfig struct {
	// DBPath is the directory holding the database. Ignored when InMemory.
	DBPath string

	// InMemory keeps the database in RAM only.
	InMemory bool

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64

	// Compression enables ZSTD compression of value log blocks.
	Compression bool
}

// NewBadgerFileStore opens (or creates) a BadgerDB-backed store.
func NewBadgerFileStore(ctx context.Context, config BadgerFileStoreConfig) (*BadgerFileStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.DBPath == "" {
			return nil, fmt.Errorf("badger file store: db path is required")
		}
		opts = badger.DefaultOptions(config.DBPath)
	}

	opts = opts.WithLoggingLevel(badger.WARNING)

	// Payloads are often already compressed or random; keep it opt-in.
	if config.Compression {
		opts = opts.WithCompression(options.ZSTD)
	} else {
		opts = opts.WithCompression(options.None)
	}

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	logger.Debug("Badger file store opened: path=%q in_memory=%v", config.DBPath, config.InMemory)
	return &BadgerFileStore{db: db}, nil
}

func dbKey(key filestore.Key) []byte {
	return []byte(keyPrefix + key.String())
}

// Put stores chunk in a single transaction.
func (s *BadgerFileStore) Put(ctx context.Context, chunk *filestore.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chunk.Validate(); err != nil {
		return err
	}

	value := make([]byte, 4+len(chunk.Data))
	binary.BigEndian.PutUint32(value, chunk.XID)
	copy(value[4:], chunk.Data)

	var meta byte
	if chunk.Truncated {
		meta = metaTruncated
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(dbKey(chunk.Key), value).WithMeta(meta))
	})
	if err != nil {
		return fmt.Errorf("failed to store chunk %s: %w", chunk.Key, err)
	}
	return nil
}

// Get reads the chunk stored under key.
func (s *BadgerFileStore) Get(ctx context.Context, key filestore.Key) (*filestore.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunk := &filestore.Chunk{Key: key}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(key))
		if err != nil {
			return err
		}
		chunk.Truncated = item.UserMeta()&metaTruncated != 0

		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if len(value) < 4 {
			return fmt.Errorf("chunk %s: value is %d bytes", key, len(value))
		}
		chunk.XID = binary.BigEndian.Uint32(value)
		chunk.Data = value[4:]
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("chunk %s: %w", key, filestore.ErrChunkNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk %s: %w", key, err)
	}
	return chunk, nil
}

// List scans the keys of handle without loading values.
func (s *BadgerFileStore) List(ctx context.Context, handle string) ([]filestore.ChunkInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(keyPrefix + filestore.HandlePrefix(handle))

	var infos []filestore.ChunkInfo
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key, err := filestore.ParseKey(string(item.Key()[len(keyPrefix):]))
			if err != nil {
				logger.Warn("Skipping unreadable chunk key %q: %v", item.Key(), err)
				continue
			}
			size := int(item.ValueSize()) - 4
			if size < 0 {
				size = 0
			}
			infos = append(infos, filestore.ChunkInfo{Key: key, Size: size})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	return infos, nil
}

// Delete removes the chunk stored under key.
func (s *BadgerFileStore) Delete(ctx context.Context, key filestore.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(dbKey(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete chunk %s: %w", key, err)
	}
	return nil
}

// Close flushes and closes the database.
func (s *BadgerFileStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}
