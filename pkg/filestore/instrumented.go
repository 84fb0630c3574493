package filestore

import (
	"context"
	"time"

	"github.com/marmos91/nfsinspect/pkg/metrics"
)

// instrumentedStore reports every operation of the wrapped store.
type instrumentedStore struct {
	Store
	name    string
	metrics metrics.FileStoreMetrics
}

// WithMetrics wraps store so that each operation is reported to m under the
// given store name. A nil m returns store unchanged.
func WithMetrics(store Store, name string, m metrics.FileStoreMetrics) Store {
	if m == nil {
		return store
	}
	return &instrumentedStore{Store: store, name: name, metrics: m}
}

func (s *instrumentedStore) Put(ctx context.Context, chunk *Chunk) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation(s.name, "put", time.Since(start), len(chunk.Data), err)
	}()
	return s.Store.Put(ctx, chunk)
}

func (s *instrumentedStore) Get(ctx context.Context, key Key) (chunk *Chunk, err error) {
	start := time.Now()
	defer func() {
		n := 0
		if chunk != nil {
			n = len(chunk.Data)
		}
		s.metrics.ObserveOperation(s.name, "get", time.Since(start), n, err)
	}()
	return s.Store.Get(ctx, key)
}

func (s *instrumentedStore) List(ctx context.Context, handle string) (infos []ChunkInfo, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation(s.name, "list", time.Since(start), 0, err)
	}()
	return s.Store.List(ctx, handle)
}

func (s *instrumentedStore) Delete(ctx context.Context, key Key) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation(s.name, "delete", time.Since(start), 0, err)
	}()
	return s.Store.Delete(ctx, key)
}
