package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/nfsinspect/pkg/filestore"
	"github.com/marmos91/nfsinspect/pkg/filestore/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSFileStore(t *testing.T) {
	suite := &storetest.StoreTestSuite{
		NewStore: func(t *testing.T) filestore.Store {
			store, err := NewFSFileStore(context.Background(), t.TempDir())
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

func TestFSFileStoreLayout(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store, err := NewFSFileStore(ctx, base)
	require.NoError(t, err)

	key := filestore.Key{Handle: storetest.HandleA, Offset: 42, Source: filestore.SourceRead}
	require.NoError(t, store.Put(ctx, &filestore.Chunk{Key: key, Data: []byte("data")}))

	path := filepath.Join(base, storetest.HandleA, "00000000000000000042.read")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, b, filestore.HeaderSize+4)

	t.Run("IgnoresStrayFiles", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(base, storetest.HandleA, "junk"), nil, 0644))
		infos, err := store.List(ctx, storetest.HandleA)
		require.NoError(t, err)
		assert.Len(t, infos, 1)
	})

	t.Run("DeleteRemovesEmptyHandleDir", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(base, storetest.HandleA, "junk")))
		require.NoError(t, store.Delete(ctx, key))
		_, err := os.Stat(filepath.Join(base, storetest.HandleA))
		assert.True(t, os.IsNotExist(err))
	})
}
