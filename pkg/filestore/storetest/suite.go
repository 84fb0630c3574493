// Package storetest is a conformance suite for filestore.Store
// implementations.
package storetest

import (
	"context"
	"testing"

	"github.com/marmos91/nfsinspect/pkg/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite tests the filestore.Store contract, not implementation
// details, so it runs unchanged against every backend.
//
// Usage:
//
//	func TestMyStore(t *testing.T) {
//	    suite := &storetest.StoreTestSuite{
//	        NewStore: func(t *testing.T) filestore.Store {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test.
	NewStore func(t *testing.T) filestore.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("PutGet", suite.testPutGet)
	t.Run("PutCopiesData", suite.testPutCopiesData)
	t.Run("Overwrite", suite.testOverwrite)
	t.Run("GetMissing", suite.testGetMissing)
	t.Run("ListOrder", suite.testListOrder)
	t.Run("Delete", suite.testDelete)
	t.Run("InvalidKey", suite.testInvalidKey)
	t.Run("CancelledContext", suite.testCancelledContext)
}

// Fixed handles used across the suite.
const (
	HandleA = "deadbeef"
	HandleB = "0102030405060708"
)

func testContext() context.Context {
	return context.Background()
}

func (suite *StoreTestSuite) newStore(t *testing.T) filestore.Store {
	t.Helper()
	store := suite.NewStore(t)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustPut(t *testing.T, store filestore.Store, chunk *filestore.Chunk) {
	t.Helper()
	require.NoError(t, store.Put(testContext(), chunk), "Put should succeed")
}

func chunk(handle string, offset uint64, src filestore.Source, data string) *filestore.Chunk {
	return &filestore.Chunk{
		Key:  filestore.Key{Handle: handle, Offset: offset, Source: src},
		XID:  uint32(offset) + 1,
		Data: []byte(data),
	}
}

func (suite *StoreTestSuite) testPutGet(t *testing.T) {
	store := suite.newStore(t)
	c := chunk(HandleA, 4096, filestore.SourceWrite, "hello")
	c.Truncated = true
	mustPut(t, store, c)

	got, err := store.Get(testContext(), c.Key)
	require.NoError(t, err)
	assert.Equal(t, c.Key, got.Key)
	assert.Equal(t, []byte("hello"), got.Data)
	assert.Equal(t, uint32(4097), got.XID)
	assert.True(t, got.Truncated)
}

func (suite *StoreTestSuite) testPutCopiesData(t *testing.T) {
	store := suite.newStore(t)
	c := chunk(HandleA, 0, filestore.SourceRead, "abc")
	mustPut(t, store, c)
	c.Data[0] = 'z'

	got, err := store.Get(testContext(), c.Key)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got.Data)
}

func (suite *StoreTestSuite) testOverwrite(t *testing.T) {
	store := suite.newStore(t)
	mustPut(t, store, chunk(HandleA, 0, filestore.SourceWrite, "first"))
	mustPut(t, store, chunk(HandleA, 0, filestore.SourceWrite, "second"))

	got, err := store.Get(testContext(), filestore.Key{Handle: HandleA, Source: filestore.SourceWrite})
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got.Data)

	infos, err := store.List(testContext(), HandleA)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func (suite *StoreTestSuite) testGetMissing(t *testing.T) {
	store := suite.newStore(t)
	_, err := store.Get(testContext(), filestore.Key{Handle: HandleA, Source: filestore.SourceRead})
	assert.ErrorIs(t, err, filestore.ErrChunkNotFound)
}

func (suite *StoreTestSuite) testListOrder(t *testing.T) {
	store := suite.newStore(t)
	mustPut(t, store, chunk(HandleA, 65536, filestore.SourceWrite, "c"))
	mustPut(t, store, chunk(HandleA, 8192, filestore.SourceWrite, "bb"))
	mustPut(t, store, chunk(HandleA, 8192, filestore.SourceRead, "b"))
	mustPut(t, store, chunk(HandleB, 0, filestore.SourceWrite, "other"))

	infos, err := store.List(testContext(), HandleA)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, uint64(8192), infos[0].Offset)
	assert.Equal(t, filestore.SourceRead, infos[0].Source)
	assert.Equal(t, filestore.SourceWrite, infos[1].Source)
	assert.Equal(t, 2, infos[1].Size)
	assert.Equal(t, uint64(65536), infos[2].Offset)

	all, err := store.List(testContext(), "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := store.List(testContext(), "ffff")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func (suite *StoreTestSuite) testDelete(t *testing.T) {
	store := suite.newStore(t)
	c := chunk(HandleB, 512, filestore.SourceRead, "gone")
	mustPut(t, store, c)

	require.NoError(t, store.Delete(testContext(), c.Key))
	_, err := store.Get(testContext(), c.Key)
	assert.ErrorIs(t, err, filestore.ErrChunkNotFound)

	require.NoError(t, store.Delete(testContext(), c.Key), "deleting twice succeeds")
}

func (suite *StoreTestSuite) testInvalidKey(t *testing.T) {
	store := suite.newStore(t)
	err := store.Put(testContext(), chunk("", 0, filestore.SourceRead, "x"))
	assert.ErrorIs(t, err, filestore.ErrInvalidKey)

	err = store.Put(testContext(), chunk(HandleA, 0, "other", "x"))
	assert.ErrorIs(t, err, filestore.ErrInvalidKey)
}

func (suite *StoreTestSuite) testCancelledContext(t *testing.T) {
	store := suite.newStore(t)
	ctx, cancel := context.WithCancel(testContext())
	cancel()

	err := store.Put(ctx, chunk(HandleA, 0, filestore.SourceRead, "x"))
	assert.ErrorIs(t, err, context.Canceled)
}
