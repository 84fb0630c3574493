package records

import (
	"testing"

	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr/xdrtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// entry appends one entryplus3 (without its leading continuation flag).
func entry(b *xdrtest.Builder, fileID uint64, name string, cookie uint64, withAttrs bool, handle []byte) *xdrtest.Builder {
	b.Uint64(fileID).Name(name).Uint64(cookie)
	if withAttrs {
		b.Uint32(1).Attr(0x22)
	} else {
		b.Uint32(0)
	}
	if handle != nil {
		b.Uint32(1).Handle(handle)
	} else {
		b.Uint32(0)
	}
	return b
}

func TestEntryScanner(t *testing.T) {
	t.Run("StopsAtTerminatingFlag", func(t *testing.T) {
		b := xdrtest.New()
		entry(b.Uint32(1), 11, "a.txt", 1, true, fileFH)
		entry(b.Uint32(1), 12, "bb", 2, false, nil)
		b.Uint32(0)
		b.Uint32(1) // eof
		buf := b.Bytes()

		entries, rest, err := CollectEntries(buf)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, uint64(11), entries[0].FileID)
		assert.Equal(t, []byte("a.txt"), entries[0].Name)
		assert.True(t, entries[0].Attributes.Present)
		fh, ok := entries[0].Handle.Get()
		require.True(t, ok)
		assert.Equal(t, fileFH, fh.Value)

		assert.Equal(t, []byte("bb"), entries[1].Name)
		assert.Equal(t, uint64(2), entries[1].Cookie)
		assert.False(t, entries[1].Attributes.Present)
		assert.False(t, entries[1].Handle.Present)

		assert.Equal(t, []byte{0, 0, 0, 1}, rest, "bytes after the sentinel are untouched")
	})

	t.Run("EmptyList", func(t *testing.T) {
		entries, rest, err := CollectEntries(xdrtest.New().Uint32(0).Bytes())
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Empty(t, rest)
	})

	t.Run("InvalidContinuationFlag", func(t *testing.T) {
		b := xdrtest.New()
		entry(b.Uint32(1), 1, "x", 1, false, nil)
		b.Uint32(5)
		entries, _, err := CollectEntries(b.Bytes())
		assert.ErrorIs(t, err, xdr.ErrConstraintViolation)
		assert.Len(t, entries, 1)
	})

	t.Run("TruncatedEntryRewindsToItsFlag", func(t *testing.T) {
		b := xdrtest.New()
		entry(b.Uint32(1), 1, "first", 1, false, nil)
		good := b.Len()
		b.Uint32(1).Uint64(2)
		buf := b.Bytes()

		s := NewEntryScanner(buf)
		require.True(t, s.Next())
		assert.False(t, s.Next())
		assert.ErrorIs(t, s.Err(), xdr.ErrIncomplete)
		assert.Equal(t, buf[good:], s.Rest())
		assert.Equal(t, 1, s.Count())
		assert.False(t, s.Next(), "scanner is not restartable")
	})

	t.Run("InvalidHandleFlagInsideEntry", func(t *testing.T) {
		b := xdrtest.New().Uint32(1).Uint64(1).Name("n").Uint64(1).Uint32(0).Uint32(3)
		_, _, err := CollectEntries(b.Bytes())
		assert.ErrorIs(t, err, xdr.ErrConstraintViolation)
	})

	t.Run("ManyEntriesIterative", func(t *testing.T) {
		b := xdrtest.New()
		const n = 20000
		for i := 0; i < n; i++ {
			entry(b.Uint32(1), uint64(i), "f", uint64(i+1), false, nil)
		}
		b.Uint32(0)

		s := NewEntryScanner(b.Bytes())
		count := 0
		for s.Next() {
			count++
		}
		require.NoError(t, s.Err())
		assert.Equal(t, n, count)
	})
}

func TestReaddirplusReply(t *testing.T) {
	b := xdrtest.New().
		Uint32(types.NFS3OK).
		Uint32(1).Attr(0x33).
		Raw([]byte("VERIFIER"))
	entry(b.Uint32(1), 7, "only", 99, true, dirFH)
	b.Uint32(0).Uint32(1)

	reply, rest, err := DecodeReaddirplusReply(b.Bytes())
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, []byte("VERIFIER"), reply.Verifier)
	assert.True(t, reply.DirAttributes.Present)

	s := reply.Entries()
	require.True(t, s.Next())
	assert.Equal(t, []byte("only"), s.Entry().Name)
	assert.Equal(t, uint64(99), s.Entry().Cookie)
	assert.False(t, s.Next())
	require.NoError(t, s.Err())
	assert.Equal(t, []byte{0, 0, 0, 1}, s.Rest())
}

func TestReaddirplusReplyShortVerifier(t *testing.T) {
	buf := xdrtest.New().Uint32(types.NFS3OK).Uint32(0).Raw([]byte("VERI")).Bytes()
	_, _, err := DecodeReaddirplusReply(buf)
	assert.ErrorIs(t, err, xdr.ErrIncomplete)
}
