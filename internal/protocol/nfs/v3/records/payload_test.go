package records

import (
	"bytes"
	"testing"

	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr/xdrtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeHead builds a WRITE preamble up to and including the data length.
func writeHead(count, stable, dataLen uint32) *xdrtest.Builder {
	return xdrtest.New().
		Handle(fileFH).
		Uint64(8192).
		Uint32(count).
		Uint32(stable).
		Uint32(dataLen)
}

// readHead builds a READ reply preamble up to and including the data length.
func readHead(count uint32, eof uint32, dataLen uint32) *xdrtest.Builder {
	return xdrtest.New().
		Uint32(types.NFS3OK).
		Uint32(1).Attr(0x5a).
		Uint32(count).
		Uint32(eof).
		Uint32(dataLen)
}

// ============================================================================
// WRITE
// ============================================================================

func TestWriteRequestComplete(t *testing.T) {
	t.Run("ExactBufferLeavesEmptyRemainder", func(t *testing.T) {
		payload := []byte("hello, world!")
		buf := writeHead(13, types.WriteFileSync, 13).Raw(payload).Zeros(3).Bytes()

		req, rest, err := DecodeWriteRequest(buf, PayloadComplete)
		require.NoError(t, err)
		assert.Equal(t, payload, req.Data)
		assert.Equal(t, uint32(13), req.DataLen)
		assert.Equal(t, uint64(8192), req.Offset)
		assert.Equal(t, uint32(types.WriteFileSync), req.Stable)
		assert.False(t, req.Truncated)
		assert.Empty(t, rest)
	})

	t.Run("AlignedPayloadHasNoPadding", func(t *testing.T) {
		buf := writeHead(8, types.WriteUnstable, 8).Raw([]byte("12345678")).Uint32(99).Bytes()
		req, rest, err := DecodeWriteRequest(buf, PayloadComplete)
		require.NoError(t, err)
		assert.Equal(t, []byte("12345678"), req.Data)
		assert.Equal(t, []byte{0, 0, 0, 99}, rest)
	})

	t.Run("ShortPayloadIsMalformed", func(t *testing.T) {
		buf := writeHead(16, types.WriteUnstable, 16).Raw([]byte("only-ten-b")).Bytes()
		_, rest, err := DecodeWriteRequest(buf, PayloadComplete)
		assert.ErrorIs(t, err, xdr.ErrMalformed)
		assert.Equal(t, buf, rest)
	})

	t.Run("MissingPaddingIsMalformed", func(t *testing.T) {
		buf := writeHead(5, types.WriteUnstable, 5).Raw([]byte("abcde")).Bytes()
		_, _, err := DecodeWriteRequest(buf, PayloadComplete)
		assert.ErrorIs(t, err, xdr.ErrMalformed)
	})

	t.Run("StableAboveFileSyncIsConstraintViolation", func(t *testing.T) {
		buf := writeHead(4, 3, 4).Raw([]byte("data")).Bytes()
		_, _, err := DecodeWriteRequest(buf, PayloadComplete)
		assert.ErrorIs(t, err, xdr.ErrConstraintViolation)
	})

	t.Run("DataLengthAboveCountIsConstraintViolation", func(t *testing.T) {
		buf := writeHead(4, types.WriteUnstable, 8).Raw([]byte("12345678")).Bytes()
		_, _, err := DecodeWriteRequest(buf, PayloadFragment)
		assert.ErrorIs(t, err, xdr.ErrConstraintViolation)
	})

	t.Run("ShortPreambleIsIncomplete", func(t *testing.T) {
		buf := xdrtest.New().Handle(fileFH).Uint64(0).Bytes()
		_, _, err := DecodeWriteRequest(buf, PayloadFragment)
		assert.ErrorIs(t, err, xdr.ErrIncomplete)
	})
}

func TestWriteRequestFragment(t *testing.T) {
	t.Run("InsufficientBufferReturnsEverything", func(t *testing.T) {
		buf := writeHead(1000, types.WriteUnstable, 1000).Raw(bytes.Repeat([]byte{'w'}, 300)).Bytes()

		req, rest, err := DecodeWriteRequest(buf, PayloadFragment)
		require.NoError(t, err)
		assert.Len(t, req.Data, 300)
		assert.Equal(t, uint32(1000), req.DataLen)
		assert.True(t, req.Truncated)
		assert.Empty(t, rest)
	})

	t.Run("EmptyPayloadSoFar", func(t *testing.T) {
		buf := writeHead(10, types.WriteUnstable, 10).Bytes()
		req, rest, err := DecodeWriteRequest(buf, PayloadFragment)
		require.NoError(t, err)
		assert.Empty(t, req.Data)
		assert.True(t, req.Truncated)
		assert.Empty(t, rest)
	})

	t.Run("SufficientBufferSkipsAvailablePadding", func(t *testing.T) {
		for available := 0; available <= 3; available++ {
			buf := writeHead(5, types.WriteDataSync, 5).Raw([]byte("abcde")).Zeros(available).Bytes()
			req, rest, err := DecodeWriteRequest(buf, PayloadFragment)
			require.NoError(t, err, "padding bytes %d", available)
			assert.Equal(t, []byte("abcde"), req.Data)
			assert.False(t, req.Truncated)
			assert.Empty(t, rest)
		}
	})

	t.Run("TrailingBytesAfterPaddingAreReturned", func(t *testing.T) {
		buf := writeHead(2, types.WriteDataSync, 2).Raw([]byte("hi")).Zeros(2).Raw([]byte("next")).Bytes()
		_, rest, err := DecodeWriteRequest(buf, PayloadFragment)
		require.NoError(t, err)
		assert.Equal(t, []byte("next"), rest)
	})

	t.Run("DataIsAView", func(t *testing.T) {
		buf := writeHead(4, types.WriteUnstable, 4).Raw([]byte("abcd")).Bytes()
		req, _, err := DecodeWriteRequest(buf, PayloadFragment)
		require.NoError(t, err)
		buf[len(buf)-1] = 'Z'
		assert.Equal(t, []byte("abcZ"), req.Data)
	})
}

// ============================================================================
// READ reply
// ============================================================================

func TestReadReply(t *testing.T) {
	t.Run("CompleteConsumesPadding", func(t *testing.T) {
		payload := []byte("0123456789")
		buf := readHead(10, 1, 10).Raw(payload).Zeros(2).Bytes()

		reply, rest, err := DecodeReadReply(buf, PayloadComplete)
		require.NoError(t, err)
		assert.Equal(t, payload, reply.Data)
		assert.True(t, reply.EOF)
		assert.Equal(t, uint32(10), reply.Count)
		assert.True(t, reply.AttrFollows)
		assert.Len(t, reply.Attributes, types.FileAttrSize)
		assert.Equal(t, byte(0x5a), reply.Attributes[0])
		assert.Empty(t, rest)
		assert.Equal(t, uint32(types.NFSProcRead), reply.Procedure())
	})

	t.Run("AttributesConsumedWhenFlagIsZero", func(t *testing.T) {
		buf := xdrtest.New().
			Uint32(types.NFS3OK).
			Uint32(0).Zeros(types.FileAttrSize).
			Uint32(4).Uint32(1).Data([]byte("abcd")).
			Bytes()
		reply, rest, err := DecodeReadReply(buf, PayloadComplete)
		require.NoError(t, err)
		assert.False(t, reply.AttrFollows)
		assert.Len(t, reply.Attributes, types.FileAttrSize)
		assert.Equal(t, uint32(4), reply.Count)
		assert.True(t, reply.EOF)
		assert.Equal(t, []byte("abcd"), reply.Data)
		assert.Empty(t, rest)
	})

	t.Run("SufficientFragmentSkipsAvailablePadding", func(t *testing.T) {
		buf := readHead(5, 0, 5).Raw([]byte("hello")).Zeros(1).Bytes()
		reply, rest, err := DecodeReadReply(buf, PayloadFragment)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), reply.Data)
		assert.False(t, reply.Truncated)
		assert.Empty(t, rest)
	})

	t.Run("SufficientFragmentLeavesBytesAfterPadding", func(t *testing.T) {
		buf := readHead(5, 0, 5).Raw([]byte("hello")).Zeros(3).Uint32(0xfeed).Bytes()
		reply, rest, err := DecodeReadReply(buf, PayloadFragment)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), reply.Data)
		assert.False(t, reply.Truncated)
		assert.Equal(t, []byte{0, 0, 0xfe, 0xed}, rest)
	})

	t.Run("FragmentTruncates", func(t *testing.T) {
		buf := readHead(4096, 0, 4096).Raw(bytes.Repeat([]byte{'r'}, 100)).Bytes()
		reply, rest, err := DecodeReadReply(buf, PayloadFragment)
		require.NoError(t, err)
		assert.Len(t, reply.Data, 100)
		assert.True(t, reply.Truncated)
		assert.Empty(t, rest)
	})

	t.Run("InvalidEOFIsConstraintViolation", func(t *testing.T) {
		buf := readHead(4, 2, 4).Raw([]byte("abcd")).Bytes()
		_, _, err := DecodeReadReply(buf, PayloadComplete)
		assert.ErrorIs(t, err, xdr.ErrConstraintViolation)
	})

	t.Run("InvalidAttributesFlag", func(t *testing.T) {
		buf := xdrtest.New().Uint32(types.NFS3OK).Uint32(7).Bytes()
		_, _, err := DecodeReadReply(buf, PayloadFragment)
		assert.ErrorIs(t, err, xdr.ErrConstraintViolation)
	})

	t.Run("ShortAttributesAreIncomplete", func(t *testing.T) {
		buf := xdrtest.New().Uint32(types.NFS3OK).Uint32(1).Zeros(40).Bytes()
		_, _, err := DecodeReadReply(buf, PayloadFragment)
		assert.ErrorIs(t, err, xdr.ErrIncomplete)
	})
}

func TestPayloadModeString(t *testing.T) {
	assert.Equal(t, "complete", PayloadComplete.String())
	assert.Equal(t, "fragment", PayloadFragment.String())
	assert.Equal(t, "unknown", PayloadMode(9).String())
}
