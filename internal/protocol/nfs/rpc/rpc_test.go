package rpc

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr/xdrtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

func validAuthUnixCredentials() *UnixAuth {
	return &UnixAuth{
		Stamp:       uint32(time.Now().Unix()),
		MachineName: "testhost",
		UID:         1000,
		GID:         1000,
		GIDs:        []uint32{4, 24, 27, 30},
	}
}

func encodeAuthUnix(auth *UnixAuth) []byte {
	buf := new(bytes.Buffer)

	_ = binary.Write(buf, binary.BigEndian, auth.Stamp)

	nameLen := uint32(len(auth.MachineName))
	_ = binary.Write(buf, binary.BigEndian, nameLen)
	buf.WriteString(auth.MachineName)
	padding := (4 - (nameLen % 4)) % 4
	for i := uint32(0); i < padding; i++ {
		buf.WriteByte(0)
	}

	_ = binary.Write(buf, binary.BigEndian, auth.UID)
	_ = binary.Write(buf, binary.BigEndian, auth.GID)

	_ = binary.Write(buf, binary.BigEndian, uint32(len(auth.GIDs)))
	for _, gid := range auth.GIDs {
		_ = binary.Write(buf, binary.BigEndian, gid)
	}

	return buf.Bytes()
}

// ============================================================================
// ParseUnixAuth Tests
// ============================================================================

func TestParseUnixAuth(t *testing.T) {
	t.Run("ParsesValidCredentials", func(t *testing.T) {
		original := validAuthUnixCredentials()
		body := encodeAuthUnix(original)

		parsed, err := ParseUnixAuth(body)
		require.NoError(t, err)
		assert.Equal(t, original.Stamp, parsed.Stamp)
		assert.Equal(t, original.MachineName, parsed.MachineName)
		assert.Equal(t, original.UID, parsed.UID)
		assert.Equal(t, original.GID, parsed.GID)
		assert.Equal(t, original.GIDs, parsed.GIDs)
	})

	t.Run("ParsesRootCredentials", func(t *testing.T) {
		auth := &UnixAuth{
			Stamp:       uint32(time.Now().Unix()),
			MachineName: "testhost",
			UID:         0,
			GID:         0,
			GIDs:        []uint32{},
		}
		body := encodeAuthUnix(auth)

		parsed, err := ParseUnixAuth(body)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), parsed.UID)
		assert.Equal(t, uint32(0), parsed.GID)
		assert.Empty(t, parsed.GIDs)
	})

	t.Run("ParsesWithMaximumGroups", func(t *testing.T) {
		gids := make([]uint32, 16)
		for i := range gids {
			gids[i] = uint32(i + 1000)
		}

		auth := &UnixAuth{
			Stamp:       12345,
			MachineName: "testhost",
			UID:         1000,
			GID:         1000,
			GIDs:        gids,
		}
		body := encodeAuthUnix(auth)

		parsed, err := ParseUnixAuth(body)
		require.NoError(t, err)
		assert.Len(t, parsed.GIDs, 16)
		assert.Equal(t, gids, parsed.GIDs)
	})

	t.Run("RejectsExcessiveGroups", func(t *testing.T) {
		buf := new(bytes.Buffer)
		_ = binary.Write(buf, binary.BigEndian, uint32(12345))
		_ = binary.Write(buf, binary.BigEndian, uint32(8))
		_, _ = buf.WriteString("testhost")
		_ = binary.Write(buf, binary.BigEndian, uint32(1000))
		_ = binary.Write(buf, binary.BigEndian, uint32(1000))
		_ = binary.Write(buf, binary.BigEndian, uint32(17)) // Too many groups

		_, err := ParseUnixAuth(buf.Bytes())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too many gids")
	})

	t.Run("RejectsLongMachineName", func(t *testing.T) {
		buf := new(bytes.Buffer)
		_ = binary.Write(buf, binary.BigEndian, uint32(12345))
		_ = binary.Write(buf, binary.BigEndian, uint32(256)) // Too long

		_, err := ParseUnixAuth(buf.Bytes())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "machine name too long")
	})

	t.Run("RejectsEmptyBody", func(t *testing.T) {
		_, err := ParseUnixAuth([]byte{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("HandlesEmptyMachineName", func(t *testing.T) {
		auth := &UnixAuth{
			Stamp:       12345,
			MachineName: "",
			UID:         1000,
			GID:         1000,
			GIDs:        []uint32{},
		}
		body := encodeAuthUnix(auth)

		parsed, err := ParseUnixAuth(body)
		require.NoError(t, err)
		assert.Equal(t, "", parsed.MachineName)
	})
}

// ============================================================================
// UnixAuthString Tests
// ============================================================================

func TestUnixAuthString(t *testing.T) {
	t.Run("FormatsCorrectly", func(t *testing.T) {
		auth := &UnixAuth{
			Stamp:       12345,
			MachineName: "testhost",
			UID:         1000,
			GID:         1000,
			GIDs:        []uint32{4, 24, 27, 30},
		}

		str := auth.String()
		assert.Contains(t, str, "testhost")
		assert.Contains(t, str, "1000")
		assert.Contains(t, str, "[4 24 27 30]")
	})

	t.Run("FormatsEmptyGroups", func(t *testing.T) {
		auth := &UnixAuth{
			Stamp:       12345,
			MachineName: "testhost",
			UID:         1000,
			GID:         1000,
			GIDs:        []uint32{},
		}

		str := auth.String()
		assert.Contains(t, str, "testhost")
		assert.Contains(t, str, "[]")
	})
}

// ============================================================================
// AuthFlavors Tests
// ============================================================================

func TestAuthFlavors(t *testing.T) {
	t.Run("AuthNullValue", func(t *testing.T) {
		assert.Equal(t, uint32(0), AuthNull)
	})

	t.Run("AuthUnixValue", func(t *testing.T) {
		assert.Equal(t, uint32(1), AuthUnix)
	})

	t.Run("AuthShortValue", func(t *testing.T) {
		assert.Equal(t, uint32(2), AuthShort)
	})

	t.Run("AuthDESValue", func(t *testing.T) {
		assert.Equal(t, uint32(3), AuthDES)
	})

	t.Run("FlavorsAreUnique", func(t *testing.T) {
		flavors := []uint32{AuthNull, AuthUnix, AuthShort, AuthDES}

		seen := make(map[uint32]bool)
		for _, flavor := range flavors {
			assert.False(t, seen[flavor], "flavor %d is not unique", flavor)
			seen[flavor] = true
		}
	})
}

// ============================================================================
// Call Header Tests
// ============================================================================

func nfsCall(xid, proc uint32, cred OpaqueAuth) *RPCCallMessage {
	return &RPCCallMessage{
		XID:        xid,
		MsgType:    RPCCall,
		RPCVersion: RPCVersion,
		Program:    ProgramNFS,
		Version:    NFSVersion3,
		Procedure:  proc,
		Cred:       cred,
		Verf:       OpaqueAuth{Flavor: AuthNull, Body: []byte{}},
	}
}

func TestReadCall(t *testing.T) {
	t.Run("ParsesHeaderAndArguments", func(t *testing.T) {
		cred := OpaqueAuth{Flavor: AuthUnix, Body: encodeAuthUnix(validAuthUnixCredentials())}
		msg := xdrtest.New().XDR(nfsCall(0x1234, 6, cred)).Raw([]byte("ARGS")).Bytes()

		call, err := ReadCall(msg)
		require.NoError(t, err)
		assert.Equal(t, uint32(0x1234), call.XID)
		assert.Equal(t, uint32(6), call.Procedure)
		assert.True(t, call.IsNFSv3())
		assert.Equal(t, AuthUnix, call.GetAuthFlavor())

		auth, err := ParseUnixAuth(call.GetAuthBody())
		require.NoError(t, err)
		assert.Equal(t, "testhost", auth.MachineName)

		args, err := ReadData(msg)
		require.NoError(t, err)
		assert.Equal(t, []byte("ARGS"), args)
	})

	t.Run("PaddedCredential", func(t *testing.T) {
		cred := OpaqueAuth{Flavor: 7, Body: []byte{1, 2, 3, 4, 5}}
		msg := xdrtest.New().XDR(nfsCall(1, 0, cred)).Bytes()

		call, err := ReadCall(msg)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3, 4, 5}, call.Cred.Body)

		args, err := ReadData(msg)
		require.NoError(t, err)
		assert.Empty(t, args)
	})

	t.Run("RejectsReply", func(t *testing.T) {
		m := nfsCall(1, 0, OpaqueAuth{Body: []byte{}})
		m.MsgType = RPCReply
		_, err := ReadCall(xdrtest.New().XDR(m).Bytes())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected CALL")
	})

	t.Run("RejectsWrongRPCVersion", func(t *testing.T) {
		m := nfsCall(1, 0, OpaqueAuth{Body: []byte{}})
		m.RPCVersion = 3
		_, err := ReadCall(xdrtest.New().XDR(m).Bytes())
		assert.Error(t, err)
	})

	t.Run("TruncatedHeaderIsIncomplete", func(t *testing.T) {
		_, err := ReadCall(make([]byte, 20))
		assert.ErrorIs(t, err, xdr.ErrIncomplete)
	})

	t.Run("OversizedCredentialIsRejected", func(t *testing.T) {
		msg := xdrtest.New().
			Uint32(1).Uint32(RPCCall).Uint32(RPCVersion).
			Uint32(ProgramNFS).Uint32(NFSVersion3).Uint32(0).
			Uint32(AuthUnix).Uint32(0xfffffff0).
			Bytes()
		_, err := ReadCall(msg)
		assert.ErrorIs(t, err, xdr.ErrConstraintViolation)

		_, err = ReadData(msg)
		assert.ErrorIs(t, err, xdr.ErrConstraintViolation)
	})

	t.Run("CredentialOverrunIsMalformed", func(t *testing.T) {
		msg := xdrtest.New().
			Uint32(1).Uint32(RPCCall).Uint32(RPCVersion).
			Uint32(ProgramNFS).Uint32(NFSVersion3).Uint32(0).
			Uint32(AuthUnix).Uint32(100).Zeros(8).
			Bytes()
		_, err := ReadData(msg)
		assert.ErrorIs(t, err, xdr.ErrMalformed)
	})
}

// ============================================================================
// Reply Header Tests
// ============================================================================

func TestReadReply(t *testing.T) {
	t.Run("AcceptedSuccessReturnsBody", func(t *testing.T) {
		msg := xdrtest.New().
			Uint32(0xabc).Uint32(RPCReply).Uint32(RPCMsgAccepted).
			Uint32(AuthNull).Uint32(0).
			Uint32(RPCSuccess).
			Raw([]byte("RESULTS")).
			Bytes()

		reply, body, err := ReadReply(msg)
		require.NoError(t, err)
		assert.Equal(t, uint32(0xabc), reply.XID)
		assert.True(t, reply.Succeeded())
		assert.Equal(t, []byte("RESULTS"), body)
		assert.Contains(t, reply.String(), "accepted")
	})

	t.Run("ProgMismatchCarriesRange", func(t *testing.T) {
		msg := xdrtest.New().
			Uint32(7).Uint32(RPCReply).Uint32(RPCMsgAccepted).
			Uint32(AuthNull).Uint32(0).
			Uint32(RPCProgMismatch).Uint32(2).Uint32(3).
			Bytes()

		reply, body, err := ReadReply(msg)
		require.NoError(t, err)
		assert.False(t, reply.Succeeded())
		assert.Equal(t, uint32(2), reply.MismatchLow)
		assert.Equal(t, uint32(3), reply.MismatchHigh)
		assert.Empty(t, body)
	})

	t.Run("DeniedAuthError", func(t *testing.T) {
		msg := xdrtest.New().
			Uint32(9).Uint32(RPCReply).Uint32(RPCMsgDenied).
			Uint32(RPCAuthError).Uint32(1).
			Bytes()

		reply, body, err := ReadReply(msg)
		require.NoError(t, err)
		assert.Equal(t, uint32(RPCAuthError), reply.RejectStat)
		assert.Equal(t, uint32(1), reply.AuthStat)
		assert.Nil(t, body)
		assert.Contains(t, reply.String(), "denied")
	})

	t.Run("InvalidReplyStateIsConstraintViolation", func(t *testing.T) {
		msg := xdrtest.New().Uint32(9).Uint32(RPCReply).Uint32(2).Bytes()
		_, _, err := ReadReply(msg)
		assert.ErrorIs(t, err, xdr.ErrConstraintViolation)
	})

	t.Run("RejectsCall", func(t *testing.T) {
		msg := xdrtest.New().Uint32(9).Uint32(RPCCall).Uint32(0).Bytes()
		_, _, err := ReadReply(msg)
		assert.Error(t, err)
	})

	t.Run("TruncatedVerifier", func(t *testing.T) {
		msg := xdrtest.New().
			Uint32(9).Uint32(RPCReply).Uint32(RPCMsgAccepted).
			Uint32(AuthShort).Uint32(8).Zeros(4).
			Bytes()
		_, _, err := ReadReply(msg)
		assert.ErrorIs(t, err, xdr.ErrMalformed)
	})
}

func TestParseFragmentHeader(t *testing.T) {
	length, last := ParseFragmentHeader(0x80000064)
	assert.Equal(t, uint32(100), length)
	assert.True(t, last)

	length, last = ParseFragmentHeader(0x00001000)
	assert.Equal(t, uint32(4096), length)
	assert.False(t, last)
}
