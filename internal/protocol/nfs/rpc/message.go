package rpc

import "fmt"

// RPCCallMessage represents an RPC call (request) header.
//
// Wire Format (XDR encoding):
//   - XID:        4 bytes (transaction identifier)
//   - MsgType:    4 bytes (must be 0 for CALL)
//   - RPCVersion: 4 bytes (must be 2 for RPC version 2)
//   - Program:    4 bytes (program number)
//   - Version:    4 bytes (program version)
//   - Procedure:  4 bytes (procedure number within program)
//   - Cred:       variable (authentication credentials)
//   - Verf:       variable (authentication verifier)
//   - [procedure-specific parameters follow]
//
// Reference: RFC 5531 Section 9 (RPC Protocol Specification)
type RPCCallMessage struct {
	// XID identifies the transaction. A passive observer uses it to pair
	// a reply with the call that caused it.
	XID uint32

	// MsgType is always RPCCall for this struct.
	MsgType uint32

	// RPCVersion must be 2.
	RPCVersion uint32

	// Program identifies the RPC service (ProgramNFS, ProgramMount, ...).
	Program uint32

	// Version is the program version. NFSVersion3 for the traffic this
	// module decodes.
	Version uint32

	// Procedure identifies the operation within the program.
	Procedure uint32

	// Cred contains the client's credentials (AUTH_NULL, AUTH_UNIX, ...).
	Cred OpaqueAuth

	// Verf contains the client's verifier, usually AUTH_NULL.
	Verf OpaqueAuth
}

// IsNFSv3 reports whether the call targets NFS version 3.
func (c *RPCCallMessage) IsNFSv3() bool {
	return c.Program == ProgramNFS && c.Version == NFSVersion3
}

// GetAuthFlavor returns the authentication flavor from the call credentials.
func (c *RPCCallMessage) GetAuthFlavor() uint32 {
	return c.Cred.Flavor
}

// GetAuthBody returns the raw credential body. For AUTH_UNIX, decode it with
// ParseUnixAuth.
func (c *RPCCallMessage) GetAuthBody() []byte {
	return c.Cred.Body
}

// RPCReplyMessage represents an RPC reply header.
//
// Wire Format (XDR encoding):
//   - XID:        4 bytes (transaction identifier, echoed from call)
//   - MsgType:    4 bytes (must be 1 for REPLY)
//   - ReplyState: 4 bytes (0=MSG_ACCEPTED, 1=MSG_DENIED)
//   - [if MSG_ACCEPTED:]
//   - Verf:       variable (authentication verifier)
//   - AcceptStat: 4 bytes (0=SUCCESS, 1=PROG_UNAVAIL, etc.)
//   - [if SUCCESS: procedure results follow]
//   - [if PROG_MISMATCH: version range follows]
//   - [if MSG_DENIED: reject_stat, then mismatch range or auth_stat]
//
// Only the fields that apply to the reply's state are set.
type RPCReplyMessage struct {
	XID        uint32
	MsgType    uint32
	ReplyState uint32

	// Verf and AcceptStat are set when ReplyState is RPCMsgAccepted.
	Verf       OpaqueAuth
	AcceptStat uint32

	// RejectStat is set when ReplyState is RPCMsgDenied.
	RejectStat uint32

	// MismatchLow and MismatchHigh carry the supported range for
	// PROG_MISMATCH and RPC_MISMATCH replies.
	MismatchLow  uint32
	MismatchHigh uint32

	// AuthStat is set for AUTH_ERROR rejections.
	AuthStat uint32
}

// Succeeded reports whether the reply carries procedure results.
func (r *RPCReplyMessage) Succeeded() bool {
	return r.ReplyState == RPCMsgAccepted && r.AcceptStat == RPCSuccess
}

// String renders a short summary for logs.
func (r *RPCReplyMessage) String() string {
	if r.ReplyState == RPCMsgDenied {
		return fmt.Sprintf("xid=0x%08x denied reject_stat=%d", r.XID, r.RejectStat)
	}
	return fmt.Sprintf("xid=0x%08x accepted accept_stat=%d", r.XID, r.AcceptStat)
}

// OpaqueAuth represents authentication credentials or verifiers.
//
// Reference: RFC 5531 Section 8 (Authentication)
type OpaqueAuth struct {
	// Flavor identifies the authentication scheme (AuthNull, AuthUnix, ...).
	Flavor uint32

	// Body contains the flavor-specific authentication data.
	//
	// The xdr:"opaque" tag indicates this is a variable-length opaque byte array
	// in XDR encoding (length prefix followed by data and padding).
	Body []byte `xdr:"opaque"`
}
