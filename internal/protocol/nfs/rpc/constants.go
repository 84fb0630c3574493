package rpc

// RPC Program Numbers
//
// Reference: RFC 1057 (RPC Protocol Specification Version 2)
const (
	// ProgramPortmap is the port mapper program number (RFC 1833).
	ProgramPortmap = 100000

	// ProgramNFS is the NFS program number (RFC 1813).
	ProgramNFS = 100003

	// ProgramMount is the Mount protocol program number (RFC 1813 Appendix I).
	// Mount traffic shares connections with NFS on some clients and is
	// recognised so it can be skipped without a decode error.
	ProgramMount = 100005
)

// Versions this package understands.
const (
	// RPCVersion is the only ONC-RPC version in use (RFC 5531).
	RPCVersion = 2

	// NFSVersion3 is the NFS program version decoded by this module.
	NFSVersion3 = 3
)

// RPC Message Types
//
// Reference: RFC 5531 Section 9 (RPC Message Protocol)
const (
	// RPCCall indicates an RPC call message.
	RPCCall = 0

	// RPCReply indicates an RPC reply message.
	RPCReply = 1
)

// RPC Reply States
const (
	// RPCMsgAccepted indicates the server attempted to run the procedure.
	// The accept_stat tells whether it succeeded.
	RPCMsgAccepted = 0

	// RPCMsgDenied indicates the server rejected the call before running
	// it (RPC version mismatch or authentication failure).
	RPCMsgDenied = 1
)

// RPC Accept Status
//
// When an RPC call is accepted (RPCMsgAccepted), the accept_stat field
// indicates whether the procedure executed successfully or why it failed.
const (
	// RPCSuccess indicates successful RPC execution. Only SUCCESS replies
	// carry procedure results.
	RPCSuccess = 0

	// RPCProgUnavail indicates the program is not exported by the server.
	RPCProgUnavail = 1

	// RPCProgMismatch indicates program version mismatch. The reply
	// includes the range of supported versions (low and high).
	RPCProgMismatch = 2

	// RPCProcUnavail indicates the procedure is unavailable.
	RPCProcUnavail = 3

	// RPCGarbageArgs indicates the server could not decode the arguments.
	RPCGarbageArgs = 4

	// RPCSystemErr indicates a system error on the server.
	RPCSystemErr = 5
)

// RPC Reject Status (MSG_DENIED replies)
const (
	// RPCMismatch means the RPC version was not 2. Low/high follow.
	RPCMismatch = 0

	// RPCAuthError means authentication failed. An auth_stat follows.
	RPCAuthError = 1
)

// Authentication Flavors (RFC 5531 Section 8.2)
const (
	AuthNull  uint32 = 0
	AuthUnix  uint32 = 1
	AuthShort uint32 = 2
	AuthDES   uint32 = 3
)

// MaxAuthBytes is the upper bound on an opaque_auth body (RFC 5531
// Section 8.2). Larger bodies are rejected before anything is allocated.
const MaxAuthBytes = 400

// Record Marking (RFC 5531 Section 11)
const (
	// LastFragmentFlag is the high bit of a record-marking header.
	LastFragmentFlag = 0x80000000

	// FragmentLengthMask extracts the fragment length from the header.
	FragmentLengthMask = 0x7fffffff

	// FragmentHeaderSize is the size of a record-marking header.
	FragmentHeaderSize = 4
)
