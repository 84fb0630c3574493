package nfs

import (
	"errors"
	"fmt"

	"github.com/marmos91/nfsinspect/internal/logger"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/rpc"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/types"
	"github.com/marmos91/nfsinspect/internal/protocol/nfs/v3/records"
)

// ErrUnsupportedProcedure is returned for procedures that have no decoder in
// the requested direction, such as NULL, SETATTR or a WRITE reply. It is not
// a decode failure: the record is simply skipped.
var ErrUnsupportedProcedure = errors.New("nfs: unsupported procedure")

// ============================================================================
// Caller Identity
// ============================================================================

// Caller holds the authentication information extracted from an RPC call.
//
// Unix credential fields are nil unless the call used AUTH_UNIX and its body
// parsed cleanly.
type Caller struct {
	// AuthFlavor indicates the RPC authentication type (AUTH_UNIX, AUTH_NULL, etc.)
	AuthFlavor uint32

	MachineName string

	// Unix credentials (nil if not AUTH_UNIX or parsing failed)
	UID  *uint32  // User ID
	GID  *uint32  // Primary group ID
	GIDs []uint32 // Supplementary group IDs
}

// ExtractCaller builds a Caller from an RPC call header.
//
// Parsing failures are logged but never fail the record: an observer still
// wants the NFS operation even when the credential is unreadable.
func ExtractCaller(call *rpc.RPCCallMessage) *Caller {
	caller := &Caller{AuthFlavor: call.GetAuthFlavor()}

	// Only attempt to parse Unix credentials if AUTH_UNIX is specified
	if caller.AuthFlavor != rpc.AuthUnix {
		return caller
	}

	procedure := types.ProcedureName(call.Procedure)
	authBody := call.GetAuthBody()
	if len(authBody) == 0 {
		logger.Warn("%s: AUTH_UNIX specified but auth body is empty (xid=0x%x)", procedure, call.XID)
		return caller
	}

	unixAuth, err := rpc.ParseUnixAuth(authBody)
	if err != nil {
		logger.Warn("%s: Failed to parse AUTH_UNIX credentials (xid=0x%x): %v", procedure, call.XID, err)
		return caller
	}

	logger.Debug("%s: Parsed Unix auth: uid=%d gid=%d ngids=%d",
		procedure, unixAuth.UID, unixAuth.GID, len(unixAuth.GIDs))

	caller.MachineName = unixAuth.MachineName
	caller.UID = &unixAuth.UID
	caller.GID = &unixAuth.GID
	caller.GIDs = unixAuth.GIDs
	return caller
}

// ============================================================================
// Procedure Dispatch Table
// ============================================================================

// bodyDecoder decodes one call or reply body. mode is only consulted by the
// payload-carrying decoders (WRITE call, READ reply).
type bodyDecoder func(data []byte, mode records.PayloadMode) (records.Record, []byte, error)

// nfsProcedureInfo contains metadata about an NFS procedure for dispatch.
type nfsProcedureInfo struct {
	// Name is the procedure name for logging (e.g., "NULL", "GETATTR")
	Name string

	// Call decodes the procedure arguments. nil if unsupported.
	Call bodyDecoder

	// Reply decodes the procedure results. nil if unsupported.
	Reply bodyDecoder
}

// nfsDispatchTable maps NFS procedure numbers to their decoders.
//
// Procedures missing from the table (NULL, SETATTR, READLINK, ...) are
// recognised by name through types.ProcedureName but are not decoded.
var nfsDispatchTable map[uint32]*nfsProcedureInfo

func init() {
	initNFSDispatchTable()
}

func initNFSDispatchTable() {
	nfsDispatchTable = map[uint32]*nfsProcedureInfo{
		types.NFSProcGetAttr: {
			Call: fixed(records.DecodeGetAttrRequest),
		},
		types.NFSProcLookup: {
			Call:  fixed(records.DecodeLookupRequest),
			Reply: fixed(records.DecodeLookupReply),
		},
		types.NFSProcAccess: {
			Call: fixed(records.DecodeAccessRequest),
		},
		types.NFSProcRead: {
			Call:  fixed(records.DecodeReadRequest),
			Reply: withPayload(records.DecodeReadReply),
		},
		types.NFSProcWrite: {
			Call: withPayload(records.DecodeWriteRequest),
		},
		types.NFSProcCreate: {
			Call:  fixed(records.DecodeCreateRequest),
			Reply: fixed(records.DecodeCreateReply),
		},
		types.NFSProcMkdir: {
			Call: fixed(records.DecodeMkdirRequest),
		},
		types.NFSProcRemove: {
			Call: fixed(records.DecodeRemoveRequest),
		},
		types.NFSProcRmdir: {
			Call: fixed(records.DecodeRmdirRequest),
		},
		types.NFSProcRename: {
			Call: fixed(records.DecodeRenameRequest),
		},
		types.NFSProcReadDirPlus: {
			Call:  fixed(records.DecodeReaddirplusRequest),
			Reply: fixed(records.DecodeReaddirplusReply),
		},
		types.NFSProcCommit: {
			Call: fixed(records.DecodeCommitRequest),
		},
	}

	for proc, info := range nfsDispatchTable {
		info.Name = types.ProcedureName(proc)
	}
}

// fixed adapts a decoder that ignores the payload mode.
func fixed[R records.Record](fn func([]byte) (R, []byte, error)) bodyDecoder {
	return func(data []byte, _ records.PayloadMode) (records.Record, []byte, error) {
		rec, rest, err := fn(data)
		if err != nil {
			return nil, rest, err
		}
		return rec, rest, nil
	}
}

// withPayload adapts a decoder that takes the payload mode.
func withPayload[R records.Record](fn func([]byte, records.PayloadMode) (R, []byte, error)) bodyDecoder {
	return func(data []byte, mode records.PayloadMode) (records.Record, []byte, error) {
		rec, rest, err := fn(data, mode)
		if err != nil {
			return nil, rest, err
		}
		return rec, rest, nil
	}
}

// ============================================================================
// Entry Points
// ============================================================================

// DecodeCall decodes the arguments of an NFSv3 call.
//
// Parameters:
//   - proc: NFSv3 procedure number from the RPC call header
//   - data: The bytes after the RPC header (see rpc.ReadData)
//   - mode: Whether data holds the whole message
//
// Returns ErrUnsupportedProcedure when proc has no call decoder.
func DecodeCall(proc uint32, data []byte, mode records.PayloadMode) (records.Record, []byte, error) {
	info, ok := nfsDispatchTable[proc]
	if !ok || info.Call == nil {
		return nil, data, fmt.Errorf("%w: %s call", ErrUnsupportedProcedure, types.ProcedureName(proc))
	}
	return info.Call(data, mode)
}

// DecodeReply decodes the results of an NFSv3 reply. proc comes from the
// matching call, since replies do not carry it.
//
// Returns ErrUnsupportedProcedure when proc has no reply decoder.
func DecodeReply(proc uint32, data []byte, mode records.PayloadMode) (records.Record, []byte, error) {
	info, ok := nfsDispatchTable[proc]
	if !ok || info.Reply == nil {
		return nil, data, fmt.Errorf("%w: %s reply", ErrUnsupportedProcedure, types.ProcedureName(proc))
	}
	return info.Reply(data, mode)
}

// SupportsCall reports whether calls to proc can be decoded.
func SupportsCall(proc uint32) bool {
	info, ok := nfsDispatchTable[proc]
	return ok && info.Call != nil
}

// SupportsReply reports whether replies to proc can be decoded. Callers use
// it to avoid tracking calls whose replies would be dropped anyway.
func SupportsReply(proc uint32) bool {
	info, ok := nfsDispatchTable[proc]
	return ok && info.Reply != nil
}

// SupportedProcedures returns the names of procedures with at least one
// decoder, keyed by procedure number.
func SupportedProcedures() map[uint32]string {
	out := make(map[uint32]string, len(nfsDispatchTable))
	for proc, info := range nfsDispatchTable {
		out[proc] = info.Name
	}
	return out
}
