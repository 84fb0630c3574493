package rpc

import (
	"bytes"
	"fmt"

	nfsxdr "github.com/marmos91/nfsinspect/internal/protocol/nfs/xdr"
	xdr "github.com/rasky/go-xdr/xdr2"
)

// callHeaderFixedSize covers XID, MsgType, RPCVersion, Program, Version and
// Procedure.
const callHeaderFixedSize = 24

// ReadCall parses an RPC call header from raw bytes.
//
// The credential and verifier lengths are bounds-checked first, so a hostile
// length never reaches the XDR unmarshaller. The header itself is then
// decoded with go-xdr.
//
// Parameters:
//   - data: An RPC message starting at the XID (record marking removed)
//
// Returns:
//   - *RPCCallMessage: Parsed RPC call header with all fields populated
//   - error: Parse error if the data is truncated or not a CALL message
//
// Example usage:
//
//	call, err := rpc.ReadCall(msg)
//	if err != nil {
//	    return fmt.Errorf("parse RPC call: %w", err)
//	}
//
//	args, err := rpc.ReadData(msg)
func ReadCall(data []byte) (*RPCCallMessage, error) {
	headerLen, err := callHeaderLen(data)
	if err != nil {
		return nil, err
	}

	call := &RPCCallMessage{}
	if _, err := xdr.Unmarshal(bytes.NewReader(data[:headerLen]), call); err != nil {
		return nil, fmt.Errorf("unmarshal RPC call: %w", err)
	}

	// MsgType must be 0 for calls, 1 for replies
	if call.MsgType != RPCCall {
		return nil, fmt.Errorf("expected CALL (0), got %d", call.MsgType)
	}
	if call.RPCVersion != RPCVersion {
		return nil, fmt.Errorf("unsupported RPC version %d", call.RPCVersion)
	}

	return call, nil
}

// ReadData returns the procedure-specific parameters that follow the call
// header: the bytes after the credential and verifier.
//
// The result is a view into message. Procedures without arguments (NULL)
// yield an empty slice.
func ReadData(message []byte) ([]byte, error) {
	headerLen, err := callHeaderLen(message)
	if err != nil {
		return nil, err
	}
	return message[headerLen:], nil
}

// callHeaderLen walks the call header and returns its encoded size.
//
//   - RPC header: 6 fields × 4 bytes = 24 bytes (XID through Procedure)
//   - Credentials: 4 bytes (flavor) + 4 bytes (length) + data + padding
//   - Verifier: 4 bytes (flavor) + 4 bytes (length) + data + padding
func callHeaderLen(message []byte) (int, error) {
	d := nfsxdr.NewDecoder(message)
	if err := d.Skip("call header", callHeaderFixedSize); err != nil {
		return 0, fmt.Errorf("failed to read call header: %w", err)
	}
	if err := skipAuth(d, "credential"); err != nil {
		return 0, err
	}
	if err := skipAuth(d, "verifier"); err != nil {
		return 0, err
	}
	return d.Offset(), nil
}

// skipAuth moves past an opaque_auth without copying its body.
func skipAuth(d *nfsxdr.Decoder, field string) error {
	if _, err := d.Uint32(field + " flavor"); err != nil {
		return fmt.Errorf("failed to read %s: %w", field, err)
	}
	length, err := d.Bounded(field+" length", MaxAuthBytes)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", field, err)
	}
	if _, err := d.Opaque(field, length); err != nil {
		return fmt.Errorf("failed to read %s: %w", field, err)
	}
	if err := d.Skip(field+" padding", nfsxdr.Padding(length)); err != nil {
		return fmt.Errorf("failed to read %s: %w", field, err)
	}
	return nil
}

// ReadReply parses an RPC reply header and returns it together with the
// procedure results that follow.
//
// Results are only present for accepted SUCCESS replies; for every other
// outcome the returned body is empty. The body is a view into data.
func ReadReply(data []byte) (*RPCReplyMessage, []byte, error) {
	d := nfsxdr.NewDecoder(data)
	reply := &RPCReplyMessage{}

	var err error
	if reply.XID, err = d.Uint32("xid"); err != nil {
		return nil, nil, fmt.Errorf("failed to read reply header: %w", err)
	}
	if reply.MsgType, err = d.Uint32("message type"); err != nil {
		return nil, nil, fmt.Errorf("failed to read reply header: %w", err)
	}
	if reply.MsgType != RPCReply {
		return nil, nil, fmt.Errorf("expected REPLY (1), got %d", reply.MsgType)
	}
	if reply.ReplyState, err = d.Enum("reply state", RPCMsgDenied); err != nil {
		return nil, nil, fmt.Errorf("failed to read reply header: %w", err)
	}

	if reply.ReplyState == RPCMsgDenied {
		if err := readRejected(d, reply); err != nil {
			return nil, nil, err
		}
		return reply, nil, nil
	}

	if err := readVerifier(d, &reply.Verf); err != nil {
		return nil, nil, err
	}
	if reply.AcceptStat, err = d.Uint32("accept stat"); err != nil {
		return nil, nil, fmt.Errorf("failed to read accept stat: %w", err)
	}

	switch reply.AcceptStat {
	case RPCSuccess:
		return reply, d.Rest(), nil
	case RPCProgMismatch:
		if err := readMismatch(d, reply); err != nil {
			return nil, nil, err
		}
	}
	return reply, nil, nil
}

func readVerifier(d *nfsxdr.Decoder, auth *OpaqueAuth) error {
	flavor, err := d.Uint32("verifier flavor")
	if err != nil {
		return fmt.Errorf("failed to read verifier: %w", err)
	}
	length, err := d.Bounded("verifier length", MaxAuthBytes)
	if err != nil {
		return fmt.Errorf("failed to read verifier: %w", err)
	}
	body, err := d.Opaque("verifier", length)
	if err != nil {
		return fmt.Errorf("failed to read verifier: %w", err)
	}
	if err := d.Skip("verifier padding", nfsxdr.Padding(length)); err != nil {
		return fmt.Errorf("failed to read verifier: %w", err)
	}
	auth.Flavor = flavor
	auth.Body = body
	return nil
}

func readRejected(d *nfsxdr.Decoder, reply *RPCReplyMessage) error {
	var err error
	if reply.RejectStat, err = d.Enum("reject stat", RPCAuthError); err != nil {
		return fmt.Errorf("failed to read reject stat: %w", err)
	}
	if reply.RejectStat == RPCMismatch {
		return readMismatch(d, reply)
	}
	if reply.AuthStat, err = d.Uint32("auth stat"); err != nil {
		return fmt.Errorf("failed to read auth stat: %w", err)
	}
	return nil
}

func readMismatch(d *nfsxdr.Decoder, reply *RPCReplyMessage) error {
	var err error
	if reply.MismatchLow, err = d.Uint32("mismatch low"); err != nil {
		return fmt.Errorf("failed to read version range: %w", err)
	}
	if reply.MismatchHigh, err = d.Uint32("mismatch high"); err != nil {
		return fmt.Errorf("failed to read version range: %w", err)
	}
	return nil
}

// ParseFragmentHeader splits a record-marking header into the fragment
// length and the last-fragment bit.
//
// Example: 0x80000064 means last fragment, 100 bytes long.
func ParseFragmentHeader(header uint32) (length uint32, last bool) {
	return header & FragmentLengthMask, header&LastFragmentFlag != 0
}
