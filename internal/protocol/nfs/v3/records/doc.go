// Package records decodes NFSv3 call and reply bodies into typed records.
//
// # Scope
//
// Each decoder receives the procedure-specific body that follows the RPC
// header (the dispatcher strips credentials and verifiers first) and returns
// a record plus the unconsumed remainder of the buffer:
//
//	req, rest, err := records.DecodeLookupRequest(body)
//
// Decoders never interpret status codes and never validate filesystem
// semantics. They only enforce the wire layout of RFC 1813.
//
// # Memory Ownership
//
// File handles, verifiers, attribute blobs and payloads are zero-copy views
// into the input buffer. Names are copied, so a record can be queued for
// call/reply correlation after the buffer it came from has been reused.
// Call FileHandle.Clone when a handle has to outlive the buffer as well.
//
// # Partial Payloads
//
// WRITE requests and READ replies carry file content that a capture may
// deliver in pieces. Their decoders take a PayloadMode:
//
//   - PayloadComplete: the buffer holds the whole message. A short payload
//     is Malformed.
//   - PayloadFragment: the buffer may end inside the payload. Whatever is
//     present is returned and the record is flagged Truncated.
//
// # Errors
//
// Failures wrap one of xdr.ErrIncomplete, xdr.ErrConstraintViolation or
// xdr.ErrMalformed. Whether a failure aborts only the record or the whole
// connection is left to the caller.
package records
