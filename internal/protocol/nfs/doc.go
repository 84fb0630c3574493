// Package nfs routes NFSv3 call and reply bodies to their decoders.
//
// # Architecture Overview
//
// Decoding is split in layers, each in its own package:
//
//   - xdr: bounds-checked primitives, file handles and optional fields
//   - rpc: ONC-RPC call and reply headers and AUTH_UNIX credentials
//   - v3/records: one decoder per supported NFSv3 procedure
//   - nfs (this package): the dispatch table tying procedure numbers to
//     decoders, plus caller identity extraction
//
// internal/stream sits on top and turns raw TCP byte streams into records.
//
// # Supported Procedures
//
// Calls: GETATTR, LOOKUP, ACCESS, READ, WRITE, CREATE, MKDIR, REMOVE, RMDIR,
// RENAME, READDIRPLUS and COMMIT.
//
// Replies: LOOKUP, READ, CREATE and READDIRPLUS.
//
// Anything else returns ErrUnsupportedProcedure, which callers treat as
// "skip", not as a decode failure.
//
// # Zero Copy
//
// Decoded records hold views into the input slice, except file names which
// are copied. A record must not be used after its input buffer is reused.
package nfs
