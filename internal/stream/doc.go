// Package stream turns the two byte streams of an NFS-over-TCP connection
// into decoded NFSv3 events.
//
// # Architecture Overview
//
//   - Record marking (RFC 5531 Section 11): each direction strips fragment
//     headers and joins fragments into whole RPC records.
//   - RPC layer: records are split into call and reply headers by
//     internal/protocol/nfs/rpc.
//   - Correlation: NFSv3 calls are remembered by XID in a bounded LRU
//     table, since a reply does not name its procedure. The oldest call is
//     evicted when the table is full.
//   - Dispatch: bodies go to internal/protocol/nfs and come back as typed
//     records.
//
// # Memory Bounds
//
// A record larger than Config.MaxRecordSize is delivered once, as soon as
// the cap is reached, with records.PayloadFragment so the READ/WRITE
// decoders return the payload prefix that fits. The rest of that record is
// skipped. A fragment header announcing more than Config.MaxFragmentSize
// bytes is treated as a desync: the direction is reset and the remainder of
// the chunk is dropped.
//
// # Thread Safety
//
// A Session belongs to one connection and must not be fed concurrently.
// Distinct sessions share nothing but the buffer pool.
package stream
