// Package chunkcache implements a best-effort distributed cache for large
// ordered result sets, keyed by a caller-supplied content hash. It is
// strictly additive: a failure inside the cache only ever shows up as a miss
// or as a skipped write, never as an error for the caller.
//
// Components:
//   - chunk: streaming encoder/decoder. Records are batched 64 at a time,
//     serialized by a codec.Codec, LZ4-compressed, base64url-encoded and
//     ","-terminated.
//   - Backend: hash-shaped key-value store with TTL and a cross-process lock
//     (Redis in production, in-process memory for tests).
//
// Keys:
//
//	bte:cacheContent:<hash>  - hash entry; field "i" holds chunk i
//	bte:cachingLock:<hash>   - lock guarding both Write and Lookup
//
// Write deletes the old entry, writes chunk fields in order and sets the TTL,
// all under the lock. A failed field write deletes the whole entry again.
// Lookup reads all fields under the same lock, orders them numerically,
// decodes them and refreshes the TTL.
//
//	c, _ := chunkcache.New[Edge](chunkcache.Options[Edge]{Backend: rb})
//	if edges, ok := c.Lookup(ctx, hash); ok {
//	    return edges
//	}
//	edges := compute()
//	c.Write(ctx, hash, edges)
package chunkcache
