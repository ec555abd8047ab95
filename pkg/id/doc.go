// Package id provides a 128-bit, lexicographically sortable identifier used
// for posts, comments, and blobs.
//
// # Format
//
// The ID is 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence].
// Byte-wise comparison preserves chronological order, and IDs generated
// within the same millisecond remain strictly increasing by sequence. Stored
// under big-endian keys, newest records sort last, which makes reverse range
// scans return newest-first listings for free.
//
// # Monotonicity
//
// The Generator ensures per-process monotonicity:
//   - If the system clock regresses, it pins to the last seen millisecond and
//     increments the sequence to avoid going backwards.
//   - If the sequence would overflow within a millisecond, it waits for the
//     next millisecond before emitting the next ID.
//
// Usage
//
//	g := id.NewGenerator()
//	newID := g.Next()
//	s := newID.String()      // 32-char hex
//	back, _ := id.Parse(s)   // round-trip
package id
