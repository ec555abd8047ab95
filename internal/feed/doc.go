// Package feed implements the durable per-query-key change feed that backs
// subscriptions.
//
// # Overview
//
// Every query key (the post list, one post, one post's comments, one room's
// presence) owns an append-only feed persisted in Pebble. Appends assign a
// monotonically increasing version under the feed's lock, so feed order is
// commit order. Keys are lexicographically ordered for range scans:
//   - feed/{key}\x00m            (feed metadata: last version)
//   - feed/{key}\x00e{ver_be8}   (entries)
//
// Records are stored as: varint tsLen | ts_ms(8B BE) | payload | crc32c.
//
// # Sharing
//
// Feeds are handed out by a Bus that caches one Feed instance per key, so
// the producer appending a delta and the subscribers blocked in
// WaitForAppend share one notify channel and wake immediately.
//
// API surface (internal)
//
//	f := bus.Feed("comments/abc")
//	ver, _ := f.Append(ctx, payload)
//	items := f.Read(feed.ReadOptions{After: watermark, Limit: 128})
//	woke := f.WaitForAppend(2 * time.Second)
//	_, _ = f.TrimBelow(ctx, watermark, 1024)
package feed
