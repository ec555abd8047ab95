package feed

import (
	"github.com/cockroachdb/pebble"
)

// ReadOptions selects a forward slice of a feed.
type ReadOptions struct {
	// After excludes versions <= After. Zero reads from the first entry.
	After uint64
	// Limit bounds the number of items returned; 0 means no bound.
	Limit int
}

// Item is one decoded feed entry.
type Item struct {
	Version uint64
	AtMs    int64
	Payload []byte
}

// Read returns up to Limit items with versions strictly greater than After,
// in version order. Entries that fail checksum decoding are skipped.
func (f *Feed) Read(opts ReadOptions) []Item {
	low, hi := entryBounds(f.key)
	iter, err := f.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return nil
	}
	defer iter.Close()

	var items []Item
	start := keyEntry(f.key, opts.After+1)
	if !iter.SeekGE(start) {
		return items
	}
	for iter.Valid() && (opts.Limit == 0 || len(items) < opts.Limit) {
		ver := entryVersion(iter.Key())
		if ts, payload, ok := decodeRecord(iter.Value()); ok {
			items = append(items, Item{Version: ver, AtMs: ts, Payload: payload})
		}
		if !iter.Next() {
			break
		}
	}
	return items
}
