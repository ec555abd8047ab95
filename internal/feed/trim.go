package feed

import (
	"context"

	"github.com/cockroachdb/pebble"
)

// TrimBelow deletes entries with version < below. Deletes are committed in
// batches of up to batchLimit keys. Returns the number of deleted entries.
//
// Trimming never touches the feed's version counter: folded-away deltas are
// dead weight once every attach snapshot covers them, but versions keep
// increasing.
func (f *Feed) TrimBelow(ctx context.Context, below uint64, batchLimit int) (int, error) {
	if batchLimit <= 0 {
		batchLimit = 1024
	}

	low, hi := entryBounds(f.key)
	iter, err := f.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	deleted := 0
	for ok := iter.First(); ok; {
		b := f.db.NewBatch()
		n := 0
		for ok && n < batchLimit {
			if entryVersion(iter.Key()) >= below {
				ok = false
				break
			}
			if err := b.Delete(iter.Key(), nil); err != nil {
				b.Close()
				return deleted, err
			}
			deleted++
			n++
			ok = iter.Next()
		}
		if n == 0 {
			b.Close()
			break
		}
		if err := f.db.CommitBatch(ctx, b); err != nil {
			b.Close()
			return deleted, err
		}
		b.Close()
	}
	return deleted, nil
}
