package feed

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	pebblestore "github.com/inklet/inklet/internal/storage/pebble"
)

// Feed provides append-only operations for one query key's change stream.
type Feed struct {
	db  *pebblestore.DB
	key string

	mu       sync.Mutex
	lastVer  uint64
	notifyCh chan struct{}
}

// Bus hands out Feed instances, one per query key. Producers and consumers
// must go through the same Bus so they share a feed's notify channel.
type Bus struct {
	db *pebblestore.DB

	mu    sync.Mutex
	feeds map[string]*Feed
}

// NewBus creates a Bus over db.
func NewBus(db *pebblestore.DB) *Bus {
	return &Bus{db: db, feeds: make(map[string]*Feed)}
}

// Feed returns the shared Feed for key, opening it on first use and loading
// the last version from metadata.
func (b *Bus) Feed(key string) *Feed {
	key = sanitizeKey(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := b.feeds[key]; ok {
		return f
	}
	f := &Feed{db: b.db, key: key, notifyCh: make(chan struct{})}
	if meta, err := b.db.Get(keyMeta(key)); err == nil && len(meta) >= 8 {
		f.lastVer = binary.BigEndian.Uint64(meta[:8])
	}
	b.feeds[key] = f
	return f
}

// Key returns the query key this feed serves.
func (f *Feed) Key() string { return f.key }

// Version returns the last committed version (0 if the feed is empty).
func (f *Feed) Version() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastVer
}

// Append writes payload as the next version atomically and wakes waiters.
// Returns the assigned version.
func (f *Feed) Append(ctx context.Context, payload []byte) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b := f.db.NewBatch()
	defer b.Close()

	ver := f.lastVer + 1
	val := encodeRecord(time.Now().UnixMilli(), payload)
	if err := b.Set(keyEntry(f.key, ver), val, nil); err != nil {
		return 0, err
	}
	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], ver)
	if err := b.Set(keyMeta(f.key), meta[:], nil); err != nil {
		return 0, err
	}
	if err := f.db.CommitBatch(ctx, b); err != nil {
		return 0, err
	}
	f.lastVer = ver

	// notify waiters
	close(f.notifyCh)
	f.notifyCh = make(chan struct{})
	return ver, nil
}

// WaitForAppend blocks until either a new append occurs or timeout elapses.
// It returns true if woken by an append, false on timeout.
func (f *Feed) WaitForAppend(timeout time.Duration) bool {
	f.mu.Lock()
	ch := f.notifyCh
	f.mu.Unlock()
	if timeout <= 0 {
		<-ch
		return true
	}
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}
