package fanout

import "context"

// Item is one delivered update for a query key.
type Item struct {
	// Key is the query key this item belongs to.
	Key string
	// Version is the key's feed version carried by this item. For a
	// snapshot it is the watermark the snapshot reflects.
	Version uint64
	// Snapshot marks the initial full-state item sent at attach.
	Snapshot bool
	// Payload is the JSON-encoded snapshot state or change.
	Payload []byte
	// AtMs is the append timestamp of a delta, zero for snapshots.
	AtMs int64
}

// Sink is implemented by transports to receive streamed items.
type Sink interface {
	Send(Item) error
	Context() context.Context
	Flush() error
}

// SubscribeOptions controls how a subscriber attaches to a key.
type SubscribeOptions struct {
	// After resumes delivery strictly after this version and skips the
	// snapshot. Zero means fresh attach: snapshot first, then deltas.
	After uint64
	// Filter is an optional CEL expression evaluated per delta. When
	// empty, all deltas are delivered. Snapshots are never filtered.
	Filter string
	// Limit stops delivery after this many delta items. Zero means no
	// limit; the subscription runs until the sink context ends.
	Limit int
}

// SnapshotFunc produces the JSON-encoded current state for one key kind.
// arg is the key's argument segment ("" for argless kinds).
type SnapshotFunc func(ctx context.Context, arg string) ([]byte, error)
