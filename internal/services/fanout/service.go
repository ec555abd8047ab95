package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/inklet/inklet/internal/blog"
	"github.com/inklet/inklet/internal/feed"
	"github.com/inklet/inklet/internal/runtime"
	logpkg "github.com/inklet/inklet/pkg/log"
)

// Service fans committed changes out to per-key subscribers built on the
// internal change feeds.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger

	// subBufLen controls the buffered writer size per subscriber.
	subBufLen int

	snapMu    sync.RWMutex
	snapshots map[string]SnapshotFunc
}

// New returns a Service using a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, nil)
}

// NewWithLogger constructs the service with an injected logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	bufLen := rt.Config().Feed.SubscribeBuffer
	if bufLen <= 0 {
		bufLen = 1024
	}
	return &Service{
		rt:        rt,
		logger:    logger.With(logpkg.Component("fanout")),
		subBufLen: bufLen,
		snapshots: make(map[string]SnapshotFunc),
	}
}

// RegisterSnapshot installs the snapshot source for one key kind.
func (s *Service) RegisterSnapshot(kind string, fn SnapshotFunc) {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	s.snapshots[kind] = fn
}

func (s *Service) snapshotFor(ctx context.Context, key string) ([]byte, error) {
	s.snapMu.RLock()
	fn := s.snapshots[blog.KeyKind(key)]
	s.snapMu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("no snapshot source for key %q", key)
	}
	return fn(ctx, blog.KeyArg(key))
}

// keysFor maps one committed change to the query keys whose feeds carry it.
func keysFor(ch blog.Change) []string {
	switch ch.Op {
	case blog.OpPostCreated:
		return []string{blog.KeyPostList(), blog.KeyPost(ch.Post.ID)}
	case blog.OpCommentCreated:
		return []string{blog.KeyComments(ch.Comment.PostID)}
	case blog.OpPresence:
		return []string{blog.KindPresence + "/" + ch.Room}
	default:
		return nil
	}
}

// Announce appends ch onto the feed of every affected query key, assigning
// each key's next version. Callers invoke it under their commit lock so
// feed versions follow commit order.
func (s *Service) Announce(ctx context.Context, ch blog.Change) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	for _, key := range keysFor(ch) {
		f := s.rt.Feeds().Feed(key)
		ver, err := f.Append(ctx, payload)
		if err != nil {
			return fmt.Errorf("announce %s on %s: %w", ch.Op, key, err)
		}
		// Presence is last-write-wins; every delta carries the whole
		// viewer set, so entries below the newest are dead.
		if ch.Op == blog.OpPresence {
			if n, err := f.TrimBelow(ctx, ver, 256); err != nil {
				s.logger.Warn("presence trim failed", logpkg.Str("key", key), logpkg.Err(err))
			} else if n > 0 {
				s.logger.Debug("trimmed presence feed", logpkg.Str("key", key), logpkg.Int("n", n))
			}
		}
		s.logger.Debug("announced",
			logpkg.Str("op", ch.Op),
			logpkg.Str("key", key),
			logpkg.Uint64("version", ver))
	}
	return nil
}

// Subscribe attaches sink to key and blocks until the sink context ends,
// the delta limit is reached, or delivery fails.
//
// A fresh attach (After == 0) first sends one snapshot item stamped with
// the key's version at attach time, then every delta above that
// watermark in version order. A resuming attach skips the snapshot and
// continues strictly after opts.After.
func (s *Service) Subscribe(key string, opts SubscribeOptions, sink Sink) error {
	cfilter, err := newCELFilter(opts.Filter)
	if err != nil {
		return err
	}

	f := s.rt.Feeds().Feed(key)

	ctx, cancel := context.WithCancel(sink.Context())
	defer cancel()

	// A failed Send detaches the subscriber: the writer records the first
	// delivery error and cancels, and the loop below returns it.
	var (
		errMu   sync.Mutex
		sendErr error
	)
	fail := func(err error) {
		errMu.Lock()
		if sendErr == nil {
			sendErr = err
		}
		errMu.Unlock()
		cancel()
	}
	detachErr := func() error {
		errMu.Lock()
		defer errMu.Unlock()
		if sendErr != nil {
			return sendErr
		}
		return ctx.Err()
	}

	// Per-subscriber async writer to decouple slow transports.
	outCh := make(chan Item, s.subBufLen)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pending := 0
		flush := func() {
			if pending > 0 {
				_ = sink.Flush()
				pending = 0
			}
		}
		for {
			select {
			case it, ok := <-outCh:
				if !ok {
					flush()
					return
				}
				if err := sink.Send(it); err != nil {
					fail(err)
					return
				}
				pending++
				if len(outCh) == 0 || pending >= 64 {
					flush()
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	defer func() { close(outCh); wg.Wait() }()

	after := opts.After
	if after == 0 {
		// Fold current state at the attach watermark before streaming
		// deltas, so the subscriber never sees a gap between snapshot
		// and first delta. The watermark is read before the snapshot:
		// a commit landing in between shows up both in the snapshot and
		// as the delta above the watermark, a duplicate. Reading the
		// version after the snapshot instead could skip a commit that
		// landed after the snapshot read, turning the duplicate into a
		// loss.
		watermark := f.Version()
		snap, err := s.snapshotFor(ctx, key)
		if err != nil {
			return err
		}
		select {
		case outCh <- Item{Key: key, Version: watermark, Snapshot: true, Payload: snap}:
		case <-ctx.Done():
			return detachErr()
		}
		after = watermark
	}

	s.logger.Debug("subscribed", logpkg.Str("key", key), logpkg.Uint64("after", after))

	delivered := 0
	for {
		if ctx.Err() != nil {
			return detachErr()
		}
		if opts.Limit > 0 && delivered >= opts.Limit {
			return nil
		}
		sendStart := time.Now()
		items := f.Read(feed.ReadOptions{After: after, Limit: 128})
		if len(items) == 0 {
			if !f.WaitForAppend(50 * time.Millisecond) {
				if ctx.Err() != nil {
					return detachErr()
				}
			}
			continue
		}
		batchCount := 0
		for _, it := range items {
			if opts.Limit > 0 && delivered >= opts.Limit {
				return nil
			}
			if cfilter.Eval(it.Version, it.AtMs, it.Payload) {
				select {
				case outCh <- Item{Key: key, Version: it.Version, Payload: it.Payload, AtMs: it.AtMs}:
				case <-ctx.Done():
					return detachErr()
				}
				delivered++
				batchCount++
			}
		}
		after = items[len(items)-1].Version
		s.logger.With(
			logpkg.Str("key", key),
			logpkg.Int("batch_n", batchCount),
			logpkg.Int64("deliver_ms", time.Since(sendStart).Milliseconds()),
			logpkg.Int("q_depth", len(outCh)),
			logpkg.Int("q_cap", cap(outCh)),
		).Debug("fanout.deliver")
	}
}
