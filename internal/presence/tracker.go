package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/inklet/inklet/pkg/log"
)

// AnnounceFunc receives the full viewer set of a room after membership
// changed. Viewers are sorted for stable comparison downstream.
type AnnounceFunc func(room string, viewers []string)

// Options tunes heartbeat expiry.
type Options struct {
	// TTL is how long a viewer stays active after its last heartbeat.
	TTL time.Duration
	// SweepInterval is how often the background sweep runs.
	SweepInterval time.Duration
}

type member struct {
	lastSeen time.Time
}

// Tracker maintains room membership from viewer heartbeats.
type Tracker struct {
	opts     Options
	announce AnnounceFunc
	logger   log.Logger

	mu    sync.Mutex
	rooms map[string]map[string]*member

	now func() time.Time
}

// New creates a tracker. announce may be nil.
func New(opts Options, announce AnnounceFunc, logger log.Logger) *Tracker {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 10 * time.Second
	}
	return &Tracker{
		opts:     opts,
		announce: announce,
		logger:   logger.With(log.Component("presence")),
		rooms:    make(map[string]map[string]*member),
		now:      time.Now,
	}
}

// Heartbeat marks viewer as active in room, creating the room if needed.
//
// The announce runs while the lock is held: the feed version a viewer set
// gets assigned must follow the membership change that produced it, or a
// racing change could publish an older set at a newer version.
func (t *Tracker) Heartbeat(room, viewer string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.rooms[room]
	if m == nil {
		m = make(map[string]*member)
		t.rooms[room] = m
	}
	_, joined := m[viewer]
	m[viewer] = &member{lastSeen: t.now()}

	if !joined {
		t.logger.Debug("viewer joined", log.Str("room", room), log.Str("viewer", viewer))
		t.announceChange(room, t.viewersLocked(room))
	}
}

// Leave removes viewer from room immediately.
func (t *Tracker) Leave(room, viewer string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.rooms[room]
	if m == nil {
		return
	}
	if _, ok := m[viewer]; !ok {
		return
	}
	delete(m, viewer)
	if len(m) == 0 {
		delete(t.rooms, room)
	}

	t.logger.Debug("viewer left", log.Str("room", room), log.Str("viewer", viewer))
	t.announceChange(room, t.viewersLocked(room))
}

// Active returns the sorted viewer set of room.
func (t *Tracker) Active(room string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewersLocked(room)
}

func (t *Tracker) viewersLocked(room string) []string {
	m := t.rooms[room]
	viewers := make([]string, 0, len(m))
	for v := range m {
		viewers = append(viewers, v)
	}
	sort.Strings(viewers)
	return viewers
}

// announceChange is called with t.mu held. The AnnounceFunc must not call
// back into the tracker.
func (t *Tracker) announceChange(room string, viewers []string) {
	if t.announce != nil {
		t.announce(room, viewers)
	}
}

// Sweep expires viewers whose heartbeat lapsed and announces the rooms
// that changed. Returns the number of viewers removed.
func (t *Tracker) Sweep() int {
	cutoff := t.now().Add(-t.opts.TTL)

	t.mu.Lock()
	defer t.mu.Unlock()
	changed := make(map[string]struct{})
	removed := 0
	for room, m := range t.rooms {
		for viewer, mem := range m {
			if mem.lastSeen.Before(cutoff) {
				delete(m, viewer)
				removed++
				changed[room] = struct{}{}
			}
		}
		if len(m) == 0 {
			delete(t.rooms, room)
		}
	}
	for room := range changed {
		t.logger.Debug("swept idle viewers", log.Str("room", room))
		t.announceChange(room, t.viewersLocked(room))
	}
	return removed
}

// Run sweeps on the configured interval until ctx is done.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}
