package search

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/inklet/inklet/internal/blog"
	"github.com/inklet/inklet/internal/feed"
	"github.com/inklet/inklet/internal/store/records"
	logpkg "github.com/inklet/inklet/pkg/log"
)

// Searcher is the query backend.
type Searcher interface {
	SearchPosts(term string, limit int) ([]records.SearchResult, error)
}

// Options tunes session behavior.
type Options struct {
	// MinTermLength gates querying; shorter terms clear results instead.
	MinTermLength int
	// Debounce is the quiet window after the last keystroke before the
	// term is queried.
	Debounce time.Duration
	// Limit caps the result set per query.
	Limit int
}

// Results is one delivered result set.
type Results struct {
	Term string
	// Seq is the issuing sequence of the query that produced this set.
	// Sets always arrive in increasing Seq order.
	Seq  uint64
	Hits []records.SearchResult
}

// EmitFunc receives result sets. Called from session goroutines; one call
// at a time per session.
type EmitFunc func(Results)

// Coordinator owns the shared backend and the set of live sessions.
type Coordinator struct {
	searcher Searcher
	feeds    *feed.Bus
	opts     Options
	logger   logpkg.Logger

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// New constructs a coordinator. feeds may be nil when live refresh on new
// posts is not wanted.
func New(searcher Searcher, feeds *feed.Bus, opts Options, logger logpkg.Logger) *Coordinator {
	if opts.MinTermLength <= 0 {
		opts.MinTermLength = 2
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 250 * time.Millisecond
	}
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &Coordinator{
		searcher: searcher,
		feeds:    feeds,
		opts:     opts,
		logger:   logger.With(logpkg.Component("search")),
		sessions: make(map[*Session]struct{}),
	}
}

// NewSession opens a session delivering result sets to emit.
func (c *Coordinator) NewSession(emit EmitFunc) *Session {
	s := &Session{c: c, emit: emit}
	c.mu.Lock()
	c.sessions[s] = struct{}{}
	c.mu.Unlock()
	return s
}

func (c *Coordinator) drop(s *Session) {
	c.mu.Lock()
	delete(c.sessions, s)
	c.mu.Unlock()
}

// Run watches the post-list feed and refreshes live sessions whenever new
// posts commit. Blocks until ctx is done.
func (c *Coordinator) Run(ctx context.Context) {
	if c.feeds == nil {
		<-ctx.Done()
		return
	}
	f := c.feeds.Feed(blog.KeyPostList())
	last := f.Version()
	for {
		if ctx.Err() != nil {
			return
		}
		if !f.WaitForAppend(250 * time.Millisecond) {
			continue
		}
		cur := f.Version()
		if cur == last {
			continue
		}
		last = cur
		c.mu.Lock()
		live := make([]*Session, 0, len(c.sessions))
		for s := range c.sessions {
			live = append(live, s)
		}
		c.mu.Unlock()
		for _, s := range live {
			s.Refresh()
		}
	}
}

// Session is one subscriber's incremental search state.
type Session struct {
	c    *Coordinator
	emit EmitFunc

	mu    sync.Mutex
	term  string
	timer *time.Timer

	// seq is the sequence of the most recently issued query. A finished
	// query delivers only while it still holds the highest sequence.
	seq atomic.Uint64

	emitMu sync.Mutex
	closed atomic.Bool
}

// SetTerm records a keystroke. The query fires only after the debounce
// window passes with no further keystrokes. A term below the minimum
// length cancels pending work and clears results immediately.
func (s *Session) SetTerm(term string) {
	term = strings.TrimSpace(term)

	s.mu.Lock()
	s.term = term
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if utf8.RuneCountInString(term) < s.c.opts.MinTermLength {
		seq := s.seq.Add(1)
		s.mu.Unlock()
		s.deliver(Results{Term: term, Seq: seq})
		return
	}
	s.timer = time.AfterFunc(s.c.opts.Debounce, func() { s.query(term) })
	s.mu.Unlock()
}

// Refresh re-runs the current term immediately, bypassing the debounce.
// No-op while the term is below the minimum length.
func (s *Session) Refresh() {
	s.mu.Lock()
	term := s.term
	s.mu.Unlock()
	if utf8.RuneCountInString(term) < s.c.opts.MinTermLength {
		return
	}
	s.query(term)
}

func (s *Session) query(term string) {
	seq := s.seq.Add(1)
	t0 := time.Now()
	hits, err := s.c.searcher.SearchPosts(term, s.c.opts.Limit)
	if err != nil {
		s.c.logger.Warn("search failed", logpkg.Str("term", term), logpkg.Err(err))
		return
	}
	s.c.logger.Debug("search.query",
		logpkg.Str("term", term),
		logpkg.Int("hits", len(hits)),
		logpkg.Int64("dur_ms", time.Since(t0).Milliseconds()))
	s.deliver(Results{Term: term, Seq: seq, Hits: hits})
}

// deliver emits res unless a newer query was issued while it ran.
func (s *Session) deliver(res Results) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.closed.Load() {
		return
	}
	if s.seq.Load() != res.Seq {
		return
	}
	s.emit(res)
}

// Close detaches the session; no results are delivered after it returns.
func (s *Session) Close() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.emitMu.Lock()
	s.closed.Store(true)
	s.emitMu.Unlock()
	s.c.drop(s)
}
