package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/inklet/inklet/internal/blog"
	"github.com/inklet/inklet/internal/feed"
	pebblestore "github.com/inklet/inklet/internal/storage/pebble"
	"github.com/inklet/inklet/internal/store/records"
	"github.com/inklet/inklet/pkg/id"
	"github.com/inklet/inklet/pkg/log"
)

type recordingSearcher struct {
	mu    sync.Mutex
	terms []string
	// hold, when set, blocks a query until the term's channel is closed.
	hold map[string]chan struct{}
	// started signals when a term's query began.
	started map[string]chan struct{}
}

func (r *recordingSearcher) SearchPosts(term string, limit int) ([]records.SearchResult, error) {
	r.mu.Lock()
	r.terms = append(r.terms, term)
	holdCh := r.hold[term]
	startedCh := r.started[term]
	r.mu.Unlock()

	if startedCh != nil {
		close(startedCh)
	}
	if holdCh != nil {
		<-holdCh
	}
	return []records.SearchResult{{Post: records.SearchPost{Title: term}, InTitle: true}}, nil
}

func (r *recordingSearcher) queried() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.terms...)
}

type collector struct {
	mu      sync.Mutex
	results []Results
}

func (c *collector) emit(res Results) {
	c.mu.Lock()
	c.results = append(c.results, res)
	c.mu.Unlock()
}

func (c *collector) all() []Results {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Results(nil), c.results...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestDebounceCoalescesKeystrokes(t *testing.T) {
	searcher := &recordingSearcher{}
	c := New(searcher, nil, Options{MinTermLength: 2, Debounce: 30 * time.Millisecond, Limit: 5}, log.NewLogger())
	col := &collector{}
	sess := c.NewSession(col.emit)
	defer sess.Close()

	sess.SetTerm("a")
	sess.SetTerm("ab")
	sess.SetTerm("abc")

	waitFor(t, func() bool { return len(col.all()) >= 2 }) // clear for "a" + results for "abc"
	time.Sleep(60 * time.Millisecond)                      // past any stray debounce window

	if got := searcher.queried(); len(got) != 1 || got[0] != "abc" {
		t.Fatalf("queried %v, want only abc", got)
	}
	final := col.all()[len(col.all())-1]
	if final.Term != "abc" || len(final.Hits) != 1 {
		t.Fatalf("final results: %+v", final)
	}
}

func TestShortTermClearsWithoutQuery(t *testing.T) {
	searcher := &recordingSearcher{}
	c := New(searcher, nil, Options{MinTermLength: 2, Debounce: 10 * time.Millisecond, Limit: 5}, log.NewLogger())
	col := &collector{}
	sess := c.NewSession(col.emit)
	defer sess.Close()

	sess.SetTerm("x")
	waitFor(t, func() bool { return len(col.all()) >= 1 })

	res := col.all()[0]
	if len(res.Hits) != 0 {
		t.Fatalf("short term delivered hits: %+v", res)
	}
	if got := searcher.queried(); len(got) != 0 {
		t.Fatalf("short term reached the backend: %v", got)
	}
}

func TestStaleResponseIsDropped(t *testing.T) {
	searcher := &recordingSearcher{
		hold:    map[string]chan struct{}{"slow": make(chan struct{})},
		started: map[string]chan struct{}{"slow": make(chan struct{})},
	}
	c := New(searcher, nil, Options{MinTermLength: 2, Debounce: 5 * time.Millisecond, Limit: 5}, log.NewLogger())
	col := &collector{}
	sess := c.NewSession(col.emit)
	defer sess.Close()

	sess.SetTerm("slow")
	<-searcher.started["slow"]

	sess.SetTerm("fast")
	waitFor(t, func() bool {
		for _, r := range col.all() {
			if r.Term == "fast" {
				return true
			}
		}
		return false
	})

	close(searcher.hold["slow"]) // slow query finishes late
	time.Sleep(30 * time.Millisecond)

	for _, r := range col.all() {
		if r.Term == "slow" {
			t.Fatalf("stale results delivered: %+v", r)
		}
	}
}

func TestNoDeliveryAfterClose(t *testing.T) {
	searcher := &recordingSearcher{
		hold:    map[string]chan struct{}{"held": make(chan struct{})},
		started: map[string]chan struct{}{"held": make(chan struct{})},
	}
	c := New(searcher, nil, Options{MinTermLength: 2, Debounce: time.Millisecond, Limit: 5}, log.NewLogger())
	col := &collector{}
	sess := c.NewSession(col.emit)

	sess.SetTerm("held")
	<-searcher.started["held"]
	sess.Close()
	close(searcher.hold["held"])
	time.Sleep(30 * time.Millisecond)

	if got := col.all(); len(got) != 0 {
		t.Fatalf("delivered after close: %+v", got)
	}
}

func TestCoordinatorRefreshesOnNewPosts(t *testing.T) {
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := log.NewLogger()
	rec := records.New(db, id.NewGenerator(), logger)
	feeds := feed.NewBus(db)
	c := New(rec, feeds, Options{MinTermLength: 2, Debounce: 5 * time.Millisecond, Limit: 5}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	col := &collector{}
	sess := c.NewSession(col.emit)
	defer sess.Close()

	sess.SetTerm("rust")
	waitFor(t, func() bool { return len(col.all()) >= 1 })
	if hits := col.all()[0].Hits; len(hits) != 0 {
		t.Fatalf("unexpected hits before commit: %+v", hits)
	}

	// A matching post commits; its announcement should refresh the session.
	if _, err := rec.CommitPost(ctx, blog.PostInput{Title: "rust notes", Body: "b", AuthorID: "u1"}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := feeds.Feed(blog.KeyPostList()).Append(ctx, []byte(`{"op":"post.created"}`)); err != nil {
		t.Fatalf("append: %v", err)
	}

	waitFor(t, func() bool {
		all := col.all()
		return len(all) > 0 && len(all[len(all)-1].Hits) == 1
	})
}
