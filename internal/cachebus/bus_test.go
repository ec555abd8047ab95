package cachebus

import (
	"testing"
	"time"

	"github.com/inklet/inklet/internal/blog"
	"github.com/inklet/inklet/pkg/log"
)

type countingLister struct {
	loads int
	posts []blog.Post
}

func (l *countingLister) ListPosts(limit int) ([]blog.Post, error) {
	l.loads++
	return l.posts, nil
}

func TestListViewCachesUntilInvalidated(t *testing.T) {
	lister := &countingLister{posts: []blog.Post{{Title: "a"}}}
	view := NewListView(lister, time.Hour)

	for i := 0; i < 3; i++ {
		posts, err := view.Posts()
		if err != nil {
			t.Fatalf("posts: %v", err)
		}
		if len(posts) != 1 || posts[0].Title != "a" {
			t.Fatalf("wrong posts: %+v", posts)
		}
	}
	if lister.loads != 1 {
		t.Fatalf("loaded %d times, want 1", lister.loads)
	}

	lister.posts = []blog.Post{{Title: "b"}, {Title: "a"}}
	view.Invalidate()

	posts, err := view.Posts()
	if err != nil {
		t.Fatalf("posts after invalidate: %v", err)
	}
	if len(posts) != 2 || posts[0].Title != "b" {
		t.Fatalf("stale posts served after invalidate: %+v", posts)
	}
	if lister.loads != 2 {
		t.Fatalf("loaded %d times, want 2", lister.loads)
	}
}

func TestListViewTTLExpiry(t *testing.T) {
	lister := &countingLister{posts: []blog.Post{{Title: "a"}}}
	view := NewListView(lister, time.Millisecond)

	if _, err := view.Posts(); err != nil {
		t.Fatalf("posts: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := view.Posts(); err != nil {
		t.Fatalf("posts: %v", err)
	}
	if lister.loads != 2 {
		t.Fatalf("TTL expiry did not reload, loads=%d", lister.loads)
	}
}

func TestBusRoutesTagsToViews(t *testing.T) {
	lister := &countingLister{}
	a := NewListView(lister, time.Hour)
	b := NewListView(lister, time.Hour)

	bus := NewBus(log.NewLogger())
	bus.Register(a, TagPostList)
	bus.Register(b, TagPostList, "other")

	if _, err := a.Posts(); err != nil {
		t.Fatalf("warm a: %v", err)
	}
	if _, err := b.Posts(); err != nil {
		t.Fatalf("warm b: %v", err)
	}
	loadsBefore := lister.loads

	bus.Invalidate(TagPostList)
	if _, err := a.Posts(); err != nil {
		t.Fatalf("reload a: %v", err)
	}
	if _, err := b.Posts(); err != nil {
		t.Fatalf("reload b: %v", err)
	}
	if lister.loads != loadsBefore+2 {
		t.Fatalf("invalidate did not reach both views: loads=%d", lister.loads)
	}

	// unknown tag reaches nothing
	bus.Invalidate("nope")
}
