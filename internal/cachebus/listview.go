package cachebus

import (
	"sync"
	"time"

	"github.com/inklet/inklet/internal/blog"
)

// PostLister loads the authoritative post list, newest-first.
type PostLister interface {
	ListPosts(limit int) ([]blog.Post, error)
}

// ListView is an in-memory cache of the post list with TTL. Reads hit the
// cache while fresh; Invalidate or TTL expiry forces a reload on the next
// read.
type ListView struct {
	mu      sync.RWMutex
	posts   []blog.Post
	fetched time.Time
	ttl     time.Duration
	lister  PostLister
}

// NewListView creates a ListView backed by lister.
func NewListView(lister PostLister, ttl time.Duration) *ListView {
	return &ListView{lister: lister, ttl: ttl}
}

func (v *ListView) valid() bool {
	return v.posts != nil && time.Since(v.fetched) < v.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (v *ListView) Invalidate() {
	v.mu.Lock()
	v.posts = nil
	v.mu.Unlock()
}

// Posts returns the cached post list, reloading if stale. It tries a read
// lock first; only takes a write lock if a reload is needed.
func (v *ListView) Posts() ([]blog.Post, error) {
	v.mu.RLock()
	if v.valid() {
		posts := v.posts
		v.mu.RUnlock()
		return posts, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.valid() {
		return v.posts, nil
	}
	posts, err := v.lister.ListPosts(0)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []blog.Post{}
	}
	v.posts = posts
	v.fetched = time.Now()
	return posts, nil
}
