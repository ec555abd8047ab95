package cachebus

import (
	"sync"

	"github.com/inklet/inklet/pkg/log"
)

// TagPostList covers every cached view derived from the set of posts.
// Creating a post invalidates this tag; there is no finer granularity.
const TagPostList = "blog-list"

// View is a cache that can be told to drop its contents.
type View interface {
	Invalidate()
}

// Bus fans invalidation tags out to registered views.
type Bus struct {
	logger log.Logger

	mu    sync.RWMutex
	views map[string][]View
}

func NewBus(logger log.Logger) *Bus {
	return &Bus{
		logger: logger.With(log.Component("cachebus")),
		views:  make(map[string][]View),
	}
}

// Register subscribes view to one or more tags.
func (b *Bus) Register(view View, tags ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tag := range tags {
		b.views[tag] = append(b.views[tag], view)
	}
}

// Invalidate drops every view registered under tag.
func (b *Bus) Invalidate(tag string) {
	b.mu.RLock()
	views := b.views[tag]
	b.mu.RUnlock()

	for _, v := range views {
		v.Invalidate()
	}
	b.logger.Debug("invalidated", log.Str("tag", tag), log.Int("views", len(views)))
}
