// Package cachebus routes coarse invalidation tags to registered cached
// views. Writers name what class of data changed (a tag), not which
// entries; every view registered under that tag drops its contents and
// reloads lazily on the next read. Over-invalidation is accepted in
// exchange for never serving stale data after a commit.
package cachebus
