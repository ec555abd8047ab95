package feed

import (
	"context"
	"testing"
	"time"

	pebblestore "github.com/inklet/inklet/internal/storage/pebble"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewBus(db)
}

func TestAppendAssignsIncreasingVersions(t *testing.T) {
	bus := newTestBus(t)
	f := bus.Feed("comments/p1")
	ctx := context.Background()

	v1, err := f.Append(ctx, []byte("a"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	v2, err := f.Append(ctx, []byte("b"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !(v1 < v2) {
		t.Fatalf("versions not increasing: %d %d", v1, v2)
	}
	if f.Version() != v2 {
		t.Fatalf("Version() = %d, want %d", f.Version(), v2)
	}
}

func TestReadAfterWatermark(t *testing.T) {
	bus := newTestBus(t)
	f := bus.Feed("posts")
	ctx := context.Background()

	for _, p := range []string{"a", "b", "c"} {
		if _, err := f.Append(ctx, []byte(p)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	items := f.Read(ReadOptions{After: 1})
	if len(items) != 2 {
		t.Fatalf("want 2 items after version 1, got %d", len(items))
	}
	if string(items[0].Payload) != "b" || string(items[1].Payload) != "c" {
		t.Fatalf("wrong payloads: %q %q", items[0].Payload, items[1].Payload)
	}
	if items[0].Version != 2 || items[1].Version != 3 {
		t.Fatalf("wrong versions: %d %d", items[0].Version, items[1].Version)
	}
}

func TestBusSharesNotifyChannel(t *testing.T) {
	bus := newTestBus(t)
	reader := bus.Feed("presence/p1")
	writer := bus.Feed("presence/p1")
	if reader != writer {
		t.Fatalf("bus should hand out one feed instance per key")
	}

	done := make(chan struct{})
	go func() {
		if !reader.WaitForAppend(2 * time.Second) {
			t.Errorf("expected wake by append")
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if _, err := writer.Append(context.Background(), []byte("x")); err != nil {
		t.Fatalf("append: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("waiter never woke")
	}
}

func TestWaitForAppendTimeout(t *testing.T) {
	bus := newTestBus(t)
	f := bus.Feed("quiet")
	if f.WaitForAppend(30 * time.Millisecond) {
		t.Fatalf("expected timeout")
	}
}

func TestVersionDurableAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	bus := NewBus(db)
	f := bus.Feed("posts")
	ctx := context.Background()
	if _, err := f.Append(ctx, []byte("x")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := f.Append(ctx, []byte("y")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("reopen pebble: %v", err)
	}
	t.Cleanup(func() { _ = db2.Close() })
	f2 := NewBus(db2).Feed("posts")
	if f2.Version() != 2 {
		t.Fatalf("version after reopen: %d", f2.Version())
	}
	v3, err := f2.Append(ctx, []byte("z"))
	if err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	if v3 != 3 {
		t.Fatalf("append after reopen: version %d", v3)
	}
}

func TestTrimBelowKeepsVersionCounter(t *testing.T) {
	bus := newTestBus(t)
	f := bus.Feed("presence/p2")
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := f.Append(ctx, []byte{byte(i)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	n, err := f.TrimBelow(ctx, 4, 2)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if n != 3 {
		t.Fatalf("deleted %d, want 3", n)
	}
	items := f.Read(ReadOptions{})
	if len(items) != 2 || items[0].Version != 4 {
		t.Fatalf("unexpected items after trim: %+v", items)
	}
	if v, err := f.Append(ctx, []byte("new")); err != nil || v != 6 {
		t.Fatalf("append after trim: v=%d err=%v", v, err)
	}
}

func TestDistinctKeysAreIsolated(t *testing.T) {
	bus := newTestBus(t)
	a := bus.Feed("comments/a")
	b := bus.Feed("comments/a/extra") // prefix-overlapping key
	ctx := context.Background()

	if _, err := a.Append(ctx, []byte("one")); err != nil {
		t.Fatalf("append a: %v", err)
	}
	if _, err := b.Append(ctx, []byte("two")); err != nil {
		t.Fatalf("append b: %v", err)
	}
	if got := a.Read(ReadOptions{}); len(got) != 1 || string(got[0].Payload) != "one" {
		t.Fatalf("feed a saw foreign entries: %+v", got)
	}
	if got := b.Read(ReadOptions{}); len(got) != 1 || string(got[0].Payload) != "two" {
		t.Fatalf("feed b saw foreign entries: %+v", got)
	}
}
