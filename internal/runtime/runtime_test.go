package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/inklet/inklet/internal/config"
	pebblestore "github.com/inklet/inklet/internal/storage/pebble"
)

func TestOpenCloseAndHealth(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if rt.IDs() == nil || rt.Feeds() == nil || rt.DB() == nil {
		t.Fatalf("runtime accessors returned nil")
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
