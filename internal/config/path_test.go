package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDataDirXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	got := DefaultDataDir()
	if got != filepath.Join(dir, "inklet") {
		t.Fatalf("xdg dir: %q", got)
	}
}

func TestDefaultDataDirNonEmpty(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	got := DefaultDataDir()
	if got == "" {
		t.Fatalf("empty data dir")
	}
	if !strings.Contains(strings.ToLower(got), "inklet") && got != "./data" {
		t.Fatalf("unexpected data dir: %q", got)
	}
}
