package runtime

import (
	"context"
	"errors"
	"time"

	cfgpkg "github.com/inklet/inklet/internal/config"
	"github.com/inklet/inklet/internal/feed"
	pebblestore "github.com/inklet/inklet/internal/storage/pebble"
	"github.com/inklet/inklet/pkg/id"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Runtime wires storage, config, and shared facilities for a single-node
// instance.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
	ids    *id.Generator
	feeds  *feed.Bus
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync, FsyncInterval: opts.FsyncInterval})
	if err != nil {
		return nil, err
	}
	return &Runtime{
		db:     db,
		config: opts.Config,
		ids:    id.NewGenerator(),
		feeds:  feed.NewBus(db),
	}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// IDs returns the shared sortable ID generator.
func (r *Runtime) IDs() *id.Generator { return r.ids }

// Feeds returns the change-feed bus.
func (r *Runtime) Feeds() *feed.Bus { return r.feeds }
