package blobs

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/inklet/inklet/internal/blog"
	pebblestore "github.com/inklet/inklet/internal/storage/pebble"
	"github.com/inklet/inklet/pkg/id"
	"github.com/inklet/inklet/pkg/log"
)

const (
	blobPrefix = "blob/"
	metaPrefix = "blobmeta/"
)

// Policy bounds what uploads are accepted.
type Policy struct {
	// MaxBytes is the largest accepted payload. Zero means unbounded.
	MaxBytes int64
	// AllowedTypes lists accepted MIME types. Empty means any.
	AllowedTypes []string
	// CapabilityTTL is how long an issued upload token remains valid.
	CapabilityTTL time.Duration
}

// AllowsType reports whether contentType passes the allow-list. An empty
// list allows any non-empty type.
func (p Policy) AllowsType(contentType string) bool {
	if contentType == "" {
		return false
	}
	if len(p.AllowedTypes) == 0 {
		return true
	}
	return contains(p.AllowedTypes, contentType)
}

// Meta describes one stored blob.
type Meta struct {
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

type capability struct {
	caller  string
	expires time.Time
}

// Store holds blob bytes and issues upload capabilities.
type Store struct {
	db     *pebblestore.DB
	ids    *id.Generator
	policy Policy
	logger log.Logger

	mu sync.Mutex
	// outstanding maps caller -> token; issuing replaces the entry so a
	// caller never holds two live tokens.
	outstanding map[string]string
	tokens      map[string]capability

	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New creates a blob store over db with the given upload policy.
func New(db *pebblestore.DB, ids *id.Generator, policy Policy, logger log.Logger) *Store {
	return &Store{
		db:          db,
		ids:         ids,
		policy:      policy,
		logger:      logger.With(log.Component("blobs")),
		outstanding: make(map[string]string),
		tokens:      make(map[string]capability),
		entropy:     ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		now:         time.Now,
	}
}

// Policy returns the upload policy the store enforces.
func (s *Store) Policy() Policy { return s.policy }

// IssueCapability mints a single-use upload token for caller. Any token the
// caller already holds is invalidated.
func (s *Store) IssueCapability(ctx context.Context, caller string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.outstanding[caller]; ok {
		delete(s.tokens, prev)
	}
	tok := ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
	s.outstanding[caller] = tok
	s.tokens[tok] = capability{caller: caller, expires: s.now().Add(s.policy.CapabilityTTL)}
	return tok, nil
}

func (s *Store) redeem(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.tokens[token]
	if !ok {
		return blog.ErrCapabilityExpired
	}
	delete(s.tokens, token)
	if s.outstanding[c.caller] == token {
		delete(s.outstanding, c.caller)
	}
	if s.now().After(c.expires) {
		return blog.ErrCapabilityExpired
	}
	return nil
}

// Put redeems token and durably stores data. The token is consumed whether
// or not the write succeeds.
func (s *Store) Put(ctx context.Context, token string, data []byte, contentType string) (id.ID, error) {
	if err := s.redeem(token); err != nil {
		return id.Zero, err
	}
	if s.policy.MaxBytes > 0 && int64(len(data)) > s.policy.MaxBytes {
		return id.Zero, fmt.Errorf("%w: %d bytes exceeds limit", blog.ErrUpload, len(data))
	}
	if !s.policy.AllowsType(contentType) {
		return id.Zero, fmt.Errorf("%w: content type %q not allowed", blog.ErrUpload, contentType)
	}

	blobID := s.ids.Next()
	meta := Meta{ContentType: contentType, Size: int64(len(data)), CreatedAtMs: s.now().UnixMilli()}
	metaBuf, err := json.Marshal(meta)
	if err != nil {
		return id.Zero, fmt.Errorf("%w: encode meta: %v", blog.ErrUpload, err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(key(blobPrefix, blobID), data, nil); err != nil {
		return id.Zero, fmt.Errorf("%w: %v", blog.ErrUpload, err)
	}
	if err := batch.Set(key(metaPrefix, blobID), metaBuf, nil); err != nil {
		return id.Zero, fmt.Errorf("%w: %v", blog.ErrUpload, err)
	}
	if err := s.db.CommitBatch(ctx, batch); err != nil {
		return id.Zero, fmt.Errorf("%w: %v", blog.ErrUpload, err)
	}
	s.logger.Debug("blob stored",
		log.Str("blob_id", blobID.String()),
		log.Int64("bytes", meta.Size),
		log.Str("type", contentType))
	return blobID, nil
}

// Get returns the bytes and metadata of one blob.
func (s *Store) Get(blobID id.ID) ([]byte, Meta, error) {
	metaBuf, err := s.db.Get(key(metaPrefix, blobID))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return nil, Meta{}, fmt.Errorf("%w: blob %s", blog.ErrNotFound, blobID)
		}
		return nil, Meta{}, err
	}
	var meta Meta
	if err := json.Unmarshal(metaBuf, &meta); err != nil {
		return nil, Meta{}, fmt.Errorf("decode blob meta %s: %w", blobID, err)
	}
	data, err := s.db.Get(key(blobPrefix, blobID))
	if err != nil {
		return nil, Meta{}, err
	}
	return data, meta, nil
}

func key(prefix string, blobID id.ID) []byte {
	k := make([]byte, 0, len(prefix)+16)
	k = append(k, prefix...)
	return append(k, blobID[:]...)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
