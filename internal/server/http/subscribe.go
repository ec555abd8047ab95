package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	fanoutsvc "github.com/inklet/inklet/internal/services/fanout"
	logpkg "github.com/inklet/inklet/pkg/log"
)

// sseSink streams fanout items as Server-Sent Events. The event id is the
// feed version so clients resume with Last-Event-ID.
type sseSink struct {
	w http.ResponseWriter
	r *http.Request
}

func (s sseSink) Send(it fanoutsvc.Item) error {
	event := "delta"
	if it.Snapshot {
		event = "snapshot"
	}
	_, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", it.Version, event, it.Payload)
	return err
}

func (s sseSink) Context() context.Context { return s.r.Context() }

func (s sseSink) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// resumeVersion reads the resume point from Last-Event-ID or ?after=.
func resumeVersion(r *http.Request) uint64 {
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("after")
	}
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func (s *Server) handleSubscribeSSE(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	opts := fanoutsvc.SubscribeOptions{
		After:  resumeVersion(r),
		Filter: r.URL.Query().Get("filter"),
	}
	if err := s.fanout.Subscribe(key, opts, sseSink{w: w, r: r}); err != nil && r.Context().Err() == nil {
		s.logger.Warn("sse subscribe ended", logpkg.Str("key", key), logpkg.Err(err))
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsItem is the wire shape of one update on the WebSocket transport.
type wsItem struct {
	Key      string          `json:"key"`
	Version  uint64          `json:"version"`
	Snapshot bool            `json:"snapshot,omitempty"`
	Payload  json.RawMessage `json:"payload"`
	AtMs     int64           `json:"atMs,omitempty"`
}

// wsSink delivers fanout items over one WebSocket connection. Writes are
// serialized; gorilla connections allow one concurrent writer.
type wsSink struct {
	conn *websocket.Conn
	ctx  context.Context
	mu   *sync.Mutex
}

func (s wsSink) Send(it fanoutsvc.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(wsItem{
		Key:      it.Key,
		Version:  it.Version,
		Snapshot: it.Snapshot,
		Payload:  json.RawMessage(it.Payload),
		AtMs:     it.AtMs,
	})
}

func (s wsSink) Context() context.Context { return s.ctx }
func (s wsSink) Flush() error             { return nil }

func (s *Server) handleSubscribeWS(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// Reader detects client close; inbound frames are otherwise ignored.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	opts := fanoutsvc.SubscribeOptions{
		After:  resumeVersion(r),
		Filter: r.URL.Query().Get("filter"),
	}
	sink := wsSink{conn: conn, ctx: ctx, mu: &sync.Mutex{}}
	if err := s.fanout.Subscribe(key, opts, sink); err != nil && ctx.Err() == nil {
		s.logger.Warn("ws subscribe ended", logpkg.Str("key", key), logpkg.Err(err))
	}
}
