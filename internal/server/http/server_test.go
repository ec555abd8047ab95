package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inklet/inklet/internal/auth"
	"github.com/inklet/inklet/internal/blog"
	cfgpkg "github.com/inklet/inklet/internal/config"
	"github.com/inklet/inklet/internal/runtime"
	fanoutsvc "github.com/inklet/inklet/internal/services/fanout"
	pebblestore "github.com/inklet/inklet/internal/storage/pebble"
	"github.com/inklet/inklet/pkg/log"
)

const testSecret = "test-secret"

func newServerForTest(t *testing.T) *Server {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Auth.Secret = testSecret
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return New(rt, log.NewLogger())
}

func mintToken(t *testing.T) string {
	t.Helper()
	tok, err := auth.IssueToken([]byte(testSecret), auth.Identity{UserID: "u1", Name: "Ada"}, time.Minute)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return tok
}

func postDraft(t *testing.T, s *Server, token, title, body string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", title)
	_ = mw.WriteField("body", body)
	if image != nil {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="image"; filename="pic.png"`)
		hdr.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = part.Write(image)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/posts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newServerForTest(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestCreateListGetPost(t *testing.T) {
	s := newServerForTest(t)
	token := mintToken(t)

	rec := postDraft(t, s, token, "Hello", "world", []byte("png-bytes"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body)
	}
	var post blog.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &post); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if post.AuthorName != "Ada" || post.Blob.IsZero() {
		t.Fatalf("bad post: %+v", post)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/posts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var posts []blog.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != post.ID {
		t.Fatalf("list: %+v", posts)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/posts/"+post.ID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/blobs/"+post.Blob.String(), nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "png-bytes" {
		t.Fatalf("blob: status %d body %q", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("blob content type %q", ct)
	}
}

func TestCreatePostRejections(t *testing.T) {
	s := newServerForTest(t)

	rec := postDraft(t, s, "", "Hello", "world", []byte("png"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Unauthorized!") {
		t.Fatalf("anonymous body: %s", rec.Body)
	}

	rec = postDraft(t, s, mintToken(t), "", "world", []byte("png"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty title: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid data!") {
		t.Fatalf("empty title body: %s", rec.Body)
	}

	rec = postDraft(t, s, mintToken(t), "Hello", "world", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing image: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid data!") {
		t.Fatalf("missing image body: %s", rec.Body)
	}
}

func TestComments(t *testing.T) {
	s := newServerForTest(t)
	token := mintToken(t)

	rec := postDraft(t, s, token, "t", "b", []byte("png"))
	var post blog.Post
	_ = json.Unmarshal(rec.Body.Bytes(), &post)

	body := bytes.NewBufferString(`{"text":"great write-up"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/posts/"+post.ID.String()+"/comments", body)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment: status %d body %s", rec.Code, rec.Body)
	}

	body = bytes.NewBufferString(`{"text":"hi"}`)
	req = httptest.NewRequest(http.MethodPost, "/v1/posts/"+post.ID.String()+"/comments", body)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short comment: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/posts/"+post.ID.String()+"/comments", nil))
	var comments []blog.Comment
	if err := json.Unmarshal(rec.Body.Bytes(), &comments); err != nil {
		t.Fatalf("decode comments: %v", err)
	}
	if len(comments) != 1 || comments[0].Text != "great write-up" || comments[0].AuthorName != "Ada" {
		t.Fatalf("comments: %+v", comments)
	}
}

func TestSearchEndpoint(t *testing.T) {
	s := newServerForTest(t)
	token := mintToken(t)
	postDraft(t, s, token, "Go concurrency", "channels", []byte("png"))
	postDraft(t, s, token, "Unrelated", "go appears in body", []byte("png"))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/posts/search?q=go", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("search: status %d", rec.Code)
	}
	var results []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results: %+v", results)
	}

	// below minimum term length: empty set, no backend hit
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/posts/search?q=g", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("short term: status %d body %q", rec.Code, rec.Body)
	}
}

func TestPresenceEndpoints(t *testing.T) {
	s := newServerForTest(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/presence/p1/heartbeat", bytes.NewBufferString(`{"viewer":"alice"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("heartbeat: status %d", rec.Code)
	}
	if got := s.Presence().Active("p1"); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("active: %v", got)
	}
	if v := s.rt.Feeds().Feed("presence/p1").Version(); v != 1 {
		t.Fatalf("presence feed version %d", v)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/presence/p1/leave", bytes.NewBufferString(`{"viewer":"alice"}`))
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("leave: status %d", rec.Code)
	}
	if got := s.Presence().Active("p1"); len(got) != 0 {
		t.Fatalf("active after leave: %v", got)
	}
}

func TestSSESubscribeDeliversSnapshotAndDelta(t *testing.T) {
	s := newServerForTest(t)
	token := mintToken(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/subscribe?key=posts", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}

	events := make(chan string, 8)
	go func() {
		buf := make([]byte, 4096)
		var acc strings.Builder
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				acc.WriteString(string(buf[:n]))
				for {
					text := acc.String()
					idx := strings.Index(text, "\n\n")
					if idx < 0 {
						break
					}
					events <- text[:idx]
					acc.Reset()
					acc.WriteString(text[idx+2:])
				}
			}
			if err != nil {
				close(events)
				return
			}
		}
	}()

	first := <-events
	if !strings.Contains(first, "event: snapshot") {
		t.Fatalf("first event: %q", first)
	}

	rec := postDraft(t, s, token, "Live", "update", []byte("png"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("publish during stream: %d", rec.Code)
	}

	select {
	case ev := <-events:
		if !strings.Contains(ev, "event: delta") || !strings.Contains(ev, blog.OpPostCreated) {
			t.Fatalf("delta event: %q", ev)
		}
	case <-ctx.Done():
		t.Fatalf("no delta before timeout")
	}
}

// collectSink gathers subscription items for direct fanout assertions.
type collectSink struct {
	ctx   context.Context
	mu    sync.Mutex
	items []fanoutsvc.Item
	first chan struct{}
	once  sync.Once
}

func (c *collectSink) Send(it fanoutsvc.Item) error {
	c.mu.Lock()
	c.items = append(c.items, it)
	c.mu.Unlock()
	c.once.Do(func() { close(c.first) })
	return nil
}
func (c *collectSink) Context() context.Context { return c.ctx }
func (c *collectSink) Flush() error             { return nil }

func TestSnapshotIncludesPostCommittedAfterListCacheWarmed(t *testing.T) {
	s := newServerForTest(t)

	// Warm the cached list while the store is still empty.
	if posts, err := s.listView.Posts(); err != nil || len(posts) != 0 {
		t.Fatalf("warm list: %v %v", posts, err)
	}

	// Commit through the record store directly: the sink invalidates the
	// list view before the feed version advances, so a subscriber
	// attaching at the new watermark must see the post in its snapshot.
	post, err := s.records.CommitPost(context.Background(), blog.PostInput{
		Title: "Fresh", Body: "b", AuthorID: "u1",
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sink := &collectSink{ctx: ctx, first: make(chan struct{})}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.fanout.Subscribe(blog.KeyPostList(), fanoutsvc.SubscribeOptions{}, sink)
	}()

	select {
	case <-sink.first:
	case <-ctx.Done():
		t.Fatalf("no snapshot before timeout")
	}
	cancel()
	<-done

	sink.mu.Lock()
	snap := sink.items[0]
	sink.mu.Unlock()
	if !snap.Snapshot {
		t.Fatalf("first item not a snapshot: %+v", snap)
	}
	if !bytes.Contains(snap.Payload, []byte(post.ID.String())) {
		t.Fatalf("snapshot is the stale list, missing %s: %s", post.ID, snap.Payload)
	}
}
