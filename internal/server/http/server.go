package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/inklet/inklet/internal/auth"
	"github.com/inklet/inklet/internal/blog"
	"github.com/inklet/inklet/internal/cachebus"
	"github.com/inklet/inklet/internal/presence"
	"github.com/inklet/inklet/internal/runtime"
	fanoutsvc "github.com/inklet/inklet/internal/services/fanout"
	publishsvc "github.com/inklet/inklet/internal/services/publish"
	searchsvc "github.com/inklet/inklet/internal/services/search"
	"github.com/inklet/inklet/internal/store/blobs"
	"github.com/inklet/inklet/internal/store/records"
	"github.com/inklet/inklet/pkg/id"
	logpkg "github.com/inklet/inklet/pkg/log"
)

type Server struct {
	rt  *runtime.Runtime
	srv *http.Server
	lis net.Listener

	records  *records.Store
	blobs    *blobs.Store
	publish  *publishsvc.Service
	fanout   *fanoutsvc.Service
	search   *searchsvc.Coordinator
	presence *presence.Tracker
	listView *cachebus.ListView
	provider auth.Provider
	logger   logpkg.Logger
}

// New wires the full service graph over rt and returns the HTTP server.
func New(rt *runtime.Runtime, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	cfg := rt.Config()

	rec := records.New(rt.DB(), rt.IDs(), logger)
	bl := blobs.New(rt.DB(), rt.IDs(), blobs.Policy{
		MaxBytes:      int64(cfg.Publish.MaxImageBytes),
		AllowedTypes:  cfg.Publish.AllowedImageTypes,
		CapabilityTTL: time.Duration(cfg.Publish.CapabilityTTLMs) * time.Millisecond,
	}, logger)
	provider := auth.NewJWT([]byte(cfg.Auth.Secret))
	cache := cachebus.NewBus(logger)
	listView := cachebus.NewListView(rec, time.Duration(cfg.Cache.PostListTTLMs)*time.Millisecond)
	cache.Register(listView, cachebus.TagPostList)

	fo := fanoutsvc.NewWithLogger(rt, logger)
	// Commits reach subscribers through the store's sink, in commit order.
	// The list view is invalidated here, before the feed version advances:
	// a subscriber attaching at the new watermark must snapshot a list
	// that already contains the commit, or it would skip the delta as
	// below the watermark and never see the post.
	rec.SetSink(func(ctx context.Context, ch blog.Change) {
		if ch.Op == blog.OpPostCreated {
			cache.Invalidate(cachebus.TagPostList)
		}
		if err := fo.Announce(ctx, ch); err != nil {
			logger.Warn("announce failed", logpkg.Str("op", ch.Op), logpkg.Err(err))
		}
	})

	tracker := presence.New(presence.Options{
		TTL:           time.Duration(cfg.Presence.TTLMs) * time.Millisecond,
		SweepInterval: time.Duration(cfg.Presence.SweepMs) * time.Millisecond,
	}, func(room string, viewers []string) {
		_ = fo.Announce(context.Background(), blog.Change{Op: blog.OpPresence, Room: room, Viewers: viewers})
	}, logger)

	sc := searchsvc.New(rec, rt.Feeds(), searchsvc.Options{
		MinTermLength: cfg.Search.MinTermLength,
		Debounce:      time.Duration(cfg.Search.DebounceMs) * time.Millisecond,
		Limit:         cfg.Search.Limit,
	}, logger)

	s := &Server{
		rt:       rt,
		records:  rec,
		blobs:    bl,
		publish:  publishsvc.New(rec, bl, provider, cache, logger),
		fanout:   fo,
		search:   sc,
		presence: tracker,
		listView: listView,
		provider: provider,
		logger:   logger.With(logpkg.Component("http")),
	}
	s.registerSnapshots()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/posts", s.handleCreatePost)
	mux.HandleFunc("GET /v1/posts", s.handleListPosts)
	mux.HandleFunc("GET /v1/posts/search", s.handleSearch)
	mux.HandleFunc("GET /v1/posts/{id}", s.handleGetPost)
	mux.HandleFunc("POST /v1/posts/{id}/comments", s.handleAddComment)
	mux.HandleFunc("GET /v1/posts/{id}/comments", s.handleListComments)
	mux.HandleFunc("GET /v1/blobs/{id}", s.handleGetBlob)
	mux.HandleFunc("GET /v1/subscribe", s.handleSubscribeSSE)
	mux.HandleFunc("GET /v1/subscribe/ws", s.handleSubscribeWS)
	mux.HandleFunc("GET /v1/search/ws", s.handleSearchWS)
	mux.HandleFunc("POST /v1/presence/{id}/heartbeat", s.handleHeartbeat)
	mux.HandleFunc("POST /v1/presence/{id}/leave", s.handleLeave)
	s.srv = &http.Server{Handler: cors(withBearer(mux))}
	return s
}

// Handler exposes the configured handler for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Presence returns the viewer tracker so the caller can run its sweep loop.
func (s *Server) Presence() *presence.Tracker { return s.presence }

// Search returns the search coordinator so the caller can run its refresh
// loop.
func (s *Server) Search() *searchsvc.Coordinator { return s.search }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// registerSnapshots binds each query-key kind to its state source so a
// fresh subscriber gets the full picture before the delta stream.
func (s *Server) registerSnapshots() {
	s.fanout.RegisterSnapshot(blog.KindPostList, func(ctx context.Context, arg string) ([]byte, error) {
		posts, err := s.listView.Posts()
		if err != nil {
			return nil, err
		}
		return json.Marshal(posts)
	})
	s.fanout.RegisterSnapshot(blog.KindPost, func(ctx context.Context, arg string) ([]byte, error) {
		postID, err := id.Parse(arg)
		if err != nil {
			return nil, err
		}
		post, err := s.records.GetPost(postID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(post)
	})
	s.fanout.RegisterSnapshot(blog.KindComments, func(ctx context.Context, arg string) ([]byte, error) {
		postID, err := id.Parse(arg)
		if err != nil {
			return nil, err
		}
		comments, err := s.records.ListComments(postID)
		if err != nil {
			return nil, err
		}
		if comments == nil {
			comments = []blog.Comment{}
		}
		return json.Marshal(comments)
	})
	s.fanout.RegisterSnapshot(blog.KindPresence, func(ctx context.Context, arg string) ([]byte, error) {
		return json.Marshal(s.presence.Active(arg))
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Last-Event-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withBearer lifts the Authorization header into the request context so
// services can resolve the caller identity.
func withBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			r = r.WithContext(auth.WithToken(r.Context(), auth.StripBearer(h)))
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, blog.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, blog.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, blog.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, blog.ErrCapabilityExpired):
		status = http.StatusGone
	case errors.Is(err, blog.ErrUpload):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": blog.UserMessage(err)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_serving"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreatePost accepts a multipart form with title, body, and an
// optional image part.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.rt.Config().Publish.MaxImageBytes) + 1<<20
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, blog.ErrValidation)
		return
	}
	draft := blog.Draft{
		Title: r.FormValue("title"),
		Body:  r.FormValue("body"),
	}
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, blog.ErrUpload)
			return
		}
		draft.Image = data
		draft.ContentType = header.Header.Get("Content-Type")
	}

	post, err := s.publish.PublishPost(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.listView.Posts()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := id.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, blog.ErrNotFound)
		return
	}
	post, err := s.records.GetPost(postID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

type addCommentReq struct {
	Text string `json:"text"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	postID, err := id.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, blog.ErrNotFound)
		return
	}
	var req addCommentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, blog.ErrValidation)
		return
	}
	comment, err := s.publish.AddComment(r.Context(), postID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := id.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, blog.ErrNotFound)
		return
	}
	comments, err := s.records.ListComments(postID)
	if err != nil {
		writeError(w, err)
		return
	}
	if comments == nil {
		comments = []blog.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// handleSearch is the one-shot query endpoint. Incremental sessions with
// debounce live on the subscription transports; this serves plain HTTP
// clients.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	cfg := s.rt.Config().Search
	if len([]rune(term)) < cfg.MinTermLength {
		writeJSON(w, http.StatusOK, []records.SearchResult{})
		return
	}
	results, err := s.records.SearchPosts(term, cfg.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []records.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	blobID, err := id.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, blog.ErrNotFound)
		return
	}
	data, meta, err := s.blobs.Get(blobID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	_, _ = w.Write(data)
}

type heartbeatReq struct {
	Viewer string `json:"viewer"`
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("id")
	var req heartbeatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Viewer == "" {
		writeError(w, blog.ErrValidation)
		return
	}
	s.presence.Heartbeat(room, req.Viewer)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("id")
	var req heartbeatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Viewer == "" {
		writeError(w, blog.ErrValidation)
		return
	}
	s.presence.Leave(room, req.Viewer)
	w.WriteHeader(http.StatusNoContent)
}
