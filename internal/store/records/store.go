package records

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/inklet/inklet/internal/blog"
	pebblestore "github.com/inklet/inklet/internal/storage/pebble"
	"github.com/inklet/inklet/pkg/id"
	"github.com/inklet/inklet/pkg/log"
)

const (
	postPrefix    = "post/"
	commentPrefix = "comment/"
)

// ChangeSink receives committed changes. It is called with the store's
// commit mutex held so observers see changes in commit order.
type ChangeSink func(ctx context.Context, ch blog.Change)

// Store owns the post and comment records.
type Store struct {
	db     *pebblestore.DB
	ids    *id.Generator
	logger log.Logger

	mu   sync.Mutex
	sink ChangeSink
}

// New creates a record store over db.
func New(db *pebblestore.DB, ids *id.Generator, logger log.Logger) *Store {
	return &Store{
		db:     db,
		ids:    ids,
		logger: logger.With(log.Component("records")),
	}
}

// SetSink installs the change sink. Must be called before the first commit;
// commits with no sink installed do not notify.
func (s *Store) SetSink(sink ChangeSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// prefixUpperBound returns the smallest key greater than every key that
// starts with prefix, for use as an exclusive iterator upper bound.
func prefixUpperBound(prefix []byte) []byte {
	ub := append([]byte(nil), prefix...)
	for i := len(ub) - 1; i >= 0; i-- {
		if ub[i] != 0xff {
			ub[i]++
			return ub[:i+1]
		}
	}
	return nil
}

func postKey(postID id.ID) []byte {
	k := make([]byte, 0, len(postPrefix)+16)
	k = append(k, postPrefix...)
	return append(k, postID[:]...)
}

func commentKey(postID, commentID id.ID) []byte {
	k := make([]byte, 0, len(commentPrefix)+32)
	k = append(k, commentPrefix...)
	k = append(k, postID[:]...)
	return append(k, commentID[:]...)
}

// CommitPost durably writes a new post and emits a post.created change.
func (s *Store) CommitPost(ctx context.Context, in blog.PostInput) (blog.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := blog.Post{
		ID:          s.ids.Next(),
		Title:       in.Title,
		Body:        in.Body,
		Blob:        in.Blob,
		AuthorID:    in.AuthorID,
		AuthorName:  in.AuthorName,
		CreatedAtMs: time.Now().UnixMilli(),
	}
	buf, err := json.Marshal(post)
	if err != nil {
		return blog.Post{}, fmt.Errorf("%w: encode post: %v", blog.ErrCommitConflict, err)
	}
	if err := s.db.Set(postKey(post.ID), buf); err != nil {
		return blog.Post{}, fmt.Errorf("%w: %v", blog.ErrCommitConflict, err)
	}
	s.logger.Info("post committed", log.Str("post_id", post.ID.String()), log.Str("author", post.AuthorID))
	if s.sink != nil {
		s.sink(ctx, blog.Change{Op: blog.OpPostCreated, Post: &post})
	}
	return post, nil
}

// GetPost loads one post by ID.
func (s *Store) GetPost(postID id.ID) (blog.Post, error) {
	buf, err := s.db.Get(postKey(postID))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return blog.Post{}, fmt.Errorf("%w: post %s", blog.ErrNotFound, postID)
		}
		return blog.Post{}, err
	}
	var post blog.Post
	if err := json.Unmarshal(buf, &post); err != nil {
		return blog.Post{}, fmt.Errorf("decode post %s: %w", postID, err)
	}
	return post, nil
}

// ListPosts returns all posts newest-first. A limit of 0 means no limit.
func (s *Store) ListPosts(limit int) ([]blog.Post, error) {
	low := []byte(postPrefix)
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: prefixUpperBound(low)})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var posts []blog.Post
	for ok := it.Last(); ok; ok = it.Prev() {
		if limit > 0 && len(posts) >= limit {
			break
		}
		var post blog.Post
		if err := json.Unmarshal(it.Value(), &post); err != nil {
			return nil, fmt.Errorf("decode post at %q: %w", it.Key(), err)
		}
		posts = append(posts, post)
	}
	return posts, it.Error()
}

// CommitComment durably writes a new comment under its post and emits a
// comment.created change. The post must exist.
func (s *Store) CommitComment(ctx context.Context, in blog.CommentInput) (blog.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Get(postKey(in.PostID)); err != nil {
		if pebblestore.IsNotFound(err) {
			return blog.Comment{}, fmt.Errorf("%w: post %s", blog.ErrNotFound, in.PostID)
		}
		return blog.Comment{}, err
	}

	comment := blog.Comment{
		ID:          s.ids.Next(),
		PostID:      in.PostID,
		AuthorName:  in.AuthorName,
		Text:        in.Text,
		CreatedAtMs: time.Now().UnixMilli(),
	}
	buf, err := json.Marshal(comment)
	if err != nil {
		return blog.Comment{}, fmt.Errorf("%w: encode comment: %v", blog.ErrCommitConflict, err)
	}
	if err := s.db.Set(commentKey(in.PostID, comment.ID), buf); err != nil {
		return blog.Comment{}, fmt.Errorf("%w: %v", blog.ErrCommitConflict, err)
	}
	s.logger.Info("comment committed",
		log.Str("post_id", in.PostID.String()),
		log.Str("comment_id", comment.ID.String()))
	if s.sink != nil {
		s.sink(ctx, blog.Change{Op: blog.OpCommentCreated, Comment: &comment})
	}
	return comment, nil
}

// ListComments returns the comments of one post in creation order.
func (s *Store) ListComments(postID id.ID) ([]blog.Comment, error) {
	low := make([]byte, 0, len(commentPrefix)+16)
	low = append(low, commentPrefix...)
	low = append(low, postID[:]...)

	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: prefixUpperBound(low)})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var comments []blog.Comment
	for ok := it.First(); ok; ok = it.Next() {
		var c blog.Comment
		if err := json.Unmarshal(it.Value(), &c); err != nil {
			return nil, fmt.Errorf("decode comment at %q: %w", it.Key(), err)
		}
		comments = append(comments, c)
	}
	return comments, it.Error()
}
