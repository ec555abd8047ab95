package publish

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/inklet/inklet/internal/auth"
	"github.com/inklet/inklet/internal/blog"
	"github.com/inklet/inklet/internal/cachebus"
	"github.com/inklet/inklet/internal/store/blobs"
	"github.com/inklet/inklet/internal/store/records"
	"github.com/inklet/inklet/pkg/id"
	logpkg "github.com/inklet/inklet/pkg/log"
)

// minCommentRunes is the shortest accepted comment text, counted in runes
// after trimming.
const minCommentRunes = 3

// Service is the write pipeline for posts and comments.
type Service struct {
	records  *records.Store
	blobs    *blobs.Store
	provider auth.Provider
	cache    *cachebus.Bus
	logger   logpkg.Logger
}

// New constructs the pipeline.
func New(rec *records.Store, bl *blobs.Store, provider auth.Provider, cache *cachebus.Bus, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &Service{
		records:  rec,
		blobs:    bl,
		provider: provider,
		cache:    cache,
		logger:   logger.With(logpkg.Component("publish")),
	}
}

// validateDraft checks the draft against the upload policy before any
// capability is requested, so a rejected draft has no side effects.
func (s *Service) validateDraft(d blog.Draft) error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", blog.ErrValidation)
	}
	if strings.TrimSpace(d.Body) == "" {
		return fmt.Errorf("%w: body is required", blog.ErrValidation)
	}
	if len(d.Image) == 0 {
		return fmt.Errorf("%w: image is required", blog.ErrValidation)
	}
	pol := s.blobs.Policy()
	if !pol.AllowsType(d.ContentType) {
		return fmt.Errorf("%w: image type %q not allowed", blog.ErrValidation, d.ContentType)
	}
	if pol.MaxBytes > 0 && int64(len(d.Image)) > pol.MaxBytes {
		return fmt.Errorf("%w: image exceeds %d bytes", blog.ErrValidation, pol.MaxBytes)
	}
	return nil
}

// PublishPost runs the full pipeline for one draft and returns the
// committed post.
func (s *Service) PublishPost(ctx context.Context, draft blog.Draft) (blog.Post, error) {
	t0 := time.Now()

	if err := s.validateDraft(draft); err != nil {
		return blog.Post{}, err
	}

	ident, err := s.provider.Identify(ctx)
	if err != nil {
		return blog.Post{}, fmt.Errorf("%w: %v", blog.ErrUnauthorized, err)
	}

	token, err := s.blobs.IssueCapability(ctx, ident.UserID)
	if err != nil {
		return blog.Post{}, fmt.Errorf("%w: %v", blog.ErrUpload, err)
	}
	blobID, err := s.blobs.Put(ctx, token, draft.Image, draft.ContentType)
	if err != nil {
		return blog.Post{}, err
	}

	post, err := s.records.CommitPost(ctx, blog.PostInput{
		Title:      strings.TrimSpace(draft.Title),
		Body:       draft.Body,
		Blob:       blobID,
		AuthorID:   ident.UserID,
		AuthorName: ident.Name,
	})
	if err != nil {
		return blog.Post{}, err
	}

	s.cache.Invalidate(cachebus.TagPostList)

	s.logger.With(
		logpkg.Str("post_id", post.ID.String()),
		logpkg.Str("author", ident.UserID),
		logpkg.Int("image_bytes", len(draft.Image)),
		logpkg.Int64("dur_ms", time.Since(t0).Milliseconds()),
	).Info("publish.post")
	return post, nil
}

// AddComment validates and commits one comment on an existing post. The
// author name comes from the verified identity, never from the input.
func (s *Service) AddComment(ctx context.Context, postID id.ID, text string) (blog.Comment, error) {
	t0 := time.Now()

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minCommentRunes {
		return blog.Comment{}, fmt.Errorf("%w: comment too short", blog.ErrValidation)
	}

	ident, err := s.provider.Identify(ctx)
	if err != nil {
		return blog.Comment{}, fmt.Errorf("%w: %v", blog.ErrUnauthorized, err)
	}

	comment, err := s.records.CommitComment(ctx, blog.CommentInput{
		PostID:     postID,
		AuthorName: ident.Name,
		Text:       text,
	})
	if err != nil {
		return blog.Comment{}, err
	}

	s.logger.With(
		logpkg.Str("post_id", postID.String()),
		logpkg.Str("comment_id", comment.ID.String()),
		logpkg.Int64("dur_ms", time.Since(t0).Milliseconds()),
	).Info("publish.comment")
	return comment, nil
}
