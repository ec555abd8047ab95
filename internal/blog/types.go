package blog

import (
	"github.com/inklet/inklet/pkg/id"
)

// Post is a committed blog entry. Identity is immutable once committed;
// title/body change only via full replace.
type Post struct {
	ID          id.ID  `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Blob        id.ID  `json:"blob,omitempty"` // zero when the post has no image
	AuthorID    string `json:"authorId"`
	AuthorName  string `json:"authorName,omitempty"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

// Comment is an append-only reply to a post. No edit or delete is modeled;
// deleting a post does not cascade to its comments.
type Comment struct {
	ID          id.ID  `json:"id"`
	PostID      id.ID  `json:"postId"`
	AuthorName  string `json:"authorName"`
	Text        string `json:"text"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

// Draft is the caller-supplied input to the publish pipeline, validated
// before any remote call is made.
type Draft struct {
	Title       string
	Body        string
	Image       []byte
	ContentType string
}

// PostInput is the validated record handed to the record store at commit.
type PostInput struct {
	Title      string
	Body       string
	Blob       id.ID
	AuthorID   string
	AuthorName string
}

// CommentInput is the validated record handed to the record store at commit.
type CommentInput struct {
	PostID     id.ID
	AuthorName string
	Text       string
}
