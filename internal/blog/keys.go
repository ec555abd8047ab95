package blog

import (
	"strings"

	"github.com/inklet/inklet/pkg/id"
)

// Query keys name subscribable reads. A key is "<kind>" or "<kind>/<arg>";
// the kind selects the snapshot source and the arg scopes it.
const (
	KindPostList = "posts"
	KindPost     = "post"
	KindComments = "comments"
	KindPresence = "presence"
	KindSearch   = "search"
)

// KeyPostList is the single key covering the list of all posts.
func KeyPostList() string { return KindPostList }

// KeyPost names the live view of one post.
func KeyPost(postID id.ID) string { return KindPost + "/" + postID.String() }

// KeyComments names the live comment list of one post.
func KeyComments(postID id.ID) string { return KindComments + "/" + postID.String() }

// KeyPresence names the live viewer set of one post's room.
func KeyPresence(postID id.ID) string { return KindPresence + "/" + postID.String() }

// KeySearch names the live result set for one search term.
func KeySearch(term string) string { return KindSearch + "/" + term }

// KeyKind returns the kind segment of a query key.
func KeyKind(key string) string {
	if i := strings.IndexByte(key, '/'); i >= 0 {
		return key[:i]
	}
	return key
}

// KeyArg returns the argument segment of a query key, or "" if none.
func KeyArg(key string) string {
	if i := strings.IndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return ""
}
