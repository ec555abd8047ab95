package blog

// Change ops. One op per record mutation kind; presence updates replace the
// whole viewer set rather than diffing it.
const (
	OpPostCreated    = "post.created"
	OpCommentCreated = "comment.created"
	OpPresence       = "presence"
)

// Change is the event emitted when a mutation commits. Exactly one of the
// payload fields is set, selected by Op. Changes are what subscription
// deltas carry on the wire.
type Change struct {
	Op      string   `json:"op"`
	Post    *Post    `json:"post,omitempty"`
	Comment *Comment `json:"comment,omitempty"`
	// Room and Viewers describe presence for one post's room.
	Room    string   `json:"room,omitempty"`
	Viewers []string `json:"viewers,omitempty"`
}
