// Package records is the durable store for posts and comments.
//
// # Keyspace
//
// Records live under fixed prefixes in one Pebble database:
//
//	post/{id16}              -> JSON-encoded Post
//	comment/{postid16}{id16} -> JSON-encoded Comment
//
// IDs are 16-byte big-endian millisecond-ordered values, so an ascending
// scan of either prefix yields records in creation order and a reverse
// scan yields newest-first.
//
// # Commit ordering
//
// All commits serialize on one mutex. While the mutex is held the store
// invokes its change sink, so downstream feed versions are assigned in
// the same order commits land. A crash between commit and sink delivery
// loses at most the notification, never the record.
package records
