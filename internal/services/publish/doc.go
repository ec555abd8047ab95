// Package publish runs the write pipeline for posts and comments.
//
// Publishing a post walks a fixed step order: validate the draft,
// resolve the caller identity, acquire an upload capability, upload the
// image bytes, commit the record, then invalidate cached views. A
// failure at any step aborts the attempt; steps before validation and
// authentication have no side effects, so a rejected draft leaves no
// trace. An upload that succeeded before a failed commit leaves an
// orphaned blob, which is accepted.
//
// Change notification is not a pipeline step here: the record store's
// commit sink announces every committed record, so subscribers observe
// changes in commit order regardless of who wrote them.
package publish
