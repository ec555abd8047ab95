// Package blog defines the shared domain model: posts, comments, drafts,
// the error taxonomy surfaced by write pipelines, the query keys that name
// subscribable reads, and the change events emitted when records commit.
//
// The package has no storage or transport dependencies; stores, services,
// and servers all speak these types.
package blog
