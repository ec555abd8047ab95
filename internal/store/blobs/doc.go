// Package blobs stores image bytes behind short-lived upload capabilities.
//
// An upload is a two-step handshake. IssueCapability hands the caller an
// opaque single-use token; Put redeems the token together with the bytes
// and returns the durable blob ID. Tokens expire after a configured TTL
// and a caller holds at most one outstanding token: issuing a new one
// invalidates the previous.
//
// Blob bytes live under blob/{id16} and their metadata under
// blobmeta/{id16}. Blobs are immutable once written and are never
// garbage collected here; an upload whose commit later fails simply
// leaves an orphaned blob behind.
package blobs
