// Package httpserver exposes the publish pipeline, cached reads, search,
// presence, and live subscriptions over HTTP. Live updates stream as
// Server-Sent Events or over a WebSocket; both transports carry the same
// snapshot-then-deltas protocol and support resuming from a version.
package httpserver
