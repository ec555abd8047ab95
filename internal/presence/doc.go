// Package presence tracks which viewers are currently inside each post's
// room. Viewers announce themselves with periodic heartbeats; a viewer
// whose heartbeat lapses past the TTL is swept out. Every membership
// change reports the room's full viewer set to the announce callback,
// which feeds the subscription layer.
package presence
