// Package runtime wires the shared single-node facilities together:
// the Pebble database, the effective configuration, the ID generator,
// and the change-feed bus. Services receive a Runtime and reach their
// collaborators through it instead of opening their own storage.
package runtime
