// Package log provides inklet's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Internally it is backed by the standard
// library's slog via a custom handler that routes records through the
// formatter/output pipeline, so slog-aware libraries and our own code share
// one output path.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("publish"))
//	l.Info("post committed", log.Str("post_id", id))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level + format),
// which is how the server start path constructs the process-wide logger from
// flags and INKLET_* environment variables.
//
// # Interop
//
// RedirectStdLog routes the standard library's log package (used by Pebble)
// into a Logger so third-party output shares formatting and level gating.
package log
