package log

import (
	"io"
	"os"
	"sync"
)

// ConsoleOutput writes formatted entries to stdout, errors to stderr.
type ConsoleOutput struct {
	mu sync.Mutex
}

// NewConsoleOutput returns a ConsoleOutput.
func NewConsoleOutput() *ConsoleOutput { return &ConsoleOutput{} }

// Write implements Output.
func (o *ConsoleOutput) Write(entry *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	w := os.Stdout
	if entry.Level >= ErrorLevel {
		w = os.Stderr
	}
	_, err := w.Write(formatted)
	return err
}

// Close implements Output; console output has nothing to release.
func (o *ConsoleOutput) Close() error { return nil }

// WriterOutput adapts any io.Writer into an Output. Used by tests.
type WriterOutput struct {
	mu sync.Mutex
	W  io.Writer
}

// NewWriterOutput returns an Output writing to w.
func NewWriterOutput(w io.Writer) *WriterOutput { return &WriterOutput{W: w} }

// Write implements Output.
func (o *WriterOutput) Write(_ *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := o.W.Write(formatted)
	return err
}

// Close implements Output.
func (o *WriterOutput) Close() error { return nil }
