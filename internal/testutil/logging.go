// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// Entry is one captured log record
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// CaptureHandler is an slog.Handler that buffers records so tests can assert
// on what a component logged.
type CaptureHandler struct {
	mu      sync.Mutex
	entries []Entry
}

// NewCaptureLogger returns a logger backed by a capture handler
func NewCaptureLogger() (*slog.Logger, *CaptureHandler) {
	h := &CaptureHandler{}
	return slog.New(h), h
}

func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, Entry{Level: r.Level, Message: r.Message, Attrs: attrs})
	return nil
}

func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *CaptureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *CaptureHandler) WithGroup(string) slog.Handler { return h }

// Entries returns a copy of everything logged so far
func (h *CaptureHandler) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// AssertLogged fails the test unless a record at level contains message as a
// substring.
func (h *CaptureHandler) AssertLogged(t *testing.T, level slog.Level, message string) {
	t.Helper()
	for _, e := range h.Entries() {
		if e.Level == level && strings.Contains(e.Message, message) {
			return
		}
	}
	t.Errorf("expected a %s log containing %q", level, message)
}
