// Package logbuf keeps a bounded in-memory tail of log entries so the
// dashboard can show recent activity without touching process stdout.
package logbuf

import (
	"sync"
	"time"
)

type Entry struct {
	Time    time.Time      `json:"timestamp"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	max     int
	onEntry func(Entry)
}

func New(max int) *Buffer {
	if max <= 0 {
		max = 500
	}
	return &Buffer{max: max}
}

// OnEntry registers a callback invoked for every appended entry. Used to push
// live log events to websocket clients. Must be set before logging starts.
func (b *Buffer) OnEntry(fn func(Entry)) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.onEntry = fn
	b.mu.Unlock()
}

func (b *Buffer) Append(e Entry) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.entries = append(b.entries, e)
	if len(b.entries) > b.max {
		b.entries = b.entries[len(b.entries)-b.max:]
	}
	fn := b.onEntry
	b.mu.Unlock()
	if fn != nil {
		fn(e)
	}
}

// Recent returns up to n entries, newest last. n <= 0 returns everything held.
func (b *Buffer) Recent(n int) []Entry {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 || n > len(b.entries) {
		n = len(b.entries)
	}
	out := make([]Entry, n)
	copy(out, b.entries[len(b.entries)-n:])
	return out
}
