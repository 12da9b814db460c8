// Package hub fans orchestrator events out to websocket clients.
package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	EventInit   = "init"
	EventLog    = "log"
	EventStatus = "status"
	EventTrade  = "trade"
)

type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type Hub struct {
	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	logger  *zap.Logger
	dropped atomic.Uint64
}

func New(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   map[chan Event]struct{}{},
		logger: logger,
	}
}

// Subscribe registers a buffered event channel and returns it with its
// cancel function. Events are dropped per subscriber when the buffer is full;
// a slow websocket client never backpressures the agents.
func (h *Hub) Subscribe(buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 64
	}
	ch := make(chan Event, buf)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) Publish(eventType string, data any) {
	if h == nil {
		return
	}
	evt := Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			if h.dropped.Add(1)%1000 == 1 && h.logger != nil {
				h.logger.Warn("hub dropping events for slow subscriber",
					zap.Uint64("dropped_total", h.dropped.Load()))
			}
		}
	}
}

func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
