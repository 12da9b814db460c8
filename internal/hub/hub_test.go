package hub

import (
	"testing"
)

func TestSubscribeAndCancel(t *testing.T) {
	h := New(nil)
	if got := h.Subscribers(); got != 0 {
		t.Fatalf("subscribers=%d want 0", got)
	}

	ch, cancel := h.Subscribe(4)
	if got := h.Subscribers(); got != 1 {
		t.Fatalf("subscribers=%d want 1", got)
	}

	h.Publish(EventStatus, map[string]any{"running": true})
	evt := <-ch
	if evt.Type != EventStatus {
		t.Fatalf("type=%q want %q", evt.Type, EventStatus)
	}

	cancel()
	if got := h.Subscribers(); got != 0 {
		t.Fatalf("subscribers=%d want 0 after cancel", got)
	}
	if _, open := <-ch; open {
		t.Fatal("channel still open after cancel")
	}
	// Double cancel is a no-op.
	cancel()
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	h := New(nil)
	ch, cancel := h.Subscribe(1)
	defer cancel()

	h.Publish(EventLog, "first")
	h.Publish(EventLog, "second")

	evt := <-ch
	if evt.Data != "first" {
		t.Fatalf("data=%v want first", evt.Data)
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected buffered event %v", extra)
	default:
	}
	if h.dropped.Load() != 1 {
		t.Fatalf("dropped=%d want 1", h.dropped.Load())
	}
}

func TestNilHubIsInert(t *testing.T) {
	var h *Hub
	h.Publish(EventTrade, nil)
	if got := h.Subscribers(); got != 0 {
		t.Fatalf("subscribers=%d want 0 on nil hub", got)
	}
}
