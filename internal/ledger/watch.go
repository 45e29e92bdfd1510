package ledger

import "sync"

// Hub fans out summary snapshots to live subscribers. Every event carries the
// full recomputed summary; subscribers replace their state with it rather than
// patching, so a missed event cannot cause drift.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Summary]struct{}
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Summary]struct{})}
}

// Subscribe registers a subscriber. The returned cancel func must be called to
// release it.
func (h *Hub) Subscribe() (<-chan Summary, func()) {
	ch := make(chan Summary, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Broadcast delivers a snapshot to every subscriber. A slow subscriber's
// pending snapshot is replaced by the newer one; the latest snapshot is
// authoritative, intermediate ones carry no extra information.
func (h *Hub) Broadcast(summary Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- summary:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- summary
		}
	}
}
