package notify

import (
	"context"
	"sync"
)

// Hub fans notifications out to live subscribers such as websocket clients.
// Slow subscribers miss notifications rather than block the alarm.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Notification]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Notification]struct{})}
}

// Subscribe returns a channel of notifications and a function that ends the subscription
func (h *Hub) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Name() string { return "hub" }

func (h *Hub) Notify(ctx context.Context, n Notification) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- n:
		default:
		}
	}
	return nil
}
