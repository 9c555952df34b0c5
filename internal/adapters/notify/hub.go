package notify

import (
	"context"
	"sync"

	"github.com/okian/shelf/pkg/metrics"
)

const defaultSubscriberBuffer = 16

// Hub keeps in-process subscriptions per user. Slow subscribers miss events
// instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscription]struct{}
	buffer int
}

type subscription struct {
	ch   chan Event
	once sync.Once
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscription]struct{}), buffer: defaultSubscriberBuffer}
}

func (h *Hub) Name() string { return "hub" }

// Subscribe registers interest in userID's events. The returned cancel func
// must be called to release the subscription; it closes the channel.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs[userID], sub)
		if len(h.subs[userID]) == 0 {
			delete(h.subs, userID)
		}
		h.mu.Unlock()
		sub.once.Do(func() { close(sub.ch) })
	}
	return sub.ch, cancel
}

// Subscribers returns how many subscriptions userID has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

func (h *Hub) Notify(_ context.Context, e Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[e.UserID] {
		select {
		case sub.ch <- e:
		default:
			metrics.RecordNotification(h.Name(), "dropped")
		}
	}
	return nil
}
