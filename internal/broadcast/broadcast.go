// Package broadcast fans in-process change events out to subscribers.
//
// Publishing never blocks: a subscriber whose buffer is full misses the
// event and a warning is logged. Subscribers that must not miss state read
// the authoritative value from its owner after being woken.
package broadcast

import (
	"sync"

	"github.com/rs/zerolog"
)

const defaultBuffer = 16

// Hub delivers values of type T to every current subscriber.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[int]chan T
	nextID int
	closed bool
	log    zerolog.Logger
	name   string
}

// New creates a Hub. name labels drop warnings in the log.
func New[T any](name string, log zerolog.Logger) *Hub[T] {
	return &Hub[T]{
		subs: make(map[int]chan T),
		log:  log.With().Str("component", "broadcast").Str("hub", name).Logger(),
		name: name,
	}
}

// Subscribe registers a new listener. The returned function unsubscribes and
// closes the channel; calling it more than once is safe.
func (h *Hub[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	ch := make(chan T, buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers v to every subscriber that has room and returns the number
// of subscribers reached.
func (h *Hub[T]) Publish(v T) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for id, ch := range h.subs {
		select {
		case ch <- v:
			delivered++
		default:
			h.log.Warn().Int("subscriber", id).Msg("subscriber buffer full, dropping event")
		}
	}
	return delivered
}

// Subscribers reports how many listeners are registered.
func (h *Hub[T]) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close unsubscribes everyone. Later Subscribe calls get a closed channel.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
