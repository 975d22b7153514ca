package fanout

import (
	"sync"

	"github.com/google/uuid"
)

// Subscriber is one consumer registered with a Hub.
type Subscriber[T any] struct {
	ID     uuid.UUID
	Buffer *GrowableBuffer[T]
}

// Hub copies each published item to every subscriber buffer.
type Hub[T any] struct {
	mu         sync.RWMutex
	subs       map[uuid.UUID]*Subscriber[T]
	bufferSize int
	closed     bool
	published  int64
}

// NewHub creates a hub whose subscriber buffers start at bufferSize.
func NewHub[T any](bufferSize int) *Hub[T] {
	return &Hub[T]{
		subs:       make(map[uuid.UUID]*Subscriber[T]),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a new consumer. Items published before the call are
// not replayed. On a closed hub the returned buffer is already closed.
func (h *Hub[T]) Subscribe() *Subscriber[T] {
	sub := &Subscriber[T]{
		ID:     uuid.New(),
		Buffer: NewGrowableBuffer[T](h.bufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.Buffer.Close()
		return sub
	}
	h.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes a consumer and closes its buffer.
func (h *Hub[T]) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()

	if ok {
		sub.Buffer.Close()
	}
}

// Publish delivers item to every current subscriber. Returns the number of
// subscribers that received it.
func (h *Hub[T]) Publish(item T) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0
	}
	h.published++

	n := 0
	for _, sub := range h.subs {
		if sub.Buffer.Send(item) {
			n++
		}
	}
	return n
}

// Close closes every subscriber buffer. Later publishes are ignored.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		sub.Buffer.Close()
		delete(h.subs, id)
	}
}

// Len returns the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Published returns how many items have been published.
func (h *Hub[T]) Published() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.published
}
