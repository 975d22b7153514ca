package fanout

import (
	"context"
	"sync"
)

// growThresholdPct is the fill level (percent of capacity) that triggers a resize.
const growThresholdPct = 70

// GrowableBuffer is a thread-safe FIFO ring buffer that doubles its capacity
// when it reaches 70% full. Send never blocks.
type GrowableBuffer[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	head   int // next read slot
	tail   int // next write slot
	count  int
	closed bool

	sent     int64
	received int64
	resizes  int
}

// BufferStats is a point-in-time view of a buffer.
type BufferStats struct {
	Count         int
	Capacity      int
	TotalSent     int64 // items accepted by Send
	TotalReceived int64 // items handed to consumers
	ResizeCount   int
}

// NewGrowableBuffer creates a buffer with the given initial capacity.
func NewGrowableBuffer[T any](initialCapacity int) *GrowableBuffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	b := &GrowableBuffer[T]{
		items: make([]T, initialCapacity),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Send appends an item. Returns false if the buffer is closed.
func (b *GrowableBuffer[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	threshold := len(b.items) * growThresholdPct / 100
	if threshold < 1 {
		threshold = 1
	}
	if b.count+1 >= threshold {
		b.grow()
	}

	b.items[b.tail] = item
	b.tail = (b.tail + 1) % len(b.items)
	b.count++
	b.sent++

	b.cond.Signal()
	return true
}

// Receive blocks until an item is available or the buffer is closed and drained.
func (b *GrowableBuffer[T]) Receive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 && !b.closed {
		b.cond.Wait()
	}
	return b.pop()
}

// ReceiveContext is Receive with cancellation. It returns false when ctx is
// done or the buffer is closed and drained.
func (b *GrowableBuffer[T]) ReceiveContext(ctx context.Context) (T, bool) {
	stop := context.AfterFunc(ctx, func() {
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
	})
	defer stop()

	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 && !b.closed && ctx.Err() == nil {
		b.cond.Wait()
	}
	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.pop()
}

// TryReceive returns the oldest item without blocking.
func (b *GrowableBuffer[T]) TryReceive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pop()
}

// DrainTo removes up to max items (all when max <= 0) in FIFO order.
func (b *GrowableBuffer[T]) DrainTo(max int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}

	n := b.count
	if max > 0 && max < n {
		n = max
	}

	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		item, _ := b.pop()
		out = append(out, item)
	}
	return out
}

// Close stops accepting items. Consumers still drain what is buffered.
func (b *GrowableBuffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.cond.Broadcast()
}

// Closed reports whether Close has been called.
func (b *GrowableBuffer[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Len returns the number of buffered items.
func (b *GrowableBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the current capacity.
func (b *GrowableBuffer[T]) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Stats returns buffer statistics.
func (b *GrowableBuffer[T]) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		Count:         b.count,
		Capacity:      len(b.items),
		TotalSent:     b.sent,
		TotalReceived: b.received,
		ResizeCount:   b.resizes,
	}
}

// pop removes the head item. Must be called with lock held.
func (b *GrowableBuffer[T]) pop() (T, bool) {
	var zero T
	if b.count == 0 {
		return zero, false
	}

	item := b.items[b.head]
	b.items[b.head] = zero
	b.head = (b.head + 1) % len(b.items)
	b.count--
	b.received++
	return item, true
}

// grow doubles capacity and unwraps the ring. Must be called with lock held.
func (b *GrowableBuffer[T]) grow() {
	next := make([]T, len(b.items)*2)

	if b.count > 0 {
		if b.head < b.tail {
			copy(next, b.items[b.head:b.tail])
		} else {
			n := copy(next, b.items[b.head:])
			copy(next[n:], b.items[:b.tail])
		}
	}

	b.items = next
	b.head = 0
	b.tail = b.count
	b.resizes++
}
