// Package bus implements a bounded broadcast channel: every subscriber
// potentially sees every published value, publishing never blocks, and a
// subscriber that falls behind its buffer loses its oldest values rather
// than stalling the publisher or its peers. The same primitive backs both
// the per-workspace reload bus and the global remote-command bus.
package bus

import "sync"

// DefaultCapacity is the per-subscriber buffer size used by the server.
const DefaultCapacity = 16

// Bus is a bounded multi-producer, multi-consumer broadcast channel.
type Bus[T any] struct {
	mu       sync.Mutex
	subs     map[uint64]chan T
	nextID   uint64
	capacity int
	closed   bool
}

// New creates a broadcast bus with the given per-subscriber capacity.
func New[T any](capacity int) *Bus[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus[T]{
		subs:     make(map[uint64]chan T),
		capacity: capacity,
	}
}

// Subscribe registers a new subscriber and returns its receive channel
// together with a cancel function. Cancel is idempotent and closes the
// channel, so a ranging consumer terminates. Subscribing to a closed bus
// returns an already-closed channel.
func (b *Bus[T]) Subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, b.capacity)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers v to every current subscriber. A subscriber whose buffer
// is full has its oldest pending value evicted first. Publishing to a
// closed bus is a no-op.
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			// Buffer full: evict the oldest entry, then retry. The
			// consumer may drain concurrently, so both selects stay
			// non-blocking.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// Close terminates the bus. All subscriber channels are closed and later
// publishes are dropped.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
