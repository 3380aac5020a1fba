package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultCapacity = 64

// subscription pairs a delivery channel with an optional event-type
// filter. A nil filter receives every event.
type subscription[T any] struct {
	ch     chan Event[T]
	filter map[EventType]struct{}
}

func (s *subscription[T]) wants(t EventType) bool {
	if s.filter == nil {
		return true
	}
	_, ok := s.filter[t]
	return ok
}

// Broker fans published events out to any number of subscribers.
// Delivery is best-effort: a subscriber that stops draining its channel
// loses events instead of stalling publishers.
type Broker[T any] struct {
	mu       sync.RWMutex
	subs     map[*subscription[T]]struct{}
	closed   bool
	capacity int
}

// NewBroker creates a broker with the default per-subscriber capacity.
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultCapacity)
}

// NewBrokerWithBuffer creates a broker whose subscriber channels hold up
// to size undelivered events.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:     make(map[*subscription[T]]struct{}),
		capacity: size,
	}
}

// Subscribe registers a subscriber and returns its channel. When types
// are given, only events of those types are delivered. The subscription
// ends when ctx is cancelled; the channel is closed then, or when the
// broker itself closes. Subscribing to a closed broker yields a channel
// that is already closed.
func (b *Broker[T]) Subscribe(ctx context.Context, types ...EventType) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	sub := &subscription[T]{ch: make(chan Event[T], b.capacity)}
	if len(types) > 0 {
		sub.filter = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			sub.filter[t] = struct{}{}
		}
	}
	b.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed {
			return // Close already closed the channel
		}
		delete(b.subs, sub)
		close(sub.ch)
	}()

	return sub.ch
}

// Publish delivers an event to every subscriber whose filter accepts it.
// Publishing never blocks; a full subscriber drops the event.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for sub := range b.subs {
		if !sub.wants(eventType) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Subscriber is not draining; drop rather than stall.
		}
	}
}

// Close shuts the broker down and closes every subscriber channel.
// Publishing or closing again afterwards is a safe no-op.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
