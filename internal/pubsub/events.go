// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// ResolvedEvent signals that a soft path was resolved to a live object.
	ResolvedEvent EventType = "resolved"
	// FailedEvent signals that a soft path could not be resolved.
	FailedEvent EventType = "failed"
	// ReleasedEvent signals that the registry released its hold on a path.
	ReleasedEvent EventType = "released"
	// FlushedEvent signals that the resident cache was flushed.
	FlushedEvent EventType = "flushed"
	// LoggedEvent signals that a log entry was written.
	LoggedEvent EventType = "logged"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
