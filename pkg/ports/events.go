package ports

import (
	"context"
	"time"
)

// EventType identifies an event published on the bus
type EventType string

const (
	EventTypeNotificationShown     EventType = "notification.shown"
	EventTypeNotificationDismissed EventType = "notification.dismissed"
)

// TopicNotifications carries notification lifecycle events
const TopicNotifications = "notifications"

// Event is the envelope carried by an EventBus
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventHandler processes a single event
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes events to topics and delivers them to subscribers
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}
