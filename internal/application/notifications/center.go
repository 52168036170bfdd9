package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aescanero/skillstream/pkg/domain"
	"github.com/aescanero/skillstream/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTTL    = 5 * time.Second
	defaultBuffer = 64

	reasonDismissed = "dismissed"
	reasonExpired   = "expired"
)

// Config holds notification center configuration
type Config struct {
	TTL      time.Duration
	Buffer   int
	EventBus ports.EventBus
	Metrics  ports.MetricsCollector
	Logger   *zap.Logger
}

// Center keeps the visible notifications and fans out their lifecycle events
type Center struct {
	ttl     time.Duration
	bus     ports.EventBus
	metrics ports.MetricsCollector
	logger  *zap.Logger

	mu      sync.RWMutex
	items   map[string]*entry
	nextSeq uint64

	outbox chan ports.Event
}

type entry struct {
	seq          uint64
	notification domain.Notification
	timer        *time.Timer
}

// NewCenter creates a new notification center
func NewCenter(cfg *Config) *Center {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Center{
		ttl:     cfg.TTL,
		bus:     cfg.EventBus,
		metrics: cfg.Metrics,
		logger:  logger,
		items:   make(map[string]*entry),
		outbox:  make(chan ports.Event, buffer),
	}
}

// Notify shows a notification. It never blocks.
func (c *Center) Notify(message string, kind domain.NotificationKind) {
	if !kind.Valid() {
		kind = domain.NotificationInfo
	}

	n := domain.Notification{
		ID:        uuid.New().String(),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.nextSeq++
	e := &entry{seq: c.nextSeq, notification: n}
	c.items[n.ID] = e
	if c.ttl > 0 {
		id := n.ID
		e.timer = time.AfterFunc(c.ttl, func() {
			c.remove(id, reasonExpired)
		})
	}
	c.mu.Unlock()

	c.log(n)
	if c.metrics != nil {
		c.metrics.IncNotifications(string(kind))
	}

	c.publish(ports.EventTypeNotificationShown, map[string]interface{}{
		"id":         n.ID,
		"message":    n.Message,
		"kind":       string(n.Kind),
		"created_at": n.CreatedAt,
	})
}

// Dismiss removes a notification on user request
func (c *Center) Dismiss(id string) bool {
	return c.remove(id, reasonDismissed)
}

// List returns the visible notifications, oldest first
func (c *Center) List() []domain.Notification {
	c.mu.RLock()
	entries := make([]*entry, 0, len(c.items))
	for _, e := range c.items {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	out := make([]domain.Notification, len(entries))
	for i, e := range entries {
		out[i] = e.notification
	}
	return out
}

// Run publishes queued lifecycle events until ctx is cancelled
func (c *Center) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-c.outbox:
			if c.bus == nil {
				continue
			}
			if err := c.bus.Publish(ctx, ports.TopicNotifications, event); err != nil {
				c.logger.Error("failed to publish notification event",
					zap.String("event_id", event.ID),
					zap.String("type", string(event.Type)),
					zap.Error(err))
			}
		}
	}
}

func (c *Center) remove(id, reason string) bool {
	c.mu.Lock()
	e, ok := c.items[id]
	if ok {
		delete(c.items, id)
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	c.mu.Unlock()

	if !ok {
		return false
	}

	c.logger.Debug("notification removed",
		zap.String("id", id),
		zap.String("reason", reason))

	c.publish(ports.EventTypeNotificationDismissed, map[string]interface{}{
		"id":     id,
		"reason": reason,
	})
	return true
}

// publish queues an event for Run; a full outbox drops it
func (c *Center) publish(eventType ports.EventType, data map[string]interface{}) {
	event := ports.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	select {
	case c.outbox <- event:
	default:
		c.logger.Warn("notification outbox full, dropping event",
			zap.String("event_id", event.ID),
			zap.String("type", string(eventType)))
	}
}

func (c *Center) log(n domain.Notification) {
	fields := []zap.Field{
		zap.String("id", n.ID),
		zap.String("kind", string(n.Kind)),
		zap.String("message", n.Message),
	}

	switch n.Kind {
	case domain.NotificationError:
		c.logger.Error("notification", fields...)
	case domain.NotificationWarning:
		c.logger.Warn("notification", fields...)
	default:
		c.logger.Info("notification", fields...)
	}
}
