package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aescanero/skillstream/pkg/adapters/events/memory"
	"github.com/aescanero/skillstream/pkg/domain"
	"github.com/aescanero/skillstream/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []ports.Event
}

func (r *eventRecorder) handle(ctx context.Context, event ports.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) snapshot() []ports.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.Event(nil), r.events...)
}

func TestCenter_ListOldestFirst(t *testing.T) {
	center := NewCenter(&Config{})

	center.Notify("first", domain.NotificationInfo)
	center.Notify("second", domain.NotificationSuccess)
	center.Notify("third", domain.NotificationWarning)

	list := center.List()
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Message)
	assert.Equal(t, "second", list[1].Message)
	assert.Equal(t, "third", list[2].Message)
	assert.Equal(t, domain.NotificationWarning, list[2].Kind)
	assert.NotEmpty(t, list[0].ID)
}

func TestCenter_InvalidKindIsInfo(t *testing.T) {
	center := NewCenter(&Config{})

	center.Notify("odd", domain.NotificationKind("loud"))

	list := center.List()
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationInfo, list[0].Kind)
}

func TestCenter_Dismiss(t *testing.T) {
	center := NewCenter(&Config{TTL: time.Minute})

	center.Notify("hello", domain.NotificationInfo)
	id := center.List()[0].ID

	assert.True(t, center.Dismiss(id))
	assert.False(t, center.Dismiss(id))
	assert.False(t, center.Dismiss("missing"))
	assert.Empty(t, center.List())
}

func TestCenter_Expiry(t *testing.T) {
	center := NewCenter(&Config{TTL: 20 * time.Millisecond})

	center.Notify("short lived", domain.NotificationInfo)
	require.Len(t, center.List(), 1)

	assert.Eventually(t, func() bool {
		return len(center.List()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestCenter_RunPublishesInOrder(t *testing.T) {
	bus := memory.NewInMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	rec := &eventRecorder{}
	require.NoError(t, bus.Subscribe(ctx, ports.TopicNotifications, rec.handle))

	center := NewCenter(&Config{TTL: time.Minute, EventBus: bus})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		center.Run(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	center.Notify("one", domain.NotificationInfo)
	center.Notify("two", domain.NotificationError)
	center.Dismiss(center.List()[0].ID)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 3
	}, time.Second, 5*time.Millisecond)

	events := rec.snapshot()
	assert.Equal(t, ports.EventTypeNotificationShown, events[0].Type)
	assert.Equal(t, "one", events[0].Data["message"])
	assert.Equal(t, ports.EventTypeNotificationShown, events[1].Type)
	assert.Equal(t, "error", events[1].Data["kind"])
	assert.Equal(t, ports.EventTypeNotificationDismissed, events[2].Type)
	assert.Equal(t, "dismissed", events[2].Data["reason"])
}

func TestCenter_FullOutboxDoesNotBlock(t *testing.T) {
	center := NewCenter(&Config{Buffer: 1})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			center.Notify("burst", domain.NotificationInfo)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full outbox")
	}
	assert.Len(t, center.List(), 10)
}
