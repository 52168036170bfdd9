package ports

import (
	"context"
	"time"

	"github.com/aescanero/skillstream/pkg/domain"
)

// Notifier shows transient messages to the user. Calls never block.
type Notifier interface {
	Notify(message string, kind domain.NotificationKind)
}

// UploadsRefresher refreshes the recent uploads view. Calls never block.
type UploadsRefresher interface {
	LoadRecentUploads()
}

// UploadsStore caches the recent uploads list
type UploadsStore interface {
	SaveRecent(ctx context.Context, uploads []domain.Upload) error
	LoadRecent(ctx context.Context) ([]domain.Upload, error)
}

// MetricsCollector records stream client metrics
type MetricsCollector interface {
	SetStreamState(state string)
	SetReconnectAttempts(attempts int)
	RecordReconnectScheduled(delay time.Duration)
	IncTransportErrors(kind string)
	IncMessages(variant string)
	IncNotifications(kind string)
	RecordUploadsRefresh(status string, duration time.Duration)
}
