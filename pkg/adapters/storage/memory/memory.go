package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aescanero/skillstream/pkg/domain"
)

// UploadsStore keeps the recent uploads list in memory
type UploadsStore struct {
	uploads []domain.Upload
	savedAt time.Time
	ttl     time.Duration
	mu      sync.RWMutex
}

// NewUploadsStore creates a new in-memory uploads store. A zero ttl keeps
// entries until they are replaced.
func NewUploadsStore(ttl time.Duration) *UploadsStore {
	return &UploadsStore{ttl: ttl}
}

// SaveRecent replaces the cached list
func (s *UploadsStore) SaveRecent(ctx context.Context, uploads []domain.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to avoid aliasing the caller's slice
	s.uploads = append([]domain.Upload(nil), uploads...)
	s.savedAt = time.Now()
	return nil
}

// LoadRecent returns the cached list, or nil once it has expired
func (s *UploadsStore) LoadRecent(ctx context.Context) ([]domain.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.uploads == nil {
		return nil, nil
	}
	if s.ttl > 0 && time.Since(s.savedAt) > s.ttl {
		return nil, nil
	}

	return append([]domain.Upload(nil), s.uploads...), nil
}
