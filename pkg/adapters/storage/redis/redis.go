package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/skillstream/pkg/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const recentUploadsKey = "skillstream:uploads:recent"

// UploadsStore caches the recent uploads list in Redis
type UploadsStore struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewUploadsStore creates a new Redis uploads store
func NewUploadsStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *UploadsStore {
	return &UploadsStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// SaveRecent replaces the cached list
func (s *UploadsStore) SaveRecent(ctx context.Context, uploads []domain.Upload) error {
	data, err := json.Marshal(uploads)
	if err != nil {
		return fmt.Errorf("failed to marshal uploads: %w", err)
	}

	if err := s.client.Set(ctx, recentUploadsKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save uploads: %w", err)
	}

	s.logger.Debug("recent uploads cached",
		zap.Int("count", len(uploads)),
		zap.Duration("ttl", s.ttl))

	return nil
}

// LoadRecent returns the cached list, or nil when nothing is cached
func (s *UploadsStore) LoadRecent(ctx context.Context) ([]domain.Upload, error) {
	data, err := s.client.Get(ctx, recentUploadsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get uploads: %w", err)
	}

	var uploads []domain.Upload
	if err := json.Unmarshal(data, &uploads); err != nil {
		return nil, fmt.Errorf("failed to unmarshal uploads: %w", err)
	}

	return uploads, nil
}
