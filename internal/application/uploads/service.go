// Package uploads keeps the "recent uploads" view in sync with the backend.
package uploads

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aescanero/skillstream/pkg/domain"
	"github.com/aescanero/skillstream/pkg/ports"
	"go.uber.org/zap"
)

const defaultLimit = 10

// Lister fetches the full resume listing
type Lister interface {
	ListResumes(ctx context.Context) ([]domain.Upload, error)
}

// Config holds uploads service configuration
type Config struct {
	Limit   int
	Lister  Lister
	Store   ports.UploadsStore
	Metrics ports.MetricsCollector
	Logger  *zap.Logger
}

// Service refreshes and serves the recent uploads list
type Service struct {
	limit   int
	lister  Lister
	store   ports.UploadsStore
	metrics ports.MetricsCollector
	logger  *zap.Logger

	trigger chan struct{}
}

// NewService creates a new uploads service
func NewService(cfg *Config) *Service {
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		limit:   limit,
		lister:  cfg.Lister,
		store:   cfg.Store,
		metrics: cfg.Metrics,
		logger:  logger,
		trigger: make(chan struct{}, 1),
	}
}

// LoadRecentUploads requests a refresh without waiting for it. Requests made
// while one is already pending are merged into it.
func (s *Service) LoadRecentUploads() {
	select {
	case s.trigger <- struct{}{}:
	default:
		s.logger.Debug("uploads refresh already pending")
	}
}

// Run performs requested refreshes until ctx is cancelled
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
			if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("failed to refresh recent uploads", zap.Error(err))
			}
		}
	}
}

// Refresh fetches the listing, keeps the newest entries and stores them
func (s *Service) Refresh(ctx context.Context) ([]domain.Upload, error) {
	start := time.Now()

	all, err := s.lister.ListResumes(ctx)
	if err != nil {
		s.record("failure", start)
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}

	recent := newest(all, s.limit)
	if err := s.store.SaveRecent(ctx, recent); err != nil {
		s.record("failure", start)
		return nil, fmt.Errorf("failed to save recent uploads: %w", err)
	}

	s.record("success", start)
	s.logger.Info("recent uploads refreshed",
		zap.Int("total", len(all)),
		zap.Int("kept", len(recent)),
		zap.Duration("duration", time.Since(start)))

	return recent, nil
}

// Recent returns the last stored list
func (s *Service) Recent(ctx context.Context) ([]domain.Upload, error) {
	uploads, err := s.store.LoadRecent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent uploads: %w", err)
	}
	if uploads == nil {
		uploads = []domain.Upload{}
	}
	return uploads, nil
}

func (s *Service) record(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordUploadsRefresh(status, time.Since(start))
	}
}

// newest orders by id descending and truncates to limit
func newest(all []domain.Upload, limit int) []domain.Upload {
	sorted := append([]domain.Upload(nil), all...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID > sorted[j].ID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
