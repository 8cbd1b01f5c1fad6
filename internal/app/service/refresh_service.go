package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/domain"
)

// Resolver resolves URNs to external data.
type Resolver interface {
	Resolve(ctx context.Context, urns []string, forceRefresh bool) (map[string]*domain.ExternalData, error)
}

// RefreshResult summarizes one refresh pass.
type RefreshResult struct {
	Stale     int
	Refreshed int
	Duration  time.Duration
}

// RefreshService re-fetches external data that has not been written for a while.
type RefreshService struct {
	repo      domain.ExternalDataRepository
	resolver  Resolver
	maxAge    time.Duration
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
}

// NewRefreshService creates a new RefreshService.
func NewRefreshService(
	repo domain.ExternalDataRepository,
	resolver Resolver,
	maxAge time.Duration,
	batchSize int,
	logger *zap.Logger,
) *RefreshService {
	return &RefreshService{
		repo:      repo,
		resolver:  resolver,
		maxAge:    maxAge,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger,
	}
}

// RefreshStale force-resolves up to batchSize URNs whose rows are older
// than maxAge, oldest first. Rows the providers no longer return are kept
// but touched, so they do not hold the head of the queue on later passes.
func (s *RefreshService) RefreshStale(ctx context.Context) (RefreshResult, error) {
	start := time.Now()

	urns, err := s.repo.ListStale(ctx, s.now().UTC().Add(-s.maxAge), s.batchSize)
	if err != nil {
		return RefreshResult{}, err
	}

	result := RefreshResult{Stale: len(urns)}
	if len(urns) == 0 {
		s.logger.Debug("no stale external data")
		return result, nil
	}

	resolved, err := s.resolver.Resolve(ctx, urns, true)
	if err != nil {
		return result, err
	}

	if err := s.repo.Touch(ctx, urns); err != nil {
		return result, err
	}

	for _, data := range resolved {
		if data != nil {
			result.Refreshed++
		}
	}
	result.Duration = time.Since(start)

	s.logger.Info("stale external data refreshed",
		zap.Int("stale", result.Stale),
		zap.Int("refreshed", result.Refreshed),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}
