// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/app/service"
	"github.com/synzr/torobooru/pkg/locker"
)

const refreshLockKey = "refresh:scheduler"

// Refresher re-fetches stale external data.
type Refresher interface {
	RefreshStale(ctx context.Context) (service.RefreshResult, error)
}

// RefreshScheduler runs periodic external-data refreshes with distributed
// locking so only one instance refreshes per interval.
type RefreshScheduler struct {
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
	locker    locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// RefreshConfig holds refresh scheduler configuration.
type RefreshConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// NewRefreshScheduler creates a new RefreshScheduler.
func NewRefreshScheduler(
	refresher Refresher,
	cfg RefreshConfig,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *RefreshScheduler {
	return &RefreshScheduler{
		refresher: refresher,
		interval:  cfg.Interval,
		timeout:   cfg.Timeout,
		logger:    logger,
		locker:    locker,
	}
}

// Start begins the background refresh job.
func (s *RefreshScheduler) Start(runOnStartup bool) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting refresh scheduler",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(runOnStartup)
}

// Stop cancels a running refresh and waits for the loop to exit.
func (s *RefreshScheduler) Stop() {
	s.logger.Info("stopping refresh scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("refresh scheduler stopped")
}

func (s *RefreshScheduler) run(runOnStartup bool) {
	defer s.wg.Done()

	if runOnStartup {
		s.tick()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick refreshes under the lock. The lock ttl equals the interval: a
// successful pass keeps it as a cooldown, a failed one releases it for retry.
func (s *RefreshScheduler) tick() {
	ran, err := locker.Cooldown(s.ctx, s.locker, refreshLockKey, s.interval, func() locker.Outcome {
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()

		result, err := s.refresher.RefreshStale(ctx)
		if err != nil {
			s.logger.Warn("refresh failed, lock released for retry",
				zap.Int("stale", result.Stale),
				zap.Error(err),
			)
			return locker.ReleaseNow
		}

		s.logger.Info("refresh completed, lock held for cooldown",
			zap.Int("stale", result.Stale),
			zap.Int("refreshed", result.Refreshed),
			zap.Duration("cooldown", s.interval),
		)
		return locker.KeepUntilExpiry
	})

	switch {
	case err != nil:
		s.logger.Error("refresh lock failed", zap.Error(err))
	case !ran:
		s.logger.Debug("another instance is refreshing, skipping")
	}
}
