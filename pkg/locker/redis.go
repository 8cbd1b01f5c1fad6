package locker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLocker implements DistributedLocker with redsync (Redlock).
type RedisLocker struct {
	rs     *redsync.Redsync
	prefix string
	logger *zap.Logger

	mu      sync.Mutex
	mutexes map[string]*redsync.Mutex
}

var _ DistributedLocker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker whose keys are stored under prefix.
func NewRedisLocker(client redis.UniversalClient, prefix string, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		rs:      redsync.New(goredis.NewPool(client)),
		prefix:  prefix,
		logger:  logger,
		mutexes: make(map[string]*redsync.Mutex),
	}
}

func (r *RedisLocker) name(key string) string {
	if r.prefix == "" {
		return key
	}

	return r.prefix + ":lock:" + key
}

// Acquire takes the lock with a single non-blocking attempt.
func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	mutex := r.rs.NewMutex(
		r.name(key),
		redsync.WithExpiry(ttl),
		redsync.WithTries(1),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if isTaken(err) {
			r.logger.Debug("lock held elsewhere", zap.String("key", key))
			return false, nil
		}

		return false, fmt.Errorf("acquiring lock %s: %w", key, err)
	}

	r.mu.Lock()
	r.mutexes[key] = mutex
	r.mu.Unlock()

	r.logger.Debug("lock acquired",
		zap.String("key", key),
		zap.Duration("ttl", ttl),
	)

	return true, nil
}

// Release unlocks key if this instance took it. redsync checks the lock
// token, so an expired lock that someone else re-took is left alone.
func (r *RedisLocker) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	mutex, ok := r.mutexes[key]
	delete(r.mutexes, key)
	r.mu.Unlock()

	if !ok {
		return nil
	}

	released, err := mutex.UnlockContext(ctx)
	if err != nil && !isTaken(err) {
		return fmt.Errorf("releasing lock %s: %w", key, err)
	}

	r.logger.Debug("lock released",
		zap.String("key", key),
		zap.Bool("owned", released),
	)

	return nil
}

// isTaken reports whether err means another holder owns the lock. redsync
// reports contention either as ErrFailed or as an ErrTaken listing nodes.
func isTaken(err error) bool {
	return errors.Is(err, redsync.ErrFailed) || strings.Contains(err.Error(), "lock already taken")
}
