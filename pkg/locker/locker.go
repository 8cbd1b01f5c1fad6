// Package locker provides distributed locks so that only one service
// instance runs a periodic job at a time.
package locker

import (
	"context"
	"time"
)

// DistributedLocker acquires and releases named locks shared by every
// instance. Implementations must be safe for concurrent use.
type DistributedLocker interface {
	// Acquire tries once to take the lock. It returns false, and no error,
	// when another holder has it. The lock expires after ttl.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release gives up a lock this instance holds. Releasing a lock it does
	// not hold is a no-op.
	Release(ctx context.Context, key string) error
}

// Outcome tells Cooldown what to do with the lock once the job returns.
type Outcome int

const (
	// KeepUntilExpiry leaves the lock in place so no instance reruns the job
	// before the ttl runs out.
	KeepUntilExpiry Outcome = iota
	// ReleaseNow frees the lock so the next tick, on any instance, retries.
	ReleaseNow
)

// Cooldown runs job under key when the lock can be taken and reports whether
// it ran. The lock ttl doubles as the minimum gap between two runs.
func Cooldown(ctx context.Context, l DistributedLocker, key string, ttl time.Duration, job func() Outcome) (bool, error) {
	acquired, err := l.Acquire(ctx, key, ttl)
	if err != nil || !acquired {
		return false, err
	}

	if job() == ReleaseNow {
		if err := l.Release(ctx, key); err != nil {
			return true, err
		}
	}

	return true, nil
}
