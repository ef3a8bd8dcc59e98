package session

import (
	"context"
	"errors"
	"time"
)

// ErrLockLost is returned by Lock.Extend when the lock expired or was taken over.
var ErrLockLost = errors.New("board lock lost")

// Locker hands out exclusive, expiring per-key locks.
type Locker interface {
	// Acquire takes the lock for key. It returns ErrRunInProgress when
	// another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Lock is a held lock.
type Lock interface {
	// Extend pushes the expiry to ttl from now. It fails with ErrLockLost
	// once the lock is no longer ours.
	Extend(ctx context.Context, ttl time.Duration) error

	// Release gives the lock up. Releasing twice, or after expiry, is a no-op.
	Release(ctx context.Context) error
}

type funcLock struct {
	extend  func(ctx context.Context, ttl time.Duration) error
	release func(ctx context.Context) error
}

func (l funcLock) Extend(ctx context.Context, ttl time.Duration) error { return l.extend(ctx, ttl) }
func (l funcLock) Release(ctx context.Context) error                   { return l.release(ctx) }

// NewLock adapts extend and release functions to Lock, for Locker
// implementations outside this package.
func NewLock(extend func(ctx context.Context, ttl time.Duration) error, release func(ctx context.Context) error) Lock {
	return funcLock{extend: extend, release: release}
}
