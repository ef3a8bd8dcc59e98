package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/matzehuels/gridwalk/pkg/session"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// extendScript resets the lock's expiry only if it still holds our token.
var extendScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`)

// Locker implements session.Locker with SET NX PX. It never waits: a held
// lock fails immediately with session.ErrRunInProgress.
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker creates a Locker. An empty prefix uses DefaultPrefix.
func NewLocker(client *backend.Client, prefix string) *Locker {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Locker{client: client, prefix: prefix}
}

func (l *Locker) lockKey(key string) string {
	return l.prefix + "lock:" + key
}

// Acquire takes the lock for key.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (session.Lock, error) {
	lockKey := l.lockKey(key)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, session.ErrRunInProgress
	}
	extend := func(ctx context.Context, ttl time.Duration) error {
		n, err := extendScript.Run(ctx, l.client, []string{lockKey}, token, ttl.Milliseconds()).Int()
		if err != nil {
			return fmt.Errorf("extend lock %s: %w", key, err)
		}
		if n == 0 {
			return session.ErrLockLost
		}
		return nil
	}
	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err()
	}
	return session.NewLock(extend, release), nil
}

var _ session.Locker = (*Locker)(nil)
