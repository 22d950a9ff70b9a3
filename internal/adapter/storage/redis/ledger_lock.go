package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when the lock could not be acquired within the wait budget.
var ErrLockTimeout = errors.New("ledger lock wait exceeded")

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LedgerLock implements ports.LedgerLocker as a Redis lease shared by all
// relay instances. A holder that dies loses the lease after ttl.
type LedgerLock struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewLedgerLock creates a lock with lease ttl that waits at most wait to acquire.
func NewLedgerLock(client *goredis.Client, ttl, wait time.Duration) *LedgerLock {
	return &LedgerLock{
		client: client,
		prefix: "lock:ledger:",
		ttl:    ttl,
		wait:   wait,
		poll:   25 * time.Millisecond,
	}
}

// Acquire implements ports.LedgerLocker.
func (l *LedgerLock) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock: %w", err)
		}
		if ok {
			return func() {
				// Detached from ctx so a cancelled request still releases.
				releaseScript.Run(context.Background(), l.client, []string{redisKey}, token)
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}
