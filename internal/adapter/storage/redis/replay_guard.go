package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ReplayGuard implements ports.ReplayGuard using Redis SET NX.
type ReplayGuard struct {
	client *goredis.Client
	prefix string
}

// NewReplayGuard creates a new Redis-backed replay guard.
func NewReplayGuard(client *goredis.Client) *ReplayGuard {
	return &ReplayGuard{
		client: client,
		prefix: "webhook:seen:",
	}
}

// Claim records id if it is new. Returns false if id was already claimed
// and has not expired.
func (g *ReplayGuard) Claim(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	result, err := g.client.SetArgs(ctx, g.prefix+id, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis replay claim: %w", err)
	}
	return result == "OK", nil
}

// Release deletes the claim on id.
func (g *ReplayGuard) Release(ctx context.Context, id string) error {
	if err := g.client.Del(ctx, g.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis replay release: %w", err)
	}
	return nil
}
