package redis

import (
	"context"
	"fmt"
	"time"

	"bedrock-relay/config"
	"bedrock-relay/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Client timeouts. Every caller in this package tolerates a timeout.
const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 2 * time.Second
)

// NewClient connects to Redis and pings it once.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr(), err)
	}

	log.Debug().Str("addr", cfg.Addr()).Int("db", cfg.DB).Msg("redis: ping ok")
	return client, nil
}

// HealthCheck reports Redis reachability on /health.
func HealthCheck(client *goredis.Client) ports.HealthChecker {
	return ports.PingFunc{
		Dependency: "redis",
		Probe:      func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}
}
