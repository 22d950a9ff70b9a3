package ports

import (
	"context"
	"errors"
	"time"

	"bedrock-relay/internal/core/domain"
)

// ErrAggregateNotFound is returned when no document exists under a key.
var ErrAggregateNotFound = errors.New("aggregate not found")

// AggregateStore is a remote key/value store of whole JSON documents.
// There is no partial update and no compare-and-swap.
type AggregateStore interface {
	// FetchAggregate returns the document stored under key, or ErrAggregateNotFound.
	FetchAggregate(ctx context.Context, key string) (map[string]interface{}, error)
	// CreateAggregate replaces the document stored under key.
	CreateAggregate(ctx context.Context, key string, content map[string]interface{}) error
}

// LedgerLocker serializes read-modify-write cycles on one ledger document.
type LedgerLocker interface {
	// Acquire blocks until the lock on key is held or ctx is done.
	// The returned func releases the lock.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ReplayGuard remembers signed webhook deliveries that were already processed.
type ReplayGuard interface {
	// Claim returns true if id has not been seen within ttl, and records it.
	Claim(ctx context.Context, id string, ttl time.Duration) (bool, error)
	// Release forgets id so the sender's retry is processed.
	Release(ctx context.Context, id string) error
}

// RateLimitStore counts requests per key in fixed windows.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// AuditRepository persists audit rows.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}
