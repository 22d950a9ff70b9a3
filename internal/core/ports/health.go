package ports

import "context"

// HealthChecker checks external dependency health.
type HealthChecker interface {
	// Ping verifies connectivity. Returns nil if healthy.
	Ping(ctx context.Context) error
	// Name returns the dependency name (e.g., "aleph", "redis", "chain").
	Name() string
}

// PingFunc adapts a bare connectivity probe to HealthChecker.
type PingFunc struct {
	Dependency string
	Probe      func(ctx context.Context) error
}

func (p PingFunc) Ping(ctx context.Context) error { return p.Probe(ctx) }

func (p PingFunc) Name() string { return p.Dependency }
