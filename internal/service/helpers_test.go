package service

import (
	"context"
	"io"
	"sync"
	"time"

	"bedrock-relay/internal/core/ports"

	"github.com/rs/zerolog"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// memAggregateStore is an in-memory ports.AggregateStore. delay widens the
// window between a fetch and the following write.
type memAggregateStore struct {
	mu     sync.Mutex
	docs   map[string]map[string]interface{}
	delay  time.Duration
	writes int
}

func newMemAggregateStore() *memAggregateStore {
	return &memAggregateStore{docs: make(map[string]map[string]interface{})}
}

func (m *memAggregateStore) FetchAggregate(_ context.Context, key string) (map[string]interface{}, error) {
	m.mu.Lock()
	doc, ok := m.docs[key]
	var cp map[string]interface{}
	if ok {
		cp = make(map[string]interface{}, len(doc))
		for k, v := range doc {
			cp[k] = v
		}
	}
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if !ok {
		return nil, ports.ErrAggregateNotFound
	}
	return cp, nil
}

func (m *memAggregateStore) CreateAggregate(_ context.Context, key string, content map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]interface{}, len(content))
	for k, v := range content {
		cp[k] = v
	}
	m.docs[key] = cp
	m.writes++
	return nil
}

// noopLocker never blocks. It reproduces an unguarded read-modify-write.
type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func(), error) { return func() {}, nil }
