package service

import (
	"context"
	"errors"
	"sync"

	"bedrock-relay/internal/core/domain"
	"bedrock-relay/internal/core/ports"
	"bedrock-relay/pkg/apperror"

	"github.com/rs/zerolog"
)

// ledgerService implements ports.LedgerService on top of a single aggregate document.
type ledgerService struct {
	store  ports.AggregateStore
	locker ports.LedgerLocker
	key    string
	log    zerolog.Logger
}

// NewLedgerService creates a ledger over the document stored under key.
// If locker is nil an in-process LocalLocker is used.
func NewLedgerService(store ports.AggregateStore, locker ports.LedgerLocker, key string, log zerolog.Logger) ports.LedgerService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if key == "" {
		key = domain.DefaultLedgerKey
	}
	return &ledgerService{store: store, locker: locker, key: key, log: log}
}

// GetBalance returns the balance for address. A missing document, a missing
// entry and a failed fetch all read as zero.
func (s *ledgerService) GetBalance(ctx context.Context, address string) float64 {
	content, err := s.fetch(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("ledger: fetch failed, reporting zero balance")
		return 0
	}
	balances, _ := domain.BalancesFromContent(content)
	return balances[address]
}

// AddBalance adds delta to address and writes the whole document back.
// The document lock is held across the read and the write so concurrent
// updates to any address are not lost.
func (s *ledgerService) AddBalance(ctx context.Context, address string, delta float64) error {
	release, err := s.locker.Acquire(ctx, s.key)
	if err != nil {
		return apperror.ErrLedgerLock(err)
	}
	defer release()

	content, err := s.fetch(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("ledger: fetch failed, starting from empty document")
		content = nil
	}
	if content == nil {
		content = make(map[string]interface{})
	}

	balances, skipped := domain.BalancesFromContent(content)
	if len(skipped) > 0 {
		s.log.Warn().Strs("keys", skipped).Msg("ledger: non-numeric entries left untouched")
	}

	newBalance := balances[address] + delta
	content[address] = newBalance

	if err := s.store.CreateAggregate(ctx, s.key, content); err != nil {
		s.log.Error().Err(err).Str("address", address).Float64("delta", delta).Msg("ledger: write failed")
		return apperror.ErrLedgerWrite(err)
	}

	s.log.Info().Str("address", address).Float64("delta", delta).Float64("balance", newBalance).Msg("ledger: balance updated")
	return nil
}

func (s *ledgerService) fetch(ctx context.Context) (map[string]interface{}, error) {
	content, err := s.store.FetchAggregate(ctx, s.key)
	if errors.Is(err, ports.ErrAggregateNotFound) {
		return map[string]interface{}{}, nil
	}
	return content, err
}

// LocalLocker is an in-process keyed mutex. It only serializes writers
// inside one relay instance.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

// Acquire implements ports.LedgerLocker.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
