package service

import (
	"context"

	"bedrock-relay/internal/core/domain"
	"bedrock-relay/internal/core/ports"
	"bedrock-relay/pkg/apperror"

	"github.com/rs/zerolog"
)

// creditService implements ports.CreditService.
type creditService struct {
	ledger ports.LedgerService
	log    zerolog.Logger
}

// NewCreditService creates a new credit service.
func NewCreditService(ledger ports.LedgerService, log zerolog.Logger) ports.CreditService {
	return &creditService{ledger: ledger, log: log}
}

// GetCredits returns the balance of address in checksummed form.
// A malformed address is reported as a 500 for client compatibility.
func (s *creditService) GetCredits(ctx context.Context, address string) (*domain.CreditBalance, error) {
	checksummed, err := domain.ChecksumAddress(address)
	if err != nil {
		return nil, apperror.ErrGettingCredits(err)
	}
	return &domain.CreditBalance{
		Address: checksummed,
		Balance: s.ledger.GetBalance(ctx, checksummed),
	}, nil
}

// AddCreditsDirect adjusts a balance outside the webhook path and re-reads it.
// Callers are expected to have been authorized as admin.
func (s *creditService) AddCreditsDirect(ctx context.Context, address string, amount float64) (*domain.CreditAdjustment, error) {
	checksummed, err := domain.ChecksumAddress(address)
	if err != nil {
		return nil, apperror.ErrAddingCredits(err)
	}

	if err := s.ledger.AddBalance(ctx, checksummed, amount); err != nil {
		return nil, apperror.ErrAddingCredits(err)
	}

	s.log.Info().Str("address", checksummed).Float64("amount", amount).Msg("credits: administrative adjustment")

	return &domain.CreditAdjustment{
		Address:     checksummed,
		AmountAdded: amount,
		NewBalance:  s.ledger.GetBalance(ctx, checksummed),
	}, nil
}
