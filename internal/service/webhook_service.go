package service

import (
	"context"
	"fmt"
	"time"

	"bedrock-relay/internal/core/domain"
	"bedrock-relay/internal/core/ports"
	"bedrock-relay/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var centsPerDollar = decimal.NewFromInt(100)

// WebhookSettings holds the provider secret and the address payments must target.
type WebhookSettings struct {
	Secret           string
	ProcessorAddress string
	// ReplayTTL is how long a processed signature is remembered. It should
	// cover the verifier's whole freshness window.
	ReplayTTL time.Duration
}

// webhookService implements ports.WebhookService.
type webhookService struct {
	verifier ports.SignatureVerifier
	ledger   ports.LedgerService
	guard    ports.ReplayGuard
	settings WebhookSettings
	log      zerolog.Logger
}

// NewWebhookService creates a new webhook processor.
// guard may be nil, in which case identical redeliveries are credited again.
func NewWebhookService(
	verifier ports.SignatureVerifier,
	ledger ports.LedgerService,
	guard ports.ReplayGuard,
	settings WebhookSettings,
	log zerolog.Logger,
) ports.WebhookService {
	if settings.ReplayTTL <= 0 {
		settings.ReplayTTL = DefaultWebhookMaxAge + DefaultWebhookMaxSkew
	}
	return &webhookService{
		verifier: verifier,
		ledger:   ledger,
		guard:    guard,
		settings: settings,
		log:      log,
	}
}

// Process authenticates one delivery and applies it to the ledger.
func (s *webhookService) Process(ctx context.Context, in ports.WebhookInput) (*domain.WebhookResult, error) {
	if err := s.verifier.Verify([]byte(s.settings.Secret), in.Timestamp, in.RawBody, in.Signature); err != nil {
		s.log.Warn().Err(err).Msg("webhook: verification failed")
		return nil, err
	}

	if s.guard != nil {
		fresh, err := s.guard.Claim(ctx, in.Signature, s.settings.ReplayTTL)
		if err != nil {
			// Redis being down must not block payments.
			s.log.Warn().Err(err).Msg("webhook: replay guard unavailable, processing anyway")
		} else if !fresh {
			s.log.Info().Str("timestamp", in.Timestamp).Msg("webhook: duplicate delivery ignored")
			return domain.Ignored(domain.ReasonDuplicate), nil
		}
	}

	result, err := s.handle(ctx, in.RawBody)
	if err != nil && s.guard != nil {
		if relErr := s.guard.Release(ctx, in.Signature); relErr != nil {
			s.log.Warn().Err(relErr).Msg("webhook: failed to release replay claim")
		}
	}
	return result, err
}

func (s *webhookService) handle(ctx context.Context, rawBody []byte) (*domain.WebhookResult, error) {
	event, err := domain.ParseBuyWithCryptoStatus(rawBody)
	if err != nil {
		return nil, apperror.ErrInvalidWebhookPayload(err)
	}
	if event == nil {
		return nil, apperror.ErrUnsupportedWebhook()
	}

	if event.Destination == nil {
		s.log.Debug().Str("tx", event.Source.TransactionHash).Msg("webhook: no destination yet")
		return domain.Ignored(domain.ReasonNoDestination), nil
	}

	if !domain.SameAddress(event.ToAddress, s.settings.ProcessorAddress) {
		s.log.Debug().Str("to", event.ToAddress).Msg("webhook: not addressed to payment processor")
		return domain.Ignored(domain.ReasonWrongDestination), nil
	}

	sender, err := domain.ChecksumAddress(event.PurchaseData.UserAddress)
	if err != nil {
		return nil, apperror.ErrWebhookProcessing(err)
	}

	amount, _ := decimal.NewFromInt(event.Destination.AmountUSDCents).Div(centsPerDollar).Float64()
	result := &domain.WebhookResult{
		TransactionHash: event.Source.TransactionHash,
		Address:         sender,
		Amount:          &amount,
	}

	if event.Status != domain.PaymentStatusCompleted {
		result.Status = domain.WebhookOutcomePending
		s.log.Info().Str("tx", result.TransactionHash).Str("address", sender).Float64("amount", amount).Msg("webhook: payment pending")
		return result, nil
	}

	if err := s.ledger.AddBalance(ctx, sender, amount); err != nil {
		return nil, apperror.ErrWebhookProcessing(fmt.Errorf("updating credit balance: %w", err))
	}

	result.Status = domain.WebhookOutcomeSuccess
	s.log.Info().Str("tx", result.TransactionHash).Str("address", sender).Float64("amount", amount).Msg("webhook: credits added")
	return result, nil
}
