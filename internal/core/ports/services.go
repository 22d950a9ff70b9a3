package ports

import (
	"context"
	"time"

	"bedrock-relay/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
)

// SignatureVerifier authenticates inbound webhook deliveries.
type SignatureVerifier interface {
	Verify(secret []byte, timestamp string, rawBody []byte, signature string) error
	Sign(secret []byte, timestamp string, rawBody []byte) string
}

// LedgerService reads and adjusts credit balances.
type LedgerService interface {
	// GetBalance never fails; fetch errors read as zero.
	GetBalance(ctx context.Context, address string) float64
	AddBalance(ctx context.Context, address string, delta float64) error
}

// WebhookInput is one inbound provider delivery.
type WebhookInput struct {
	Signature string
	Timestamp string
	RawBody   []byte
}

// WebhookService processes payment webhooks into ledger credits.
type WebhookService interface {
	Process(ctx context.Context, in WebhookInput) (*domain.WebhookResult, error)
}

// CreditService backs the credit query and admin endpoints.
type CreditService interface {
	GetCredits(ctx context.Context, address string) (*domain.CreditBalance, error)
	AddCreditsDirect(ctx context.Context, address string, amount float64) (*domain.CreditAdjustment, error)
}

// NameService registers and resolves subnames.
type NameService interface {
	Register(ctx context.Context, username, address string) (*domain.Registration, error)
	Username(ctx context.Context, address string) (*domain.UsernameRecord, error)
	Available(ctx context.Context, username string) (*domain.Availability, error)
	Resolve(ctx context.Context, username string) (*domain.Resolution, error)
	SetAvatar(ctx context.Context, username string, data []byte, contentType string) (*domain.AvatarUpdate, error)
	Avatar(ctx context.Context, username string) (*domain.AvatarRecord, error)
}

// NameRegistry is the on-chain registrar plus resolver.
type NameRegistry interface {
	Register(ctx context.Context, username string, owner common.Address) (txHash string, err error)
	GetUsername(ctx context.Context, owner common.Address) (string, error)
	Addr(ctx context.Context, fullName string) (common.Address, error)
	Text(ctx context.Context, fullName, key string) (string, error)
	SetText(ctx context.Context, fullName, key, value string) (txHash string, err error)
}

// ContentPinner stores bytes on IPFS and returns their content identifier.
type ContentPinner interface {
	Pin(ctx context.Context, name string, data []byte, contentType string) (cid string, err error)
}

// TokenService issues and validates administrative bearer tokens.
type TokenService interface {
	Generate(subject, role string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
	Role    string
}

// AuditService records audit entries (fire-and-forget).
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
