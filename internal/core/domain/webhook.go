package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// BuyWithCryptoEvent is the only webhook sub-type the relay acts on.
const BuyWithCryptoEvent = "buyWithCryptoStatus"

// PaymentStatus is the settlement state reported by the payment provider.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusPending   PaymentStatus = "PENDING"
)

// WebhookOutcome is the "status" field of a processed webhook response.
type WebhookOutcome string

const (
	WebhookOutcomeSuccess WebhookOutcome = "success"
	WebhookOutcomePending WebhookOutcome = "pending"
	WebhookOutcomeIgnored WebhookOutcome = "ignored"
)

// Reasons returned with an ignored outcome.
const (
	ReasonNoDestination    = "No destination"
	ReasonWrongDestination = "Transaction not for Bedrock payment address"
	ReasonDuplicate        = "Duplicate delivery"
)

// WebhookEnvelope is the outer body of every provider webhook.
type WebhookEnvelope struct {
	Data map[string]json.RawMessage `json:"data"`
}

// TransactionDetails describes one leg (source or destination) of a swap.
type TransactionDetails struct {
	TransactionHash string `json:"transactionHash"`
	AmountWei       string `json:"amountWei"`
	Amount          string `json:"amount"`
	AmountUSDCents  int64  `json:"amountUSDCents"`
	CompletedAt     string `json:"completedAt"`
}

// PurchaseData is caller-supplied metadata attached when the purchase was created.
type PurchaseData struct {
	UserAddress string `json:"userAddress"`
}

// BuyWithCryptoStatus is the buyWithCryptoStatus webhook event.
// Destination is nil until the payment settles on the destination chain.
type BuyWithCryptoStatus struct {
	SwapType     string              `json:"swapType"`
	Source       *TransactionDetails `json:"source"`
	Status       PaymentStatus       `json:"status"`
	ToAddress    string              `json:"toAddress"`
	Destination  *TransactionDetails `json:"destination"`
	PurchaseData *PurchaseData       `json:"purchaseData"`
}

// Validate enforces the fields the processor depends on.
func (e *BuyWithCryptoStatus) Validate() error {
	if e.Status != PaymentStatusCompleted && e.Status != PaymentStatusPending {
		return fmt.Errorf("unknown status %q", e.Status)
	}
	if e.Source == nil {
		return errors.New("missing source")
	}
	if e.ToAddress == "" {
		return errors.New("missing toAddress")
	}
	if e.PurchaseData == nil {
		return errors.New("missing purchaseData")
	}
	return nil
}

// ParseBuyWithCryptoStatus decodes a raw webhook body.
// It returns (nil, nil) when the body is well-formed but carries another event type.
func ParseBuyWithCryptoStatus(raw []byte) (*BuyWithCryptoStatus, error) {
	var env WebhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Data == nil {
		return nil, errors.New("missing data")
	}

	rawEvent, ok := env.Data[BuyWithCryptoEvent]
	if !ok {
		return nil, nil
	}

	var event BuyWithCryptoStatus
	if err := json.Unmarshal(rawEvent, &event); err != nil {
		return nil, fmt.Errorf("decode %s: %w", BuyWithCryptoEvent, err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}

// WebhookResult is the JSON response to a processed webhook.
// Ignored results carry only Status and Reason.
type WebhookResult struct {
	Status          WebhookOutcome `json:"status"`
	Reason          string         `json:"reason,omitempty"`
	TransactionHash string         `json:"transaction_hash,omitempty"`
	Address         string         `json:"address,omitempty"`
	Amount          *float64       `json:"amount,omitempty"`
}

// Ignored builds an ignored result with the given reason.
func Ignored(reason string) *WebhookResult {
	return &WebhookResult{Status: WebhookOutcomeIgnored, Reason: reason}
}
