package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"bedrock-relay/pkg/apperror"
)

// Default freshness window for webhook timestamps.
const (
	DefaultWebhookMaxAge  = 300 * time.Second
	DefaultWebhookMaxSkew = 30 * time.Second
)

// HMACSignatureVerifier implements ports.SignatureVerifier using HMAC-SHA256
// over "{timestamp}.{rawBody}".
type HMACSignatureVerifier struct {
	maxAge  int64
	maxSkew int64
	now     func() time.Time
}

// NewHMACSignatureVerifier creates a verifier with the given freshness window.
// Zero durations fall back to the defaults.
func NewHMACSignatureVerifier(maxAge, maxSkew time.Duration) *HMACSignatureVerifier {
	if maxAge <= 0 {
		maxAge = DefaultWebhookMaxAge
	}
	if maxSkew <= 0 {
		maxSkew = DefaultWebhookMaxSkew
	}
	return &HMACSignatureVerifier{
		maxAge:  int64(maxAge / time.Second),
		maxSkew: int64(maxSkew / time.Second),
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (v *HMACSignatureVerifier) WithClock(now func() time.Time) *HMACSignatureVerifier {
	v.now = now
	return v
}

// Sign returns the lowercase hex signature the sender is expected to supply.
func (v *HMACSignatureVerifier) Sign(secret []byte, timestamp string, rawBody []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks presence, freshness and authenticity, in that order.
// rawBody must be the unparsed request body.
func (v *HMACSignatureVerifier) Verify(secret []byte, timestamp string, rawBody []byte, signature string) error {
	if signature == "" {
		return apperror.ErrMissingSignature()
	}
	if timestamp == "" {
		return apperror.ErrMissingTimestamp()
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return apperror.ErrInvalidTimestampFormat()
	}

	now := v.now().Unix()
	if now-ts > v.maxAge {
		return apperror.ErrWebhookExpired()
	}
	if ts > now+v.maxSkew {
		return apperror.ErrInvalidTimestamp()
	}

	expected := v.Sign(secret, timestamp, rawBody)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperror.ErrInvalidSignature()
	}
	return nil
}
