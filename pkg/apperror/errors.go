package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"detail"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code, so callers can
// compare against the constructors below with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Webhook authentication (WH_00x) ----

func ErrMissingSignature() *AppError {
	return New("WH_001", "Missing signature", http.StatusUnauthorized)
}

func ErrMissingTimestamp() *AppError {
	return New("WH_002", "Missing timestamp", http.StatusUnauthorized)
}

func ErrInvalidTimestampFormat() *AppError {
	return New("WH_003", "Invalid timestamp format", http.StatusUnauthorized)
}

func ErrWebhookExpired() *AppError {
	return New("WH_004", "Webhook expired", http.StatusUnauthorized)
}

func ErrInvalidTimestamp() *AppError {
	return New("WH_005", "Invalid timestamp", http.StatusUnauthorized)
}

func ErrInvalidSignature() *AppError {
	return New("WH_006", "Invalid signature", http.StatusUnauthorized)
}

// ---- Webhook validation & processing (WH_01x / WH_02x) ----

func ErrUnsupportedWebhook() *AppError {
	return New("WH_010", "Unsupported webhook type", http.StatusBadRequest)
}

func ErrInvalidWebhookPayload(err error) *AppError {
	return Wrap("WH_011", "Invalid webhook payload", http.StatusBadRequest, err)
}

// ErrWebhookProcessing exposes the cause in the detail string. The relay is
// consumed by the payment provider and operators only.
func ErrWebhookProcessing(err error) *AppError {
	return Wrap("WH_020", fmt.Sprintf("Error processing webhook: %v", err), http.StatusInternalServerError, err)
}

// ---- Ledger (LEDGER) ----

func ErrLedgerWrite(err error) *AppError {
	return Wrap("LEDGER_001", "Failed to write credit ledger", http.StatusInternalServerError, err)
}

func ErrLedgerLock(err error) *AppError {
	return Wrap("LEDGER_002", "Failed to acquire credit ledger lock", http.StatusServiceUnavailable, err)
}

// ---- Credits (CREDIT) ----

func ErrGettingCredits(err error) *AppError {
	return Wrap("CREDIT_001", fmt.Sprintf("Error getting credits: %v", err), http.StatusInternalServerError, err)
}

func ErrAddingCredits(err error) *AppError {
	return Wrap("CREDIT_002", fmt.Sprintf("Error adding credits: %v", err), http.StatusInternalServerError, err)
}

func ErrInvalidAmount() *AppError {
	return New("CREDIT_003", "Invalid amount", http.StatusBadRequest)
}

// ---- Names (NAME / CHAIN / IPFS) ----

func ErrInvalidUsername() *AppError {
	return New("NAME_001", "Invalid username", http.StatusBadRequest)
}

func ErrNameNotFound(name string) *AppError {
	return New("NAME_002", fmt.Sprintf("%s is not registered", name), http.StatusNotFound)
}

func ErrInvalidAddress(err error) *AppError {
	return Wrap("NAME_003", fmt.Sprintf("Invalid address: %v", err), http.StatusBadRequest, err)
}

func ErrChainCall(err error) *AppError {
	return Wrap("CHAIN_001", fmt.Sprint(err), http.StatusInternalServerError, err)
}

func ErrPinning(err error) *AppError {
	return Wrap("IPFS_001", "Failed to pin content to IPFS", http.StatusBadGateway, err)
}

// ---- Admin authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_002", "Admin role required", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("SYS_002", message, http.StatusBadRequest)
}

// ErrBodyTooLarge is returned when a request body exceeds the server limit.
func ErrBodyTooLarge() *AppError {
	return New("SYS_003", "Request body too large", http.StatusRequestEntityTooLarge)
}
