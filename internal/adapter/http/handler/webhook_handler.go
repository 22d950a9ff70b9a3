package handler

import (
	"errors"
	"io"
	"net/http"

	"bedrock-relay/internal/adapter/http/middleware"
	"bedrock-relay/internal/core/domain"
	"bedrock-relay/internal/core/ports"
	"bedrock-relay/pkg/apperror"
	"bedrock-relay/pkg/response"

	"github.com/gin-gonic/gin"
)

// Headers sent by the payment provider with every delivery.
const (
	HeaderPaySignature = "X-Pay-Signature"
	HeaderPayTimestamp = "X-Pay-Timestamp"
)

// WebhookHandler receives payment provider webhooks.
type WebhookHandler struct {
	webhookSvc ports.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc ports.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// Thirdweb handles POST /webhooks/thirdweb.
// The body is read raw because the signature covers the exact bytes sent.
func (h *WebhookHandler) Thirdweb(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, apperror.ErrBodyTooLarge())
			return
		}
		response.Error(c, apperror.ErrInvalidWebhookPayload(err))
		return
	}

	result, err := h.webhookSvc.Process(c.Request.Context(), ports.WebhookInput{
		Signature: c.GetHeader(HeaderPaySignature),
		Timestamp: c.GetHeader(HeaderPayTimestamp),
		RawBody:   rawBody,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Status == domain.WebhookOutcomeSuccess {
		details := map[string]interface{}{"transaction_hash": result.TransactionHash}
		if result.Amount != nil {
			details["amount"] = *result.Amount
		}
		middleware.MarkAudited(c, result.Address, details)
	}

	response.OK(c, result)
}
