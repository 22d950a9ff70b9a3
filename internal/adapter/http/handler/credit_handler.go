package handler

import (
	"math"
	"strconv"

	"bedrock-relay/internal/adapter/http/dto"
	"bedrock-relay/internal/adapter/http/middleware"
	"bedrock-relay/internal/core/ports"
	"bedrock-relay/pkg/apperror"
	"bedrock-relay/pkg/response"

	"github.com/gin-gonic/gin"
)

// CreditHandler serves credit balances and administrative adjustments.
type CreditHandler struct {
	creditSvc ports.CreditService
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(creditSvc ports.CreditService) *CreditHandler {
	return &CreditHandler{creditSvc: creditSvc}
}

// GetCredits handles GET /credits/:address.
func (h *CreditHandler) GetCredits(c *gin.Context) {
	balance, err := h.creditSvc.GetCredits(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, balance)
}

// AddCredits handles POST /credits/:address/add?amount=.
// Negative amounts are accepted as explicit debits.
func (h *CreditHandler) AddCredits(c *gin.Context) {
	var q dto.AddCreditsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}
	amount, err := strconv.ParseFloat(q.Amount, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	adj, err := h.creditSvc.AddCreditsDirect(c.Request.Context(), c.Param("address"), amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.MarkAudited(c, adj.Address, map[string]interface{}{
		"amount_added": adj.AmountAdded,
		"new_balance":  adj.NewBalance,
	})
	response.OK(c, adj)
}
