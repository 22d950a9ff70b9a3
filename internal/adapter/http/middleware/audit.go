package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"bedrock-relay/internal/core/domain"
	"bedrock-relay/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ctxAuditResource = "audit_resource"

type auditResource struct {
	id      string
	details map[string]interface{}
}

// MarkAudited flags the current request for the audit trail.
// Handlers call it only once the state change actually happened, so
// ignored webhooks and failed chain calls leave no audit row.
func MarkAudited(c *gin.Context, resourceID string, details map[string]interface{}) {
	c.Set(ctxAuditResource, auditResource{id: resourceID, details: details})
}

// AuditLog records state-changing requests after the handler ran.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 || c.Request.Method == http.MethodGet {
			return
		}

		v, ok := c.Get(ctxAuditResource)
		if !ok {
			return
		}
		res := v.(auditResource)

		action, resourceType := mapPathToAction(c.Request.Method, c.FullPath())
		if action == "" {
			return
		}

		details := map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		}
		for k, val := range res.details {
			details[k] = val
		}
		if subject := c.GetString(CtxAdminSubject); subject != "" {
			details["admin"] = subject
		}
		detailsJSON, _ := json.Marshal(details)

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			RequestID:    c.GetString(CtxRequestID),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   res.id,
			Details:      string(detailsJSON),
			IPAddress:    c.ClientIP(),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

// mapPathToAction maps a route template to its audit action and resource type.
func mapPathToAction(method, route string) (domain.AuditAction, string) {
	switch {
	case method == http.MethodPost && route == "/webhooks/thirdweb":
		return domain.AuditActionCreditWebhook, "credit"
	case method == http.MethodPost && route == "/credits/:address/add":
		return domain.AuditActionCreditAdmin, "credit"
	case method == http.MethodPost && route == "/register":
		return domain.AuditActionNameRegister, "name"
	case method == http.MethodPut && route == "/avatar/:username":
		return domain.AuditActionAvatarUpdate, "name"
	default:
		return "", ""
	}
}
