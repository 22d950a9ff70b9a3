package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionCreditWebhook AuditAction = "CREDIT_WEBHOOK"
	AuditActionCreditAdmin   AuditAction = "CREDIT_ADMIN"
	AuditActionNameRegister  AuditAction = "NAME_REGISTER"
	AuditActionAvatarUpdate  AuditAction = "AVATAR_UPDATE"
)

// AuditLog records one state-changing request.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	RequestID    string      `json:"request_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
