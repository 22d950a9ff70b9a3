package postgres

import (
	"context"
	"testing"
	"time"

	"bedrock-relay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	entry := &domain.AuditLog{
		ID:           uuid.New(),
		RequestID:    "req-1",
		Action:       domain.AuditActionCreditAdmin,
		ResourceType: "credits",
		ResourceID:   testOwner,
		Details:      `{"status":200}`,
		IPAddress:    "10.0.0.1",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(entry.ID, entry.RequestID, "CREDIT_ADMIN", entry.ResourceType,
			entry.ResourceID, &entry.Details, entry.IPAddress, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewAuditRepository(mock)
	assert.NoError(t, repo.Create(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}
