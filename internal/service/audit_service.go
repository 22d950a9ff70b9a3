package service

import (
	"context"
	"time"

	"bedrock-relay/internal/core/domain"
	"bedrock-relay/internal/core/ports"

	"github.com/rs/zerolog"
)

const auditPersistTimeout = 5 * time.Second

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that always logs the entry and,
// when repo is non-nil, also stores it.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log.With().Str("component", "audit").Logger()}
}

// Log never blocks the caller. The entry is written on its own goroutine,
// detached from the request context.
func (s *auditService) Log(_ context.Context, entry *domain.AuditLog) {
	go s.record(entry)
}

func (s *auditService) record(entry *domain.AuditLog) {
	s.log.Info().
		Str("action", string(entry.Action)).
		Str("resource", entry.ResourceType+"/"+entry.ResourceID).
		Str("request_id", entry.RequestID).
		Str("ip", entry.IPAddress).
		RawJSON("details", detailsJSON(entry.Details)).
		Msg("audit")

	if s.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), auditPersistTimeout)
	defer cancel()
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("audit entry not stored")
	}
}

func detailsJSON(d string) []byte {
	if d == "" {
		return []byte("null")
	}
	return []byte(d)
}
