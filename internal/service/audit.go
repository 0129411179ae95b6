package service

import (
	"context"

	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/internal/repository"
	"go.uber.org/zap"
)

// AuditRecorder writes audit entries best-effort: a failed write is logged
// and never propagated to the request that triggered it
type AuditRecorder struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

// NewAuditRecorder creates an audit recorder
func NewAuditRecorder(repo repository.AuditRepository, logger *zap.Logger) *AuditRecorder {
	return &AuditRecorder{repo: repo, logger: logger}
}

// Record appends an entry, swallowing storage errors
func (a *AuditRecorder) Record(ctx context.Context, entry *domain.AuditEntry) {
	if err := a.repo.Create(ctx, entry); err != nil {
		a.logger.Error("failed to write audit entry",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}
