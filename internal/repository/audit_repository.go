package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/pkg/database"
)

// auditRepository implements AuditRepository over PostgreSQL
type auditRepository struct {
	db *database.Postgres
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *database.Postgres) AuditRepository {
	return &auditRepository{db: db}
}

// Create appends an audit entry. The table is insert-only.
func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_log (id, user_id, action, resource_type, resource_id, details, ip_address, user_agent, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Status == "" {
		entry.Status = domain.AuditSuccess
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	_, err = r.db.DB.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		details,
		entry.IPAddress,
		entry.UserAgent,
		string(entry.Status),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}
