package repository

import (
	"context"
	"time"

	"github.com/carebridge/telehealth-api/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	MarkVerified(ctx context.Context, userID string) error
	UpdateLastLogin(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string) error
	ListExcept(ctx context.Context, excludeUserID string) ([]*domain.User, error)
}

// TokenRepository defines methods for refresh token operations
type TokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.RefreshToken, error)
	// Rotate atomically revokes the token identified by oldHash and inserts its
	// replacement. Returns ErrTokenNotRotatable if the old row was already revoked.
	Rotate(ctx context.Context, oldHash string, replacement *domain.RefreshToken) error
	Revoke(ctx context.Context, tokenHash string, at time.Time) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// ProfileRepository defines methods for doctor profile operations
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.DoctorProfile) error
	ExistsForUser(ctx context.Context, userID string) (bool, error)
}

// MetricFilter narrows a health metric history query
type MetricFilter struct {
	MetricType *domain.MetricType
	From       *time.Time
	To         *time.Time
}

// MetricRepository defines methods for health metric operations
type MetricRepository interface {
	Create(ctx context.Context, metric *domain.HealthMetric) error
	ListByPatient(ctx context.Context, patientID string, filter MetricFilter) ([]*domain.HealthMetric, error)
}

// AuditRepository defines methods for audit log operations
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
}
