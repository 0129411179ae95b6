package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/pkg/database"
)

// profileRepository implements ProfileRepository over PostgreSQL
type profileRepository struct {
	db *database.Postgres
}

// NewProfileRepository creates a new doctor profile repository
func NewProfileRepository(db *database.Postgres) ProfileRepository {
	return &profileRepository{db: db}
}

// Create inserts a doctor profile
func (r *profileRepository) Create(ctx context.Context, profile *domain.DoctorProfile) error {
	query := `
		INSERT INTO doctor_profiles (id, user_id, specialty, license_number, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Specialty,
		profile.LicenseNumber,
		profile.CreatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation on user_id
				return fmt.Errorf("doctor profile already exists for user %s: %w", profile.UserID, err)
			}
		}
		return fmt.Errorf("failed to create doctor profile: %w", err)
	}

	return nil
}

// ExistsForUser reports whether the user has completed a doctor profile
func (r *profileRepository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM doctor_profiles WHERE user_id = $1)`

	var exists bool
	if err := r.db.DB.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check doctor profile: %w", err)
	}

	return exists, nil
}
