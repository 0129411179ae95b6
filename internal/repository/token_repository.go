package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/pkg/database"
)

const tokenColumns = `id, user_id, token_hash, expires_at, created_at, revoked_at, replaced_by, device_info, ip_address`

// tokenRepository implements TokenRepository over PostgreSQL
type tokenRepository struct {
	db *database.Postgres
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *database.Postgres) TokenRepository {
	return &tokenRepository{db: db}
}

// Create inserts a new refresh token row
func (r *tokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, device_info, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	prepareToken(token)

	_, err := r.db.DB.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
		token.DeviceInfo,
		token.IPAddress,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("token with hash already exists: %w", ErrDuplicateToken)
			}
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// GetByTokenHash retrieves a refresh token by its hash
func (r *tokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM refresh_tokens WHERE token_hash = $1`, tokenColumns)

	token, err := scanToken(r.db.DB.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token with hash not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token by hash: %w", err)
	}

	return token, nil
}

// GetByUserID retrieves all refresh tokens for a user, newest first
func (r *tokenRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.RefreshToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM refresh_tokens WHERE user_id = $1 ORDER BY created_at DESC`, tokenColumns)

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens by user id: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.RefreshToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tokens: %w", err)
	}

	return tokens, nil
}

// Rotate revokes the old row and inserts its replacement in one transaction.
// The revoke UPDATE is guarded by "revoked_at IS NULL": if it touches no rows
// the old token was already spent and the whole exchange fails closed.
func (r *tokenRepository) Rotate(ctx context.Context, oldHash string, replacement *domain.RefreshToken) error {
	prepareToken(replacement)

	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer tx.Rollback()

	revoke := `
		UPDATE refresh_tokens
		SET revoked_at = $2, replaced_by = $3
		WHERE token_hash = $1 AND revoked_at IS NULL
	`

	result, err := tx.ExecContext(ctx, revoke, oldHash, time.Now(), replacement.ID)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrTokenNotRotatable
	}

	insert := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, device_info, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = tx.ExecContext(ctx, insert,
		replacement.ID,
		replacement.UserID,
		replacement.TokenHash,
		replacement.ExpiresAt,
		replacement.CreatedAt,
		replacement.DeviceInfo,
		replacement.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to insert replacement token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rotation: %w", err)
	}

	return nil
}

// Revoke marks a token revoked without a replacement (logout)
func (r *tokenRepository) Revoke(ctx context.Context, tokenHash string, at time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $2
		WHERE token_hash = $1 AND revoked_at IS NULL
	`

	result, err := r.db.DB.ExecContext(ctx, query, tokenHash, at)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("token with hash not found or already revoked: %w", ErrNotFound)
	}

	return nil
}

// DeleteExpired removes all refresh tokens past their expiry, returning the count
func (r *tokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	result, err := r.db.DB.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func prepareToken(token *domain.RefreshToken) {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
}

func scanToken(row rowScanner) (*domain.RefreshToken, error) {
	token := &domain.RefreshToken{}
	var revokedAt sql.NullTime
	var replacedBy, deviceInfo, ipAddress sql.NullString

	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
		&revokedAt,
		&replacedBy,
		&deviceInfo,
		&ipAddress,
	)
	if err != nil {
		return nil, err
	}

	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Time
	}
	if replacedBy.Valid {
		token.ReplacedBy = &replacedBy.String
	}
	if deviceInfo.Valid {
		token.DeviceInfo = &deviceInfo.String
	}
	if ipAddress.Valid {
		token.IPAddress = &ipAddress.String
	}

	return token, nil
}
