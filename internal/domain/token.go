package domain

import "time"

// AccessClaims represents the claims carried by an access token
type AccessClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// IsExpired checks if the claims are past their expiry
func (c AccessClaims) IsExpired() bool {
	return time.Now().Unix() > c.Exp
}

// RefreshToken represents a persisted refresh token. The opaque value handed to
// the client is never stored; only its SHA-256 hash is.
type RefreshToken struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	TokenHash  string     `json:"-" db:"token_hash"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at" db:"revoked_at"`
	ReplacedBy *string    `json:"replaced_by" db:"replaced_by"`
	DeviceInfo *string    `json:"device_info" db:"device_info"`
	IPAddress  *string    `json:"ip_address" db:"ip_address"`
}

// IsExpired reports whether the token has reached its expiry instant.
// A token expiring exactly now counts as expired.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsActive reports whether the token can still be exchanged: never revoked
// and not yet expired
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && !t.IsExpired(now)
}
