package domain

import "time"

// User represents an account in the platform
type User struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	IsVerified   bool       `json:"is_verified" db:"is_verified"`
	OTPCode      *string    `json:"-" db:"otp_code"`
	OTPExpiresAt *time.Time `json:"-" db:"otp_expires_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
}

// HasPendingOTP reports whether the user still holds an unexpired verification code
func (u *User) HasPendingOTP(now time.Time) bool {
	return u.OTPCode != nil && u.OTPExpiresAt != nil && now.Before(*u.OTPExpiresAt)
}

// DoctorProfile holds the professional details a doctor fills in after signup.
// Its existence for a user is what makes the doctor profile "complete".
type DoctorProfile struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Specialty     string    `json:"specialty" db:"specialty"`
	LicenseNumber string    `json:"license_number" db:"license_number"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
