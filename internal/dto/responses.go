package dto

import (
	"time"

	"github.com/carebridge/telehealth-api/internal/domain"
)

// UserInfo represents user information in responses. OTP and password state
// never appear here.
type UserInfo struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	IsVerified bool        `json:"is_verified"`
}

// AuthResponse represents a successful authentication response
type AuthResponse struct {
	Token                   string   `json:"token"`
	TokenType               string   `json:"token_type"`
	ExpiresIn               int      `json:"expires_in"`
	User                    UserInfo `json:"user"`
	IsDoctorProfileComplete bool     `json:"isDoctorProfileComplete"`
}

// MetricResponse represents a health metric with its decrypted value and
// the abnormality flag
type MetricResponse struct {
	ID         string             `json:"id"`
	MetricType domain.MetricType  `json:"metricType"`
	Value      domain.MetricValue `json:"value"`
	Note       string             `json:"note,omitempty"`
	RecordedAt time.Time          `json:"recordedAt"`
	IsAbnormal bool               `json:"isAbnormal"`
}

// SuccessResponse represents a success message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
