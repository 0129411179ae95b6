package dto

import "github.com/carebridge/telehealth-api/internal/domain"

// SignupRequest represents a signup request
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=patient doctor"`
}

// VerifyOTPRequest represents an OTP verification request
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LogMetricRequest represents a health metric submission
type LogMetricRequest struct {
	MetricType string             `json:"metricType" binding:"required"`
	Value      domain.MetricValue `json:"value" binding:"required"`
	Note       string             `json:"note"`
}
