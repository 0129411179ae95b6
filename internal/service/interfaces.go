package service

import (
	"context"
	"time"

	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/internal/dto"
)

// RequestMeta carries per-request caller details into audit entries and
// refresh-token rows
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuthService defines the authentication operations
type AuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest, meta RequestMeta) error
	VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest, meta RequestMeta) (*Session, error)
	Login(ctx context.Context, req *dto.LoginRequest, meta RequestMeta) (*Session, error)
	Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (*Session, error)
	Logout(ctx context.Context, userID, accessToken, refreshToken string) error
	GetUser(ctx context.Context, userID string) (*dto.UserInfo, error)
	ListUsers(ctx context.Context, excludeUserID string) ([]dto.UserInfo, error)
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
}

// MetricService defines the health metric operations
type MetricService interface {
	Log(ctx context.Context, patientID string, req *dto.LogMetricRequest) (*dto.MetricResponse, error)
	History(ctx context.Context, patientID string, metricType string, from, to *time.Time) ([]dto.MetricResponse, error)
}

// Blacklist invalidates access tokens ahead of their expiry (logout)
type Blacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}
