package service

import (
	"context"
	"fmt"
	"time"

	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/internal/dto"
	"github.com/carebridge/telehealth-api/internal/utils"
)

// Session is the result of a successful authentication: the response body plus
// the raw refresh token and its expiry for cookie delivery
type Session struct {
	AuthResponse     *dto.AuthResponse
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// mintSession generates an access token and a fresh refresh-token row for the
// user. The row is returned unpersisted; callers either Create it (login,
// verify) or hand it to Rotate as the replacement (refresh).
func (s *authService) mintSession(ctx context.Context, user *domain.User, meta RequestMeta) (*Session, *domain.RefreshToken, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshValue, err := s.jwtManager.GenerateRefreshToken()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.refreshTokenExpiry)

	row := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashToken(refreshValue),
		ExpiresAt: expiresAt,
	}
	if meta.UserAgent != "" {
		row.DeviceInfo = &meta.UserAgent
	}
	if meta.IPAddress != "" {
		row.IPAddress = &meta.IPAddress
	}

	profileComplete, err := s.doctorProfileComplete(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	session := &Session{
		AuthResponse: &dto.AuthResponse{
			Token:                   accessToken,
			TokenType:               "Bearer",
			ExpiresIn:               s.jwtManager.GetAccessTokenExpiry(),
			User:                    userInfo(user),
			IsDoctorProfileComplete: profileComplete,
		},
		RefreshToken:     refreshValue,
		RefreshExpiresAt: expiresAt,
	}

	return session, row, nil
}

// doctorProfileComplete is only meaningful for doctors; false otherwise
func (s *authService) doctorProfileComplete(ctx context.Context, user *domain.User) (bool, error) {
	if user.Role != domain.RoleDoctor {
		return false, nil
	}

	exists, err := s.profileRepo.ExistsForUser(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check doctor profile: %w", err)
	}
	return exists, nil
}

func userInfo(user *domain.User) dto.UserInfo {
	return dto.UserInfo{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		IsVerified: user.IsVerified,
	}
}
