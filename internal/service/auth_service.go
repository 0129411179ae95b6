package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carebridge/telehealth-api/internal/apperr"
	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/internal/dto"
	"github.com/carebridge/telehealth-api/internal/mailer"
	"github.com/carebridge/telehealth-api/internal/repository"
	"github.com/carebridge/telehealth-api/internal/utils"
	"go.uber.org/zap"
)

// authService implements AuthService
type authService struct {
	userRepo           repository.UserRepository
	tokenRepo          repository.TokenRepository
	profileRepo        repository.ProfileRepository
	audit              *AuditRecorder
	jwtManager         *utils.JWTManager
	blacklist          Blacklist
	mail               mailer.Sender
	logger             *zap.Logger
	bcryptCost         int
	otpExpiry          time.Duration
	refreshTokenExpiry time.Duration
}

// NewAuthService creates the auth service
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	profileRepo repository.ProfileRepository,
	audit *AuditRecorder,
	jwtManager *utils.JWTManager,
	blacklist Blacklist,
	mail mailer.Sender,
	logger *zap.Logger,
	bcryptCost int,
	otpExpiry time.Duration,
	refreshTokenExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:           userRepo,
		tokenRepo:          tokenRepo,
		profileRepo:        profileRepo,
		audit:              audit,
		jwtManager:         jwtManager,
		blacklist:          blacklist,
		mail:               mail,
		logger:             logger,
		bcryptCost:         bcryptCost,
		otpExpiry:          otpExpiry,
		refreshTokenExpiry: refreshTokenExpiry,
	}
}

// Signup registers an unverified user and emails the verification code.
// If the email cannot be delivered the user record is removed again, so no
// orphaned unverified account survives a failed notification.
func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest, meta RequestMeta) error {
	email := utils.SanitizeEmail(req.Email)

	if !utils.ValidateEmail(email) {
		return apperr.New(apperr.KindValidation, "invalid email format")
	}
	if !utils.ValidatePassword(req.Password) {
		return apperr.New(apperr.KindValidation, "password must be at least 8 characters long")
	}

	role := domain.RolePatient
	if req.Role != "" {
		parsed, ok := domain.ParseRole(req.Role)
		if !ok || parsed == domain.RoleAdmin {
			return apperr.New(apperr.KindValidation, "role must be patient or doctor")
		}
		role = parsed
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return apperr.New(apperr.KindConflict, "user already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check user existence: %w", err)
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	otp, err := GenerateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}
	otpExpiresAt := time.Now().Add(s.otpExpiry)

	user := &domain.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsVerified:   false,
		OTPCode:      &otp,
		OTPExpiresAt: &otpExpiresAt,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return apperr.New(apperr.KindConflict, "user already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", otp, int(s.otpExpiry.Minutes()))
	if err := s.mail.Send(ctx, email, "Your verification code", body); err != nil {
		s.logger.Error("otp email delivery failed", zap.String("email", email), zap.Error(err))

		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("failed to roll back unverified user", zap.String("user_id", user.ID), zap.Error(delErr))
		}

		return apperr.Wrap(apperr.KindDependency, "failed to send verification email", err)
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		UserID:       &user.ID,
		Action:       "SIGNUP",
		ResourceType: "User",
		ResourceID:   &user.ID,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		Status:       domain.AuditSuccess,
	})

	return nil
}

// VerifyOTP checks the emailed code and, on success, marks the user verified
// and issues the first session
func (s *authService) VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest, meta RequestMeta) (*Session, error) {
	email := utils.SanitizeEmail(req.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsVerified {
		return nil, apperr.New(apperr.KindConflict, "user already verified")
	}

	if user.OTPCode == nil || *user.OTPCode != req.OTP || !user.HasPendingOTP(time.Now()) {
		s.audit.Record(ctx, &domain.AuditEntry{
			UserID:       &user.ID,
			Action:       "VERIFY_OTP",
			ResourceType: "User",
			ResourceID:   &user.ID,
			IPAddress:    meta.IPAddress,
			UserAgent:    meta.UserAgent,
			Status:       domain.AuditFailure,
		})
		return nil, apperr.New(apperr.KindInvalidCredential, "invalid or expired OTP")
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark user verified: %w", err)
	}
	user.IsVerified = true
	user.OTPCode = nil
	user.OTPExpiresAt = nil

	return s.issueSession(ctx, user, meta, "VERIFY_OTP")
}

// Login authenticates with email and password. Unverified accounts never
// receive tokens.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, meta RequestMeta) (*Session, error) {
	email := utils.SanitizeEmail(req.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.auditLoginFailure(ctx, nil, meta)
			return nil, apperr.New(apperr.KindInvalidCredential, "invalid credentials")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsVerified {
		return nil, apperr.New(apperr.KindInvalidCredential, "Please verify your email first")
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.auditLoginFailure(ctx, &user.ID, meta)
		return nil, apperr.New(apperr.KindInvalidCredential, "invalid credentials")
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		// login still succeeds; the timestamp is advisory
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	return s.issueSession(ctx, user, meta, "LOGIN")
}

// Refresh exchanges an active refresh token for a new pair. The old token is
// revoked in the same transaction that records its replacement, so a value can
// be spent at most once; reuse fails closed.
func (s *authService) Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (*Session, error) {
	if refreshToken == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "no refresh token provided")
	}

	tokenHash := utils.HashToken(refreshToken)

	row, err := s.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindInvalidCredential, "invalid or expired refresh token")
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if !row.IsActive(time.Now()) {
		if row.RevokedAt != nil {
			// a revoked token coming back is the replay signature for a
			// stolen or duplicated refresh token
			s.audit.Record(ctx, &domain.AuditEntry{
				UserID:       &row.UserID,
				Action:       "REFRESH_TOKEN_REPLAY",
				ResourceType: "RefreshToken",
				ResourceID:   &row.ID,
				IPAddress:    meta.IPAddress,
				UserAgent:    meta.UserAgent,
				Status:       domain.AuditWarning,
			})
		}
		return nil, apperr.New(apperr.KindInvalidCredential, "invalid or expired refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindUnauthenticated, "user belonging to token no longer exists")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	session, replacement, err := s.mintSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Rotate(ctx, tokenHash, replacement); err != nil {
		if errors.Is(err, repository.ErrTokenNotRotatable) {
			// lost the race against a concurrent exchange of the same value
			return nil, apperr.New(apperr.KindInvalidCredential, "invalid or expired refresh token")
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return session, nil
}

// Logout revokes the presented refresh token and blacklists the access token
// for the remainder of its lifetime
func (s *authService) Logout(ctx context.Context, userID, accessToken, refreshToken string) error {
	if refreshToken != "" {
		tokenHash := utils.HashToken(refreshToken)

		row, err := s.tokenRepo.GetByTokenHash(ctx, tokenHash)
		if err == nil && row.UserID == userID {
			if err := s.tokenRepo.Revoke(ctx, tokenHash, time.Now()); err != nil {
				s.logger.Warn("failed to revoke refresh token on logout", zap.Error(err))
			}
		}
	}

	if accessToken != "" {
		if claims, err := s.jwtManager.ValidateAccessToken(accessToken); err == nil {
			ttl := time.Until(time.Unix(claims.Exp, 0))
			if ttl > 0 {
				if err := s.blacklist.Add(ctx, accessToken, ttl); err != nil {
					s.logger.Warn("failed to blacklist access token", zap.Error(err))
				}
			}
		}
	}

	return nil
}

// GetUser returns the profile of a single user
func (s *authService) GetUser(ctx context.Context, userID string) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	info := userInfo(user)
	return &info, nil
}

// ListUsers returns every user except the caller. Admin only; enforced at
// the route.
func (s *authService) ListUsers(ctx context.Context, excludeUserID string) ([]dto.UserInfo, error) {
	users, err := s.userRepo.ListExcept(ctx, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	infos := make([]dto.UserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, userInfo(user))
	}

	return infos, nil
}

// Authenticate resolves an access token to a live user. Any failure is
// Unauthenticated; callers never learn which check tripped.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	blacklisted, err := s.blacklist.Contains(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if blacklisted {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid or expired token")
	}

	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "invalid or expired token", err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindUnauthenticated, "user belonging to token no longer exists")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// issueSession mints and persists a brand-new session row
func (s *authService) issueSession(ctx context.Context, user *domain.User, meta RequestMeta, action string) (*Session, error) {
	session, row, err := s.mintSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		UserID:       &user.ID,
		Action:       action,
		ResourceType: "User",
		ResourceID:   &user.ID,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		Status:       domain.AuditSuccess,
	})

	return session, nil
}

func (s *authService) auditLoginFailure(ctx context.Context, userID *string, meta RequestMeta) {
	s.audit.Record(ctx, &domain.AuditEntry{
		UserID:       userID,
		Action:       "LOGIN",
		ResourceType: "User",
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		Status:       domain.AuditFailure,
	})
}
