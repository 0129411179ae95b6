package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/carebridge/telehealth-api/internal/apperr"
	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/internal/dto"
	"github.com/carebridge/telehealth-api/internal/utils"
)

const testOTPExpiry = 10 * time.Minute

type authFixture struct {
	service   AuthService
	userRepo  *fakeUserRepo
	tokenRepo *fakeTokenRepo
	profiles  *fakeProfileRepo
	auditRepo *fakeAuditRepo
	mailer    *fakeMailer
	blacklist *fakeBlacklist
	jwt       *utils.JWTManager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		userRepo:  newFakeUserRepo(),
		tokenRepo: newFakeTokenRepo(),
		profiles:  newFakeProfileRepo(),
		auditRepo: newFakeAuditRepo(),
		mailer:    &fakeMailer{},
		blacklist: newFakeBlacklist(),
		jwt:       utils.NewJWTManager("test-secret-key-that-is-at-least-32-characters-long", 15*time.Minute),
	}

	logger := zap.NewNop()
	f.service = NewAuthService(
		f.userRepo,
		f.tokenRepo,
		f.profiles,
		NewAuditRecorder(f.auditRepo, logger),
		f.jwt,
		f.blacklist,
		f.mailer,
		logger,
		bcrypt.MinCost,
		testOTPExpiry,
		7*24*time.Hour,
	)
	return f
}

func testMeta() RequestMeta {
	return RequestMeta{IPAddress: "203.0.113.9", UserAgent: "test-agent"}
}

func (f *authFixture) signup(t *testing.T, email string) *domain.User {
	t.Helper()

	err := f.service.Signup(context.Background(), &dto.SignupRequest{
		Name:     "Test Patient",
		Email:    email,
		Password: "Password123",
	}, testMeta())
	require.NoError(t, err)

	user, err := f.userRepo.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return user
}

// signupVerified walks the real signup + OTP flow so downstream tests exercise
// exactly the state the production path produces.
func (f *authFixture) signupVerified(t *testing.T, email string) (*domain.User, *Session) {
	t.Helper()

	user := f.signup(t, email)
	require.NotNil(t, user.OTPCode)

	session, err := f.service.VerifyOTP(context.Background(), &dto.VerifyOTPRequest{
		Email: email,
		OTP:   *user.OTPCode,
	}, testMeta())
	require.NoError(t, err)

	verified, err := f.userRepo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	return verified, session
}

func TestSignup(t *testing.T) {
	f := newAuthFixture(t)
	before := time.Now()

	user := f.signup(t, "patient@example.com")

	assert.False(t, user.IsVerified)
	assert.Equal(t, domain.RolePatient, user.Role)
	require.NotNil(t, user.OTPCode)
	assert.Len(t, *user.OTPCode, 6)

	require.NotNil(t, user.OTPExpiresAt)
	expiry := user.OTPExpiresAt.Sub(before)
	assert.True(t, expiry >= testOTPExpiry && expiry < testOTPExpiry+time.Minute,
		"OTP expiry should be ~10m out, got %v", expiry)

	// password never stored in the clear
	assert.NotEqual(t, "Password123", user.PasswordHash)
	assert.True(t, utils.CheckPasswordHash("Password123", user.PasswordHash))

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "patient@example.com", f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].Body, *user.OTPCode)

	require.Len(t, f.auditRepo.byAction("SIGNUP"), 1)
}

func TestSignup_NormalizesEmail(t *testing.T) {
	f := newAuthFixture(t)

	err := f.service.Signup(context.Background(), &dto.SignupRequest{
		Name:     "Test Patient",
		Email:    "  Patient@Example.COM ",
		Password: "Password123",
	}, testMeta())
	require.NoError(t, err)

	_, err = f.userRepo.GetByEmail(context.Background(), "patient@example.com")
	assert.NoError(t, err)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "patient@example.com")

	err := f.service.Signup(context.Background(), &dto.SignupRequest{
		Name:     "Someone Else",
		Email:    "patient@example.com",
		Password: "Password456",
	}, testMeta())

	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestSignup_RejectsAdminRole(t *testing.T) {
	f := newAuthFixture(t)

	err := f.service.Signup(context.Background(), &dto.SignupRequest{
		Name:     "Would-be Admin",
		Email:    "admin@example.com",
		Password: "Password123",
		Role:     "admin",
	}, testMeta())

	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSignup_DoctorRole(t *testing.T) {
	f := newAuthFixture(t)

	err := f.service.Signup(context.Background(), &dto.SignupRequest{
		Name:     "Dr Doctor",
		Email:    "doctor@example.com",
		Password: "Password123",
		Role:     "doctor",
	}, testMeta())
	require.NoError(t, err)

	user, err := f.userRepo.GetByEmail(context.Background(), "doctor@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDoctor, user.Role)
}

func TestSignup_MailFailureRollsBackUser(t *testing.T) {
	f := newAuthFixture(t)
	f.mailer.failErr = errors.New("smtp dial failed")

	err := f.service.Signup(context.Background(), &dto.SignupRequest{
		Name:     "Test Patient",
		Email:    "patient@example.com",
		Password: "Password123",
	}, testMeta())

	require.Error(t, err)
	assert.Equal(t, apperr.KindDependency, apperr.KindOf(err))

	// no orphaned unverified account; the email is reusable
	_, err = f.userRepo.GetByEmail(context.Background(), "patient@example.com")
	assert.ErrorContains(t, err, "not found")
}

func TestVerifyOTP(t *testing.T) {
	f := newAuthFixture(t)
	user, session := f.signupVerified(t, "patient@example.com")

	assert.True(t, user.IsVerified)
	assert.Nil(t, user.OTPCode, "OTP must be cleared after verification")
	assert.Nil(t, user.OTPExpiresAt)

	require.NotNil(t, session.AuthResponse)
	assert.NotEmpty(t, session.AuthResponse.Token)
	assert.Equal(t, "Bearer", session.AuthResponse.TokenType)
	assert.NotEmpty(t, session.RefreshToken)

	// refresh token persisted as hash only
	row, err := f.tokenRepo.GetByTokenHash(context.Background(), utils.HashToken(session.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, user.ID, row.UserID)
	assert.True(t, row.IsActive(time.Now()))
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	f := newAuthFixture(t)
	user := f.signup(t, "patient@example.com")

	wrong := "000000"
	if *user.OTPCode == wrong {
		wrong = "000001"
	}

	_, err := f.service.VerifyOTP(context.Background(), &dto.VerifyOTPRequest{
		Email: "patient@example.com",
		OTP:   wrong,
	}, testMeta())

	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))
	assert.Equal(t, "invalid or expired OTP", apperr.MessageOf(err))

	failures := f.auditRepo.byAction("VERIFY_OTP")
	require.Len(t, failures, 1)
	assert.Equal(t, domain.AuditFailure, failures[0].Status)
}

func TestVerifyOTP_ExpiredCode(t *testing.T) {
	f := newAuthFixture(t)
	user := f.signup(t, "patient@example.com")

	// age the code past its window
	f.userRepo.mu.Lock()
	expired := time.Now().Add(-time.Second)
	f.userRepo.users[user.ID].OTPExpiresAt = &expired
	f.userRepo.mu.Unlock()

	_, err := f.service.VerifyOTP(context.Background(), &dto.VerifyOTPRequest{
		Email: "patient@example.com",
		OTP:   *user.OTPCode,
	}, testMeta())

	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))
	assert.Equal(t, "invalid or expired OTP", apperr.MessageOf(err))
}

func TestVerifyOTP_AlreadyVerified(t *testing.T) {
	f := newAuthFixture(t)
	f.signupVerified(t, "patient@example.com")

	_, err := f.service.VerifyOTP(context.Background(), &dto.VerifyOTPRequest{
		Email: "patient@example.com",
		OTP:   "123456",
	}, testMeta())

	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestVerifyOTP_UnknownUser(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.VerifyOTP(context.Background(), &dto.VerifyOTPRequest{
		Email: "nobody@example.com",
		OTP:   "123456",
	}, testMeta())

	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	user, _ := f.signupVerified(t, "patient@example.com")

	session, err := f.service.Login(context.Background(), &dto.LoginRequest{
		Email:    "patient@example.com",
		Password: "Password123",
	}, testMeta())
	require.NoError(t, err)

	assert.Equal(t, user.ID, session.AuthResponse.User.ID)
	assert.NotEmpty(t, session.RefreshToken)

	claims, err := f.jwt.ValidateAccessToken(session.AuthResponse.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RolePatient, claims.Role)

	refreshed, err := f.userRepo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, refreshed.LastLoginAt)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.signupVerified(t, "patient@example.com")

	_, err := f.service.Login(context.Background(), &dto.LoginRequest{
		Email:    "patient@example.com",
		Password: "WrongPassword",
	}, testMeta())

	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))
	assert.Equal(t, "invalid credentials", apperr.MessageOf(err))

	failures := f.auditRepo.byAction("LOGIN")
	require.NotEmpty(t, failures)
	assert.Equal(t, domain.AuditFailure, failures[len(failures)-1].Status)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "Password123",
	}, testMeta())

	require.Error(t, err)
	// same message as a wrong password, so the response does not reveal
	// which accounts exist
	assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))
	assert.Equal(t, "invalid credentials", apperr.MessageOf(err))
}

func TestLogin_UnverifiedUser(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "patient@example.com")

	_, err := f.service.Login(context.Background(), &dto.LoginRequest{
		Email:    "patient@example.com",
		Password: "Password123",
	}, testMeta())

	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))
	assert.Equal(t, "Please verify your email first", apperr.MessageOf(err))
}

func TestRefresh_RotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	user, session := f.signupVerified(t, "patient@example.com")

	next, err := f.service.Refresh(context.Background(), session.RefreshToken, testMeta())
	require.NoError(t, err)

	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)
	assert.Equal(t, user.ID, next.AuthResponse.User.ID)

	// old row revoked and linked to its replacement
	oldRow, err := f.tokenRepo.GetByTokenHash(context.Background(), utils.HashToken(session.RefreshToken))
	require.NoError(t, err)
	assert.NotNil(t, oldRow.RevokedAt)
	require.NotNil(t, oldRow.ReplacedBy)

	newRow, err := f.tokenRepo.GetByTokenHash(context.Background(), utils.HashToken(next.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, *oldRow.ReplacedBy, newRow.ID)
	assert.True(t, newRow.IsActive(time.Now()))
}

func TestRefresh_ReuseDetected(t *testing.T) {
	f := newAuthFixture(t)
	_, session := f.signupVerified(t, "patient@example.com")

	_, err := f.service.Refresh(context.Background(), session.RefreshToken, testMeta())
	require.NoError(t, err)

	// spending the same value again must fail closed and leave a trace
	_, err = f.service.Refresh(context.Background(), session.RefreshToken, testMeta())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))

	replays := f.auditRepo.byAction("REFRESH_TOKEN_REPLAY")
	require.Len(t, replays, 1)
	assert.Equal(t, domain.AuditWarning, replays[0].Status)
}

func TestRefresh_MissingToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Refresh(context.Background(), "", testMeta())
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestRefresh_UnknownToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Refresh(context.Background(), "never-issued-value", testMeta())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))
}

func TestRefresh_ExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	_, session := f.signupVerified(t, "patient@example.com")

	hash := utils.HashToken(session.RefreshToken)
	f.tokenRepo.mu.Lock()
	f.tokenRepo.tokens[hash].ExpiresAt = time.Now().Add(-time.Second)
	f.tokenRepo.mu.Unlock()

	_, err := f.service.Refresh(context.Background(), session.RefreshToken, testMeta())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))

	// expiry is not replay; no warning entry
	assert.Empty(t, f.auditRepo.byAction("REFRESH_TOKEN_REPLAY"))
}

func TestRefresh_UserDeleted(t *testing.T) {
	f := newAuthFixture(t)
	user, session := f.signupVerified(t, "patient@example.com")

	require.NoError(t, f.userRepo.Delete(context.Background(), user.ID))

	_, err := f.service.Refresh(context.Background(), session.RefreshToken, testMeta())
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	user, session := f.signupVerified(t, "patient@example.com")

	err := f.service.Logout(context.Background(), user.ID, session.AuthResponse.Token, session.RefreshToken)
	require.NoError(t, err)

	row, err := f.tokenRepo.GetByTokenHash(context.Background(), utils.HashToken(session.RefreshToken))
	require.NoError(t, err)
	assert.NotNil(t, row.RevokedAt)

	blacklisted, err := f.blacklist.Contains(context.Background(), session.AuthResponse.Token)
	require.NoError(t, err)
	assert.True(t, blacklisted)
}

func TestLogout_IgnoresForeignRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	_, victimSession := f.signupVerified(t, "victim@example.com")
	attacker, attackerSession := f.signupVerified(t, "attacker@example.com")

	// presenting someone else's refresh token must not revoke it
	err := f.service.Logout(context.Background(), attacker.ID, attackerSession.AuthResponse.Token, victimSession.RefreshToken)
	require.NoError(t, err)

	row, err := f.tokenRepo.GetByTokenHash(context.Background(), utils.HashToken(victimSession.RefreshToken))
	require.NoError(t, err)
	assert.Nil(t, row.RevokedAt)
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	user, session := f.signupVerified(t, "patient@example.com")

	got, err := f.service.Authenticate(context.Background(), session.AuthResponse.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Email, got.Email)
}

func TestAuthenticate_Garbage(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Authenticate(context.Background(), "not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestAuthenticate_BlacklistedToken(t *testing.T) {
	f := newAuthFixture(t)
	user, session := f.signupVerified(t, "patient@example.com")

	require.NoError(t, f.service.Logout(context.Background(), user.ID, session.AuthResponse.Token, session.RefreshToken))

	_, err := f.service.Authenticate(context.Background(), session.AuthResponse.Token)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestAuthenticate_UserDeleted(t *testing.T) {
	f := newAuthFixture(t)
	user, session := f.signupVerified(t, "patient@example.com")

	require.NoError(t, f.userRepo.Delete(context.Background(), user.ID))

	_, err := f.service.Authenticate(context.Background(), session.AuthResponse.Token)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestDoctorProfileCompleteFlag(t *testing.T) {
	f := newAuthFixture(t)

	err := f.service.Signup(context.Background(), &dto.SignupRequest{
		Name:     "Dr Doctor",
		Email:    "doctor@example.com",
		Password: "Password123",
		Role:     "doctor",
	}, testMeta())
	require.NoError(t, err)

	user, err := f.userRepo.GetByEmail(context.Background(), "doctor@example.com")
	require.NoError(t, err)

	session, err := f.service.VerifyOTP(context.Background(), &dto.VerifyOTPRequest{
		Email: "doctor@example.com",
		OTP:   *user.OTPCode,
	}, testMeta())
	require.NoError(t, err)
	assert.False(t, session.AuthResponse.IsDoctorProfileComplete)

	require.NoError(t, f.profiles.Create(context.Background(), &domain.DoctorProfile{UserID: user.ID}))

	session, err = f.service.Login(context.Background(), &dto.LoginRequest{
		Email:    "doctor@example.com",
		Password: "Password123",
	}, testMeta())
	require.NoError(t, err)
	assert.True(t, session.AuthResponse.IsDoctorProfileComplete)
}

func TestListUsersExcludesCaller(t *testing.T) {
	f := newAuthFixture(t)
	caller, _ := f.signupVerified(t, "admin@example.com")
	f.signupVerified(t, "patient@example.com")

	users, err := f.service.ListUsers(context.Background(), caller.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "patient@example.com", users[0].Email)
}
