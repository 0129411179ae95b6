package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/carebridge/telehealth-api/internal/apperr"
	"github.com/carebridge/telehealth-api/internal/dto"
	"github.com/carebridge/telehealth-api/internal/service"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// Signup handles user registration
// @Summary Register a new user
// @Description Create an unverified account and email a verification code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "Signup request"
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, err.Error(), err))
		return
	}

	if err := h.authService.Signup(c.Request.Context(), &req, requestMeta(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse{
		Message: "User registered. Please verify OTP.",
	})
}

// VerifyOTP handles email verification
// @Summary Verify the signup OTP
// @Description Verify the emailed code and issue the first token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyOTPRequest true "OTP verification request"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, err.Error(), err))
		return
	}

	session, err := h.authService.VerifyOTP(c.Request.Context(), &req, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	setSessionCookies(c, session)
	c.JSON(http.StatusOK, session.AuthResponse)
}

// Login handles user login
// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, err.Error(), err))
		return
	}

	session, err := h.authService.Login(c.Request.Context(), &req, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	setSessionCookies(c, session)
	c.JSON(http.StatusOK, session.AuthResponse)
}

// Refresh handles token rotation
// @Summary Refresh tokens
// @Description Exchange the refresh cookie for a new token pair
// @Tags auth
// @Produce json
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /auth/refresh-token [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshTokenCookie)

	session, err := h.authService.Refresh(c.Request.Context(), refreshToken, requestMeta(c))
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindUnauthenticated:
			clearSessionCookies(c)
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   apperr.KindUnauthenticated.Label(),
				Message: apperr.MessageOf(err),
			})
		case apperr.KindInvalidCredential:
			// rejected refresh tokens force a full re-login
			clearSessionCookies(c)
			c.JSON(http.StatusForbidden, dto.ErrorResponse{
				Error:   apperr.KindForbidden.Label(),
				Message: apperr.MessageOf(err),
			})
		default:
			respondError(c, err)
		}
		return
	}

	setSessionCookies(c, session)
	c.JSON(http.StatusOK, session.AuthResponse)
}

// Logout handles user logout
// @Summary Logout
// @Description Revoke the refresh token and invalidate the access token
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetString(ContextUserID)
	accessToken := c.GetString(ContextAccessToken)
	refreshToken, _ := c.Cookie(RefreshTokenCookie)

	if err := h.authService.Logout(c.Request.Context(), userID, accessToken, refreshToken); err != nil {
		respondError(c, err)
		return
	}

	clearSessionCookies(c)
	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Logged out successfully",
	})
}

// Me returns the current user's profile
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UserInfo
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), c.GetString(ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers returns all users except the caller. Admin only.
// @Summary List users
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.UserInfo
// @Failure 403 {object} dto.ErrorResponse
// @Router /auth/users [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context(), c.GetString(ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}
