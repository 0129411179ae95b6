package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/carebridge/telehealth-api/internal/service"
)

const (
	// AccessTokenCookie carries the access token as a fallback for clients
	// that cannot set an Authorization header
	AccessTokenCookie = "token"

	// RefreshTokenCookie is scoped to the refresh endpoint only, so the
	// long-lived credential is never sent anywhere else
	RefreshTokenCookie = "refreshToken"

	// RefreshCookiePath is the sole path the refresh cookie travels to
	RefreshCookiePath = "/api/v1/auth/refresh-token"
)

// setSessionCookies installs both token cookies. Lifetimes track the tokens
// themselves: the access cookie dies with the access token, the refresh
// cookie with the refresh token.
func setSessionCookies(c *gin.Context, session *service.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, session.AuthResponse.Token, session.AuthResponse.ExpiresIn, "/", "", true, true)
	c.SetCookie(RefreshTokenCookie, session.RefreshToken, int(time.Until(session.RefreshExpiresAt).Seconds()), RefreshCookiePath, "", true, true)
}

// clearSessionCookies expires both token cookies, forcing a full re-login
func clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", true, true)
	c.SetCookie(RefreshTokenCookie, "", -1, RefreshCookiePath, "", true, true)
}
