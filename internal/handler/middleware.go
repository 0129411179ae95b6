package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/carebridge/telehealth-api/internal/apperr"
	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/internal/service"
)

// Context keys set by AuthMiddleware
const (
	ContextUser        = "user"
	ContextUserID      = "user_id"
	ContextRole        = "role"
	ContextAccessToken = "access_token"
)

// AuthMiddleware resolves the bearer credential to a live user and attaches
// it to the request context. The Authorization header wins; the access-token
// cookie is the fallback for browser clients.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			abortError(c, apperr.New(apperr.KindUnauthenticated, "you are not logged in"))
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortError(c, err)
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextRole, user.Role)
		c.Set(ContextAccessToken, token)

		c.Next()
	}
}

// RequireRoles restricts a route to the given roles. Must run after
// AuthMiddleware.
func RequireRoles(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			abortError(c, apperr.New(apperr.KindUnauthenticated, "you are not logged in"))
			return
		}

		if !role.(domain.Role).PermittedBy(allowed...) {
			abortError(c, apperr.New(apperr.KindForbidden, "you do not have permission to perform this action"))
			return
		}

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	cookie, err := c.Cookie(AccessTokenCookie)
	if err != nil {
		return ""
	}
	return cookie
}

// CurrentUser pulls the authenticated user out of the gin context
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(ContextUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}
