package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/websitedesigna/tastygrill/common/auth"
	apperrors "github.com/websitedesigna/tastygrill/common/errors"
)

const (
	UserContextKey   = "userID"
	RoleContextKey   = "role"
	ClaimsContextKey = "claims"
	CartIDHeader     = "X-Cart-ID"
)

// Authenticator validates a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(UserContextKey, claims.UserID)
	c.Set(RoleContextKey, claims.Role)
	c.Set(ClaimsContextKey, claims)
}

// AuthMiddleware requires a valid access token.
func AuthMiddleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			apperrors.Abort(c, apperrors.Unauthorized("Authorization header required"))
			return
		}
		claims, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			apperrors.Abort(c, err)
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// WebSocketAuth also accepts the token as a "token" query parameter since
// browsers cannot set headers on a websocket handshake.
func WebSocketAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			apperrors.Abort(c, apperrors.Unauthorized("Authentication required"))
			return
		}
		claims, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			apperrors.Abort(c, err)
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the user when a valid token is present and lets
// anonymous requests through, so handlers can answer with their own
// sign-in redirect.
func OptionalAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, err := a.Authenticate(c.Request.Context(), token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleContextKey)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		apperrors.Abort(c, apperrors.Forbidden("Access denied"))
	}
}

// GetUserID returns the authenticated user, or an error for anonymous
// requests.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	id := c.GetString(UserContextKey)
	if id == "" {
		return uuid.Nil, errors.New("user ID not found in context")
	}
	return uuid.Parse(id)
}

func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsContextKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func CartID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(CartIDHeader))
}
