package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	userIDKey   = "user_id"
	usernameKey = "username"
	claimsKey   = "claims"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// Authenticate resolves the caller from "Authorization: Token <jwt>" (or
// Bearer). Requests without the header continue anonymously, requests with an
// invalid token are rejected.
func Authenticate(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || token == "" || (!strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token header."})
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
			return
		}

		// Store user info in context
		c.Set(userIDKey, claims.UserID)
		c.Set(usernameKey, claims.Username)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUserID(c) == 0 {
			abortUnauthenticated(c)
			return
		}
		c.Next()
	}
}

// AuthenticatedOrReadOnly lets anyone read and requires a user for writes.
func AuthenticatedOrReadOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			if CurrentUserID(c) == 0 {
				abortUnauthenticated(c)
				return
			}
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id, 0 for anonymous requests.
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// CurrentClaims returns the claims of the presented token, nil for anonymous requests.
func CurrentClaims(c *gin.Context) *types.TokenClaims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*types.TokenClaims); ok {
			return claims
		}
	}
	return nil
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
}
