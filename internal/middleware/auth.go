package middleware

import (
	"context"
	"net/http"
	"strings"

	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware and OptionalAuth.
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// AccountChecker reports whether a user may still use the API. A missing user is
// reported as inactive.
type AccountChecker interface {
	IsActive(ctx context.Context, userID uint) (bool, error)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// ok is false when the header is present but malformed.
func bearerToken(c *gin.Context) (token string, present, ok bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false, true
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true, false
	}
	return parts[1], true, true
}

// AuthMiddleware validates JWT access token from Authorization header.
// With a non-nil accounts checker, tokens of disabled or deleted users are
// refused before they expire.
func AuthMiddleware(accounts AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, ok := bearerToken(c)
		if !present {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
			c.Abort()
			return
		}

		claims, err := utils.ValidateAccessToken(token)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		if accounts != nil {
			active, err := accounts.IsActive(c.Request.Context(), claims.UserID)
			if err != nil {
				_ = c.Error(err)
				c.Abort()
				return
			}
			if !active {
				utils.ErrorResponse(c, http.StatusUnauthorized, "Account is disabled")
				c.Abort()
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent and lets anonymous
// requests through. A bad token is treated as anonymous.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, present, ok := bearerToken(c); present && ok {
			if claims, err := utils.ValidateAccessToken(token); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextRole, claims.Role)
			}
		}
		c.Next()
	}
}

// RequireRoles lets the request through only for the listed roles
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			utils.ErrorResponse(c, http.StatusForbidden, "You do not have permission to access this resource")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin checks if the authenticated user has admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles("admin")
}
