// Package middleware provides Gin HTTP middleware for authentication, rate
// limiting, security headers, request IDs, and metrics.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Recovery → RequestID → Metrics → Logger → CORS → Security → [RateLimit | Auth → RateLimit] → Handler
//
// RequestID runs early so every later log line can carry the ID. The public
// auth endpoints rate-limit by IP before any bcrypt work happens; the
// authenticated groups run Auth first so the limiter keys buckets by user ID
// instead of sharing one bucket per NAT.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mitojean/application-resume/internal/auth"
	"github.com/mitojean/application-resume/internal/db/repositories"
)

// Context keys set by AuthMiddleware.
const (
	// UserKey holds the full *models.User loaded for this request.
	UserKey = "user"
	// UserIDKey holds the authenticated user's ID string.
	UserIDKey = "user_id"
)

// AuthMiddleware validates the Bearer session token and loads the account it
// belongs to. The token is stateless (validation is a cryptographic check
// against the JWT secret) but the user row is loaded on every request so a
// deleted account is locked out immediately, not at token expiry.
func AuthMiddleware(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must start with 'Bearer '",
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is empty",
			})
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)

		c.Next()
	}
}
