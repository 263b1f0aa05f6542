package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cryptocasino-backend/internal/models"
	"cryptocasino-backend/internal/services"
)

// SessionStore resolves session ids to live session records.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
}

// AuthMiddleware authenticates requests with a session JWT. A valid
// signature alone is not enough: the session id inside the token must
// still resolve to a live record, so logout and expiry take effect
// immediately regardless of the token's lifetime.
func AuthMiddleware(jwtService *services.JWTService, sessions SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			unauthorized(c, "authentication required")
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		session, err := sessions.GetSession(c.Request.Context(), claims.SessionID)
		if err != nil {
			unauthorized(c, "session expired or invalid")
			return
		}
		if session.Email != claims.Email {
			unauthorized(c, "session expired or invalid")
			return
		}

		c.Set("email", claims.Email)
		c.Set("session_id", claims.SessionID)

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie("session"); err == nil {
		return cookie
	}
	return c.Query("token")
}

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":  "unauthenticated",
		"error": message,
	})
	c.Abort()
}
