package http

import (
	"errors"
	"net/http"
	"strings"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/domain"
	"github.com/gin-gonic/gin"
)

const userKey = "authUser"

// RequireUser resolves the bearer token to a user and stores it on the context.
// With allowQuery the token may also come from the "token" query parameter, which
// browsers need for WebSocket upgrades.
func RequireUser(auth *app.AuthService, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrTokenExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token expired"})
			return
		case errors.Is(err, domain.ErrUnauthorized):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		case errors.Is(err, domain.ErrUserNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		default:
			writeError(c, "message", err)
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func currentUser(c *gin.Context) domain.User {
	v, _ := c.Get(userKey)
	user, _ := v.(domain.User)
	return user
}
