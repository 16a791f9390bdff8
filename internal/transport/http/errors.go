package http

import (
	"errors"
	"log"
	"net/http"

	"ai-quiz-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// statusFor maps a domain error to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrDuplicateUser):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Score not found"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidAnswer):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrSessionState), errors.Is(err, domain.ErrAlreadySubmitted):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusInternalServerError, "Missing GOOGLE_API_KEY."
	case errors.Is(err, domain.ErrGenerationFormat),
		errors.Is(err, domain.ErrGenerationContract),
		errors.Is(err, domain.ErrEmptyQuiz):
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, domain.ErrDelivery):
		return http.StatusInternalServerError, "Failed to send email"
	}
	return http.StatusInternalServerError, "Server error"
}

// writeError renders err under key ("message" or "error", matching each route's contract).
func writeError(c *gin.Context, key string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{key: msg})
}
