// Package response writes the JSON envelopes shared by handlers and middleware.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
)

// Envelope wraps successful company and user payloads.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

// OK writes a success envelope.
func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err. Uncategorized errors become a generic 500 and are logged.
func Error(c *gin.Context, err error) {
	status, body := errorBody(c, err)
	c.JSON(status, body)
}

// Abort writes err and stops the handler chain.
func Abort(c *gin.Context, err error) {
	status, body := errorBody(c, err)
	c.AbortWithStatusJSON(status, body)
}

// InvalidRequest writes a 400 for malformed input.
func InvalidRequest(c *gin.Context, description string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success":           false,
		"error":             "invalid_request",
		"error_description": description,
	})
}

func errorBody(c *gin.Context, err error) (int, gin.H) {
	de, ok := domain.AsError(err)
	if !ok {
		zap.L().Error("request failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		return http.StatusInternalServerError, gin.H{
			"success":           false,
			"error":             "server_error",
			"error_description": "Internal server error.",
		}
	}
	return StatusFor(de.Kind), gin.H{
		"success":           false,
		"error":             string(de.Kind),
		"code":              de.Code,
		"error_description": de.Message,
	}
}
