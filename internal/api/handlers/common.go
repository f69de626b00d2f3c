package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tonesense/tonesense/internal/utils"
)

// APIError is the wire shape for every failure: a short kind, a safe human
// message, and a diagnostic string for operators. Internal stack traces
// never reach the message field.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func safeMessage(err error) string {
	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "An unexpected error occurred"
}

func writeError(c *gin.Context, err error) {
	c.JSON(utils.HTTPStatus(err), APIError{
		Error:   utils.ErrKind(err),
		Message: safeMessage(err),
		Details: utils.Details(err),
	})
}
