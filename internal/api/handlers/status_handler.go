package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tonesense/tonesense/internal/services"
)

type StatusHandler struct {
	svc services.StatusService
}

func NewStatusHandler(svc services.StatusService) *StatusHandler {
	return &StatusHandler{svc: svc}
}

// CheckStatus is GET /api/check-status. 500 when no provider is configured
// at all; otherwise 200 with the live probe result.
func (h *StatusHandler) CheckStatus(c *gin.Context) {
	configured, message := h.svc.Check(c.Request.Context())

	status := http.StatusOK
	if !configured && message == "API key not configured" {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{
		"configured": configured,
		"message":    message,
	})
}
