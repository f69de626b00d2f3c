package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tonesense/tonesense/internal/services"
	"github.com/tonesense/tonesense/internal/utils"
)

type AnalysisHandler struct {
	svc services.AnalysisService
}

func NewAnalysisHandler(svc services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

type AnalyzeRequest struct {
	Audio     string `json:"audio"`
	SessionID string `json:"session_id"`
}

// AnalyzeChunk is POST /api/analyze-chunk: one streamed chunk in, one
// AnalysisResult (or skipped marker, or error object) out.
func (h *AnalysisHandler) AnalyzeChunk(c *gin.Context) {
	const op = "AnalysisHandler.AnalyzeChunk"

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Audio == "" {
		writeError(c, utils.E(utils.CodeInvalidAudio, op, "No audio data provided", err))
		return
	}

	result, skipped, err := h.svc.AnalyzeChunk(c.Request.Context(), req.SessionID, req.Audio)
	if err != nil {
		writeError(c, err)
		return
	}
	if skipped {
		c.JSON(http.StatusOK, gin.H{"skipped": true, "message": "audio chunk too small"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// AnalyzeOnce is POST /api/analyze: the non-chunked path. No session is
// touched and a provider timeout is an error here, not a fallback.
func (h *AnalysisHandler) AnalyzeOnce(c *gin.Context) {
	const op = "AnalysisHandler.AnalyzeOnce"

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Audio == "" {
		writeError(c, utils.E(utils.CodeInvalidAudio, op, "No audio data provided", err))
		return
	}

	result, err := h.svc.AnalyzeOnce(c.Request.Context(), req.Audio)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type EndSessionRequest struct {
	SessionID string `json:"session_id"`
}

// EndSession is POST /api/end-session. Deleting an unknown session is still
// success.
func (h *AnalysisHandler) EndSession(c *gin.Context) {
	var req EndSessionRequest
	_ = c.ShouldBindJSON(&req)
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	h.svc.EndSession(req.SessionID)
	c.JSON(http.StatusOK, gin.H{"message": "Session ended"})
}

// GetSession is GET /api/session/:session_id, exposing the rolling history
// so clients can verify record-then-respond ordering and do their own
// smoothing.
func (h *AnalysisHandler) GetSession(c *gin.Context) {
	sess := h.svc.SessionSnapshot(c.Param("session_id"))
	if sess == nil {
		c.JSON(http.StatusNotFound, APIError{
			Error:   "Not Found",
			Message: "session not found",
		})
		return
	}
	c.JSON(http.StatusOK, sess)
}
