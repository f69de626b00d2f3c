package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tonesense/tonesense/internal/models"
	"github.com/tonesense/tonesense/internal/services"
	"github.com/tonesense/tonesense/internal/utils"
)

// WSHandler streams chunk analyses over a websocket: the client sends one
// audio_chunk message per recorded segment and receives one result message
// back. The provider call runs inline, so a slow chunk simply delays the
// next read.
type WSHandler struct {
	svc      services.AnalysisService
	logger   *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(svc services.AnalysisService, logger *logrus.Logger) *WSHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &WSHandler{
		svc:    svc,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type      string `json:"type"` // audio_chunk | end_session
	SessionID string `json:"session_id"`
	Audio     string `json:"audio"`
}

type wsResultMsg struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"session_id,omitempty"`
	Result    *models.AnalysisResult `json:"result,omitempty"`
	Skipped   bool                   `json:"skipped,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Message   string                 `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteJSON(v)
}

// Analyze is GET /ws/analyze upgraded to a websocket.
func (h *WSHandler) Analyze(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote a response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsResultMsg{Type: "error", Error: "Invalid Message", Message: "invalid json"})
			continue
		}

		switch msg.Type {
		case "audio_chunk":
			if msg.Audio == "" {
				_ = wc.writeJSON(wsResultMsg{Type: "error", Error: "Invalid Audio", Message: "No audio data provided"})
				continue
			}

			result, skipped, aerr := h.svc.AnalyzeChunk(c.Request.Context(), msg.SessionID, msg.Audio)
			if aerr != nil {
				_ = wc.writeJSON(wsResultMsg{
					Type:      "error",
					SessionID: msg.SessionID,
					Error:     utils.ErrKind(aerr),
					Message:   safeMessage(aerr),
				})
				continue
			}
			if skipped {
				_ = wc.writeJSON(wsResultMsg{Type: "skipped", SessionID: msg.SessionID, Skipped: true})
				continue
			}
			_ = wc.writeJSON(wsResultMsg{Type: "analysis_result", SessionID: msg.SessionID, Result: result})

		case "end_session":
			h.svc.EndSession(msg.SessionID)
			_ = wc.writeJSON(wsResultMsg{Type: "session_ended", SessionID: msg.SessionID, Message: "Session ended"})
			return

		default:
			_ = wc.writeJSON(wsResultMsg{Type: "error", Error: "Invalid Message", Message: "unknown message type"})
		}
	}
}
