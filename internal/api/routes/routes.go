package routes

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tonesense/tonesense/internal/api/handlers"
)

type Deps struct {
	Analysis *handlers.AnalysisHandler
	Status   *handlers.StatusHandler
	WS       *handlers.WSHandler

	// StaticDir holds the recorder page assets; empty disables static
	// serving.
	StaticDir string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"http://localhost:5000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/check-status", d.Status.CheckStatus)
	api.POST("/analyze-chunk", d.Analysis.AnalyzeChunk)
	api.POST("/analyze", d.Analysis.AnalyzeOnce)
	api.POST("/end-session", d.Analysis.EndSession)
	api.GET("/session/:session_id", d.Analysis.GetSession)

	// WebSocket
	r.GET("/ws/analyze", d.WS.Analyze)

	if d.StaticDir != "" {
		r.StaticFile("/", filepath.Join(d.StaticDir, "index.html"))
		r.StaticFile("/style.css", filepath.Join(d.StaticDir, "style.css"))
		r.StaticFile("/script.js", filepath.Join(d.StaticDir, "script.js"))
	}
}
