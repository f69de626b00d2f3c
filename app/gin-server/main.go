package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tonesense/tonesense/config"
	"github.com/tonesense/tonesense/internal/api/handlers"
	"github.com/tonesense/tonesense/internal/api/middleware"
	"github.com/tonesense/tonesense/internal/api/routes"
	"github.com/tonesense/tonesense/internal/logger"
	"github.com/tonesense/tonesense/internal/metrics"
	"github.com/tonesense/tonesense/internal/providers/inference"
	"github.com/tonesense/tonesense/internal/services"
	"github.com/tonesense/tonesense/internal/session"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Inference provider. A missing key does not kill the process: the
	// analysis routes answer with a config error and check-status reports
	// unconfigured, matching how a half-provisioned deploy should behave.
	var provider inference.Provider
	var err error
	switch cfg.InferenceBackend {
	case "vertex":
		provider, err = inference.NewVertex(ctx, cfg.VertexProjectID, cfg.VertexLocation, cfg.GeminiModel)
	default:
		provider, err = inference.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
	}
	if err != nil {
		log.WithError(err).Warn("inference provider not configured")
		provider = nil
	} else {
		defer provider.Close()
	}

	store := session.NewStore()
	m := metrics.Default

	analysisSvc := services.NewAnalysisService(provider, store, log, m, services.AnalysisConfig{
		Backend:         cfg.InferenceBackend,
		MinChunkBytes:   cfg.MinChunkBytes,
		ProviderTimeout: cfg.ProviderTimeout,
	})
	statusSvc := services.NewStatusService(provider, log)

	// Boot-time connectivity probe, informational only.
	if configured, msg := statusSvc.Check(ctx); !configured {
		log.WithField("message", msg).Warn("inference provider probe failed at startup")
	}

	sweeper := &session.Sweeper{
		Store:    store,
		Interval: cfg.SweepInterval,
		Timeout:  cfg.SessionTimeout,
		Logger:   log,
		OnSweep: func(removed int) {
			if removed > 0 {
				m.SessionsSwept.Add(float64(removed))
			}
			m.SessionsActive.Set(float64(store.Len()))
		},
	}
	go sweeper.Run(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Analysis:  handlers.NewAnalysisHandler(analysisSvc),
		Status:    handlers.NewStatusHandler(statusSvc),
		WS:        handlers.NewWSHandler(analysisSvc, log),
		StaticDir: cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if serr := srv.ListenAndServe(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			log.WithError(serr).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.WithError(serr).Error("shutdown error")
	}
}
