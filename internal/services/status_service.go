package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tonesense/tonesense/internal/providers/inference"
)

// StatusService answers the check-status endpoint: is a provider configured
// and currently reachable. It never touches emotion data.
type StatusService interface {
	Check(ctx context.Context) (configured bool, message string)
}

type statusService struct {
	provider inference.Provider
	logger   *logrus.Logger
}

func NewStatusService(provider inference.Provider, logger *logrus.Logger) StatusService {
	if logger == nil {
		logger = logrus.New()
	}
	return &statusService{provider: provider, logger: logger}
}

func (s *statusService) Check(ctx context.Context) (bool, string) {
	if s.provider == nil {
		return false, "API key not configured"
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.provider.Ping(ctx); err != nil {
		s.logger.WithError(err).Error("provider connectivity probe failed")
		return false, "API connection failed"
	}
	return true, "System ready"
}
