package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tonesense/tonesense/internal/audio"
	"github.com/tonesense/tonesense/internal/emotion"
	"github.com/tonesense/tonesense/internal/metrics"
	"github.com/tonesense/tonesense/internal/models"
	"github.com/tonesense/tonesense/internal/providers/inference"
	"github.com/tonesense/tonesense/internal/session"
	"github.com/tonesense/tonesense/internal/utils"
)

// analysisPrompt asks the model for the fixed schema the extractor and
// normalizer expect. The canonical emotion list here and
// models.CanonicalEmotions must stay in sync.
const analysisPrompt = `Analyze the emotion in this audio. Be CONCISE and respond ONLY with valid JSON (no markdown):
{
    "emotion": "one of: happy, sad, angry, fearful, surprised, neutral, confident, nervous, calm, frustrated, excited",
    "confidence": 0.0-1.0,
    "voice_features": {
        "pitch": "low/medium/high",
        "pace": "slow/moderate/fast",
        "energy": "low/moderate/high",
        "clarity": "poor/fair/good/excellent"
    },
    "analysis": "one brief sentence about the emotional state"
}`

const defaultMIMEType = "audio/webm"

// AnalysisService runs one chunk through the pipeline: decode, provider
// call, extraction, normalization, session recording.
type AnalysisService interface {
	// AnalyzeChunk analyzes one streamed chunk for sessionID. skipped is
	// true (with a nil result) for a payload under the size threshold; the
	// caller should simply await the next chunk. A provider timeout
	// degrades to a recorded neutral fallback rather than an error, so a
	// continuous chunk stream never stalls.
	AnalyzeChunk(ctx context.Context, sessionID, payload string) (result *models.AnalysisResult, skipped bool, err error)

	// AnalyzeOnce is the one-shot path: no session recording, and a
	// provider timeout is surfaced as an error.
	AnalyzeOnce(ctx context.Context, payload string) (*models.AnalysisResult, error)

	// EndSession removes stored history for sessionID. Idempotent; it does
	// not abort an in-flight provider call.
	EndSession(sessionID string)

	// SessionSnapshot returns a copy of the rolling history, or nil when
	// the session is unknown.
	SessionSnapshot(sessionID string) *models.Session
}

type analysisService struct {
	provider inference.Provider
	store    *session.Store
	logger   *logrus.Logger
	metrics  *metrics.Metrics

	backend       string // metrics label: "gemini" | "vertex"
	mimeType      string
	minChunkBytes int
	genParams     inference.GenerationParams
}

type AnalysisConfig struct {
	Backend         string
	MIMEType        string
	MinChunkBytes   int
	ProviderTimeout time.Duration
}

func NewAnalysisService(provider inference.Provider, store *session.Store, logger *logrus.Logger, m *metrics.Metrics, cfg AnalysisConfig) AnalysisService {
	if logger == nil {
		logger = logrus.New()
	}
	if m == nil {
		m = metrics.Default
	}
	if cfg.MIMEType == "" {
		cfg.MIMEType = defaultMIMEType
	}
	if cfg.MinChunkBytes <= 0 {
		cfg.MinChunkBytes = audio.DefaultMinChunkBytes
	}
	return &analysisService{
		provider:      provider,
		store:         store,
		logger:        logger,
		metrics:       m,
		backend:       cfg.Backend,
		mimeType:      cfg.MIMEType,
		minChunkBytes: cfg.MinChunkBytes,
		genParams: inference.GenerationParams{
			Temperature:     0.2,
			MaxOutputTokens: 256,
			Timeout:         cfg.ProviderTimeout,
		},
	}
}

func (s *analysisService) AnalyzeChunk(ctx context.Context, sessionID, payload string) (*models.AnalysisResult, bool, error) {
	const op = "AnalysisService.AnalyzeChunk"

	if sessionID == "" {
		sessionID = "default"
	}
	if s.provider == nil {
		return nil, false, utils.E(utils.CodeConfig, op, "API key not configured", nil)
	}

	chunk, err := audio.DecodePayload(payload)
	if err != nil {
		s.metrics.ChunksTotal.WithLabelValues("decode_error").Inc()
		return nil, false, utils.E(utils.CodeInvalidAudio, op, "Invalid audio data format", err)
	}
	if audio.TooSmall(chunk, s.minChunkBytes) {
		s.metrics.ChunksTotal.WithLabelValues("skipped").Inc()
		return nil, true, nil
	}
	s.metrics.ChunkBytesReceived.Add(float64(len(chunk)))

	result, err := s.infer(ctx, op, chunk)
	if err != nil {
		if utils.IsCode(err, utils.CodeTimeout) {
			// Degrade instead of stalling the stream: a recorded neutral
			// fallback keeps the UI fed and the session history moving.
			fb := neutralFallback()
			s.record(sessionID, fb)
			s.metrics.ChunksTotal.WithLabelValues("degraded").Inc()
			s.logger.WithField("session_id", sessionID).Warn("provider timeout, returning neutral fallback")
			return &fb, false, nil
		}
		s.metrics.ChunksTotal.WithLabelValues("failed").Inc()
		return nil, false, err
	}

	// Record before responding, so a client re-querying the session right
	// after this response is guaranteed to see it.
	s.record(sessionID, *result)
	s.metrics.ChunksTotal.WithLabelValues("ok").Inc()

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"emotion":    result.Emotion,
		"confidence": result.Confidence,
	}).Info("analysis complete")

	return result, false, nil
}

func (s *analysisService) AnalyzeOnce(ctx context.Context, payload string) (*models.AnalysisResult, error) {
	const op = "AnalysisService.AnalyzeOnce"

	if s.provider == nil {
		return nil, utils.E(utils.CodeConfig, op, "API key not configured", nil)
	}

	chunk, err := audio.DecodePayload(payload)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidAudio, op, "Invalid audio data format", err)
	}
	if audio.TooSmall(chunk, s.minChunkBytes) {
		return nil, utils.E(utils.CodeInvalidAudio, op, "audio payload too small to analyze", nil)
	}

	result, err := s.infer(ctx, op, chunk)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"emotion":    result.Emotion,
		"confidence": result.Confidence,
	}).Info("one-shot analysis complete")
	return result, nil
}

// infer runs provider call + extraction + normalization. Errors keep their
// taxonomy codes so the two entry points can apply their own timeout policy.
func (s *analysisService) infer(ctx context.Context, op string, chunk []byte) (*models.AnalysisResult, error) {
	start := time.Now()
	text, err := s.provider.Analyze(ctx, chunk, s.mimeType, analysisPrompt, s.genParams)
	s.metrics.ProviderLatency.WithLabelValues(s.backend).Observe(time.Since(start).Seconds())
	if err != nil {
		var ae *utils.AppError
		if errors.As(err, &ae) {
			s.metrics.ProviderErrors.WithLabelValues(string(ae.Code)).Inc()
			return nil, err
		}
		return nil, utils.E(utils.CodeInternal, op, "unexpected provider failure", err)
	}

	raw, err := emotion.Extract(text)
	if err != nil {
		return nil, err
	}
	result := emotion.Normalize(raw)
	return &result, nil
}

func (s *analysisService) record(sessionID string, result models.AnalysisResult) {
	s.store.Record(sessionID, result)
	s.metrics.SessionsActive.Set(float64(s.store.Len()))
}

func (s *analysisService) EndSession(sessionID string) {
	s.store.End(sessionID)
	s.metrics.SessionsActive.Set(float64(s.store.Len()))
	s.logger.WithField("session_id", sessionID).Info("session ended")
}

func (s *analysisService) SessionSnapshot(sessionID string) *models.Session {
	return s.store.Get(sessionID)
}

// neutralFallback is the renderable stand-in for a timed-out provider call.
// Confidence 0.3 marks it as weak signal without zeroing it out of the
// smoothing window.
func neutralFallback() models.AnalysisResult {
	return models.AnalysisResult{
		Emotion:       models.EmotionNeutral,
		Confidence:    0.3,
		VoiceFeatures: emotion.NormalizeFeatures(nil),
		Analysis:      "Analysis timed out; emotional state could not be determined for this chunk.",
		Degraded:      true,
	}
}
