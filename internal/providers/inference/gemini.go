package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/tonesense/tonesense/internal/retry"
	"github.com/tonesense/tonesense/internal/utils"
)

// Gemini talks to the Gemini API (API-key auth). It uses the job-shaped
// Files flow: upload the chunk, poll the file to ACTIVE, generate against
// the file reference, and always delete the upload afterwards.
type Gemini struct {
	client *genai.Client
	model  string
	logger *logrus.Logger

	uploadAttempts int
	uploadDelay    time.Duration
	pollInterval   time.Duration

	// sleep and now are swapped for a virtual clock in tests.
	sleep retry.Sleeper
	now   func() time.Time
}

func NewGemini(ctx context.Context, apiKey, modelName string, logger *logrus.Logger) (*Gemini, error) {
	const op = "inference.NewGemini"

	if apiKey == "" {
		return nil, utils.E(utils.CodeConfig, op, "API key not configured", nil)
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, utils.E(utils.CodeConfig, op, "failed to create Gemini client", err)
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Gemini{
		client:         c,
		model:          modelName,
		logger:         logger,
		uploadAttempts: 2,
		uploadDelay:    500 * time.Millisecond,
		pollInterval:   800 * time.Millisecond,
		now:            time.Now,
	}, nil
}

func (g *Gemini) Close() error { return g.client.Close() }

func (g *Gemini) Ping(ctx context.Context) error {
	m := g.client.GenerativeModel(g.model)
	_, err := m.CountTokens(ctx, genai.Text("ping"))
	if err != nil {
		return g.classify("inference.Gemini.Ping", err)
	}
	return nil
}

func (g *Gemini) Analyze(ctx context.Context, audioData []byte, mimeType, prompt string, params GenerationParams) (string, error) {
	const op = "inference.Gemini.Analyze"

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	file, err := g.upload(ctx, audioData, mimeType)
	if err != nil {
		return "", err
	}
	// The uploaded handle is a remote artifact; release it on every exit
	// path. A cleanup failure is logged, never escalated.
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		if derr := g.client.DeleteFile(dctx, file.Name); derr != nil {
			g.logger.WithError(derr).WithField("file", file.Name).Warn("failed to delete uploaded audio file")
		}
	}()

	if err := g.awaitActive(ctx, file); err != nil {
		return "", err
	}

	m := g.client.GenerativeModel(g.model)
	if params.Temperature > 0 {
		m.SetTemperature(params.Temperature)
	}
	if params.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(params.MaxOutputTokens)
	}

	resp, err := m.GenerateContent(ctx, genai.FileData{URI: file.URI}, genai.Text(prompt))
	if err != nil {
		return "", g.classify(op, err)
	}
	return flattenResponse(resp), nil
}

// upload submits the chunk to the Files API. Only transient failures are
// retried; validation and auth failures abort immediately.
func (g *Gemini) upload(ctx context.Context, audioData []byte, mimeType string) (*genai.File, error) {
	const op = "inference.Gemini.upload"

	var file *genai.File
	err := retry.Do(ctx, g.uploadAttempts, g.uploadDelay, g.sleep, func() (bool, error) {
		f, uerr := g.client.UploadFile(ctx, "", bytes.NewReader(audioData), &genai.UploadFileOptions{MIMEType: mimeType})
		if uerr != nil {
			cerr := g.classify(op, uerr)
			return utils.IsCode(cerr, utils.CodeUnavailable), cerr
		}
		file = f
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// awaitActive polls the uploaded file until the service reports it ready.
// "Still processing" is not an error; running out of budget is surfaced as
// TIMEOUT so the caller can degrade instead of hanging.
func (g *Gemini) awaitActive(ctx context.Context, file *genai.File) error {
	const op = "inference.Gemini.awaitActive"

	if file.State == genai.FileStateActive {
		return nil
	}

	budget := DefaultTimeout
	if dl, ok := ctx.Deadline(); ok {
		budget = time.Until(dl)
	}

	err := retry.Poll(ctx, g.pollInterval, budget, g.sleep, g.now, func() (bool, error) {
		f, gerr := g.client.GetFile(ctx, file.Name)
		if gerr != nil {
			return false, g.classify(op, gerr)
		}
		switch f.State {
		case genai.FileStateActive:
			return true, nil
		case genai.FileStateFailed:
			return false, utils.E(utils.CodeInvalidAudio, op, "provider rejected the audio file", fmt.Errorf("file state %v", f.State))
		default:
			return false, nil
		}
	})
	if errors.Is(err, retry.ErrBudgetExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return utils.E(utils.CodeTimeout, op, "audio file did not become ready in time", err)
	}
	return err
}

// classify maps transport-level failures onto the analysis error taxonomy.
func (g *Gemini) classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return utils.E(utils.CodeTimeout, op, "provider call exceeded its budget", err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 401 || gerr.Code == 403:
			return utils.E(utils.CodeAuth, op, "provider rejected credentials", err)
		case gerr.Code == 400:
			return utils.E(utils.CodeInvalidAudio, op, "provider rejected the request", err)
		case gerr.Code == 429 || gerr.Code >= 500:
			return utils.E(utils.CodeUnavailable, op, "provider unavailable", err)
		}
	}
	// Treat opaque network failures as transient.
	return utils.E(utils.CodeUnavailable, op, "provider call failed", err)
}

func flattenResponse(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}
