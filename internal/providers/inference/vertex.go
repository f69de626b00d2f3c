package inference

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/googleapi"

	"github.com/tonesense/tonesense/internal/utils"
)

// Vertex talks to Gemini through Vertex AI (ADC auth). Vertex accepts audio
// inline, so there is no upload/poll phase and nothing to clean up.
type Vertex struct {
	client *vertexgenai.Client
	model  string
}

func NewVertex(ctx context.Context, projectID, location, modelName string) (*Vertex, error) {
	const op = "inference.NewVertex"

	if projectID == "" {
		return nil, utils.E(utils.CodeConfig, op, "VERTEX_PROJECT_ID not configured", nil)
	}
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, utils.E(utils.CodeConfig, op, "failed to create Vertex client", err)
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	return &Vertex{client: c, model: modelName}, nil
}

func (v *Vertex) Close() error { return v.client.Close() }

func (v *Vertex) Ping(ctx context.Context) error {
	m := v.client.GenerativeModel(v.model)
	if _, err := m.CountTokens(ctx, vertexgenai.Text("ping")); err != nil {
		return classifyVertex("inference.Vertex.Ping", err)
	}
	return nil
}

func (v *Vertex) Analyze(ctx context.Context, audioData []byte, mimeType, prompt string, params GenerationParams) (string, error) {
	const op = "inference.Vertex.Analyze"

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m := v.client.GenerativeModel(v.model)
	if params.Temperature > 0 {
		m.SetTemperature(params.Temperature)
	}
	if params.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(params.MaxOutputTokens)
	}

	resp, err := m.GenerateContent(ctx,
		vertexgenai.Blob{MIMEType: mimeType, Data: audioData},
		vertexgenai.Text(prompt),
	)
	if err != nil {
		return "", classifyVertex(op, err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String(), nil
}

func classifyVertex(op string, err error) error {
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
	return utils.E(utils.CodeUnavailable, op, "provider call failed", err)
}
