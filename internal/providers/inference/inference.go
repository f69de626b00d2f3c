// Package inference abstracts the remote model that performs the actual
// audio-to-emotion inference. Exactly one provider is configured per
// process; both implementations return the model's raw text, leaving
// extraction and normalization to the caller.
package inference

import (
	"context"
	"time"
)

// GenerationParams is the per-call generation budget.
type GenerationParams struct {
	Temperature     float32
	MaxOutputTokens int32
	// Timeout bounds the whole call, including any upload/poll phase. Zero
	// means DefaultTimeout.
	Timeout time.Duration
}

const DefaultTimeout = 15 * time.Second

type Provider interface {
	// Analyze submits audio plus an instruction template and returns the raw
	// text of the model's response. Failures carry a utils.AppError code:
	// AUTH, UNAVAILABLE, TIMEOUT, or INVALID_AUDIO.
	Analyze(ctx context.Context, audioData []byte, mimeType, prompt string, params GenerationParams) (string, error)

	// Ping is a lightweight connectivity probe for the status endpoint.
	Ping(ctx context.Context) error

	Close() error
}
