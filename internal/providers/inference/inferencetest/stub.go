// Package inferencetest provides a canned in-memory Provider for tests.
package inferencetest

import (
	"context"

	"github.com/tonesense/tonesense/internal/providers/inference"
)

// Stub returns Response (or Err) for every Analyze call and counts calls.
type Stub struct {
	Response string
	Err      error
	PingErr  error

	Calls int

	// LastPrompt and LastMIMEType capture the most recent Analyze inputs.
	LastPrompt   string
	LastMIMEType string
}

var _ inference.Provider = (*Stub)(nil)

func (s *Stub) Analyze(_ context.Context, _ []byte, mimeType, prompt string, _ inference.GenerationParams) (string, error) {
	s.Calls++
	s.LastMIMEType = mimeType
	s.LastPrompt = prompt
	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}

func (s *Stub) Ping(context.Context) error { return s.PingErr }

func (s *Stub) Close() error { return nil }
