package llm

import (
	"context"
	"errors"

	"notesum-backend/internal/failure"
)

// Completion is one chat-completion request: a system prompt plus user content.
type Completion struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer produces a text completion. Failures carry the upstream status and body.
type Completer interface {
	Complete(ctx context.Context, req Completion) (string, error)
}

// Transcriber converts the audio file at path into flat text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// ErrNotConfigured is returned by the placeholder clients.
var ErrNotConfigured = errors.New("llm provider not configured")

// Placeholder stands in when no provider key is set (dev only).
type Placeholder struct{}

func (Placeholder) Complete(context.Context, Completion) (string, error) {
	return "", failure.Wrap(failure.UpstreamError, "llm.complete", ErrNotConfigured)
}

func (Placeholder) Transcribe(context.Context, string) (string, error) {
	return "", failure.Wrap(failure.UpstreamError, "llm.transcribe", ErrNotConfigured)
}
