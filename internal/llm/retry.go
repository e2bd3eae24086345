package llm

import (
	"context"
	"time"

	"notesum-backend/internal/shared/retry"
	"notesum-backend/internal/shared/telemetry"
)

type retryingCompleter struct {
	base   Completer
	policy retry.Policy
}

// WithRetry retries transient completion failures once after a short pause.
func WithRetry(base Completer) Completer {
	if base == nil {
		return nil
	}
	return retryingCompleter{base: base, policy: retry.Once}
}

func (r retryingCompleter) Complete(ctx context.Context, req Completion) (string, error) {
	var out string
	err := retry.Do(ctx, r.policy, retry.Transient, logRetry(ctx, "llm.complete"), func(ctx context.Context) error {
		var err error
		out, err = r.base.Complete(ctx, req)
		return err
	})
	return out, err
}

type retryingTranscriber struct {
	base   Transcriber
	policy retry.Policy
}

// WithTranscribeRetry retries transient transcription failures once.
func WithTranscribeRetry(base Transcriber) Transcriber {
	if base == nil {
		return nil
	}
	return retryingTranscriber{base: base, policy: retry.Once}
}

func (r retryingTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	var out string
	err := retry.Do(ctx, r.policy, retry.Transient, logRetry(ctx, "llm.transcribe"), func(ctx context.Context) error {
		var err error
		out, err = r.base.Transcribe(ctx, path)
		return err
	})
	return out, err
}

func logRetry(ctx context.Context, op string) retry.OnRetry {
	return func(attempt int, delay time.Duration, err error) {
		telemetry.Warn("llm.retry", map[string]any{
			"op":         op,
			"attempt":    attempt,
			"delay_ms":   delay.Milliseconds(),
			"request_id": telemetry.RequestIDFromContext(ctx),
			"error":      err.Error(),
		})
	}
}
