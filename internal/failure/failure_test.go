package failure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsExistingClassification(t *testing.T) {
	inner := Upstream(FetchFailed, "caption.fetch", http.StatusGone, "gone")
	wrapped := Wrap(Internal, "youtube.extract", fmt.Errorf("stage 2: %w", inner))

	assert.Equal(t, FetchFailed, KindOf(wrapped))
	assert.Equal(t, http.StatusGone, StatusOf(wrapped))
	assert.True(t, errors.Is(wrapped, inner))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: true},
		{name: "network failure", err: Wrap(FetchFailed, "get", errors.New("connection reset")), want: true},
		{name: "server error", err: Upstream(UpstreamError, "llm", 503, "busy"), want: true},
		{name: "rate limited", err: Upstream(UpstreamError, "llm", 429, "slow down"), want: true},
		{name: "caption churn", err: Upstream(FetchFailed, "caption", 410, ""), want: true},
		{name: "bad request", err: Upstream(UpstreamError, "llm", 400, "bad"), want: false},
		{name: "invalid input", err: New(InvalidInput, "article", "not http"), want: false},
		{name: "no transcript", err: New(NoTranscriptAvailable, "youtube", ""), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestUserMessageAndStatus(t *testing.T) {
	err := New(NoTranscriptAvailable, "youtube.fallback", "download failed")
	assert.Equal(t, MessageNoTranscript, UserMessage(err))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(err))

	assert.Equal(t, http.StatusBadRequest, HTTPStatus(New(UnsupportedAudioFormat, "audio", "")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(New(NotFound, "documents.get", "")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.Equal(t, MessageInternal, UserMessage(errors.New("boom")))
}

func TestErrorString(t *testing.T) {
	err := Upstream(UpstreamError, "openai.complete", 500, `{"error":"down"}`)
	assert.Equal(t, `openai.complete: upstream_error status=500: {"error":"down"}`, err.Error())
}
