package summarize

import (
	"context"
	"errors"
	"strings"

	"notesum-backend/internal/extract"
	"notesum-backend/internal/failure"
	"notesum-backend/internal/llm"
)

// Turn is one question and answer from the client's session history.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ChatRequest carries the document context and the new question. Nothing here is persisted.
type ChatRequest struct {
	Title      string
	SourceType extract.SourceType
	Transcript string
	Summary    string
	History    []Turn
	Question   string
}

// Chat answers a question using only the document's transcript and summary as context.
func (s *Summarizer) Chat(ctx context.Context, req ChatRequest) (string, error) {
	const op = "summarize.chat"
	if strings.TrimSpace(req.Question) == "" {
		return "", failure.New(failure.InvalidInput, op, "question is required")
	}
	if strings.TrimSpace(req.Transcript) == "" && strings.TrimSpace(req.Summary) == "" {
		return "", failure.New(failure.InputTooShort, op, "document has no text to answer from")
	}
	if s.LLM == nil {
		return "", failure.Wrap(failure.UpstreamError, op, llm.ErrNotConfigured)
	}

	answer, err := s.LLM.Complete(ctx, llm.Completion{
		System:      chatSystemPrompt,
		User:        buildChatPrompt(req, maxChatContext),
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		return "", failure.Wrap(failure.UpstreamError, op, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", failure.Wrap(failure.UpstreamError, op, errors.New("completion was empty"))
	}
	return answer, nil
}
