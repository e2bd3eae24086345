package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"notesum-backend/internal/extract"
	"notesum-backend/internal/failure"
	"notesum-backend/internal/llm"
	"notesum-backend/internal/shared/telemetry"
	"notesum-backend/internal/textnorm"
)

const (
	// MinInputChars is the shortest normalized text worth an LLM call.
	MinInputChars = 50

	defaultMaxTokens   = 1000
	defaultTemperature = 0.5
	maxInputRunes      = 60000
	maxChatContext     = 24000
	maxHistoryTurns    = 6
	chatMaxTokens      = 500
	chatTemperature    = 0.2
)

// Options describe the source being summarized.
type Options struct {
	SourceType extract.SourceType
	Title      string
}

// Result is a structured summary. WordCount is measured on the input text.
type Result struct {
	Content     string
	KeyPoints   []string
	Overview    []string
	Sections    []Section
	ChatOptions []string
	WordCount   int
}

// Summarizer turns extracted text into a structured summary through a completion backend.
type Summarizer struct {
	LLM         llm.Completer
	MaxTokens   int
	Temperature float64
}

// New builds a Summarizer. maxTokens <= 0 falls back to 1000 and a negative
// temperature to 0.5; a temperature of 0 is kept.
func New(completer llm.Completer, maxTokens int, temperature float64) *Summarizer {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if temperature < 0 {
		temperature = defaultTemperature
	}
	return &Summarizer{LLM: completer, MaxTokens: maxTokens, Temperature: temperature}
}

// Summarize fails with InputTooShort before any LLM call when text is trivial,
// and with UpstreamError when the completion fails or comes back empty.
func (s *Summarizer) Summarize(ctx context.Context, text string, opts Options) (Result, error) {
	const op = "summarize"
	normalized := textnorm.Collapse(text)
	if n := utf8.RuneCountInString(normalized); n < MinInputChars {
		return Result{}, failure.New(failure.InputTooShort, op, fmt.Sprintf("%d characters of input", n))
	}
	if s.LLM == nil {
		return Result{}, failure.Wrap(failure.UpstreamError, op, llm.ErrNotConfigured)
	}

	input := text
	if utf8.RuneCountInString(input) > maxInputRunes {
		telemetry.Warn("summarize.input_truncated", map[string]any{
			"source_type": string(opts.SourceType),
			"runes":       utf8.RuneCountInString(input),
			"kept":        maxInputRunes,
		})
		input = truncateRunes(input, maxInputRunes)
	}

	start := time.Now()
	completion, err := s.LLM.Complete(ctx, llm.Completion{
		System:      summarySystemPrompt,
		User:        buildSummaryPrompt(input, opts),
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
	})
	if err != nil {
		return Result{}, failure.Wrap(failure.UpstreamError, op, err)
	}
	content := strings.TrimSpace(completion)
	if content == "" {
		return Result{}, failure.Wrap(failure.UpstreamError, op, errors.New("completion was empty"))
	}

	structured := Structure(content, opts.SourceType)
	res := Result{
		Content:     content,
		KeyPoints:   structured.KeyPoints,
		Overview:    structured.Overview,
		Sections:    structured.Sections,
		ChatOptions: structured.ChatOptions,
		WordCount:   WordCount(text),
	}
	telemetry.Info("summarize.complete", map[string]any{
		"source_type":  string(opts.SourceType),
		"input_chars":  len(text),
		"word_count":   res.WordCount,
		"output_chars": len(content),
		"duration_ms":  time.Since(start).Milliseconds(),
	})
	return res, nil
}
