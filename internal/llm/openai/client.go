package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"notesum-backend/internal/failure"
	"notesum-backend/internal/llm"
	"notesum-backend/internal/shared/telemetry"
)

const (
	DefaultBaseURL         = "https://api.openai.com/v1"
	DefaultModel           = "gpt-4o-mini"
	DefaultTranscribeModel = "whisper-1"
)

// Options configures the OpenAI client.
type Options struct {
	APIKey            string
	BaseURL           string
	Model             string
	TranscribeModel   string
	Timeout           time.Duration
	TranscribeTimeout time.Duration
	// RatePerSecond caps outbound requests; 0 disables the limiter.
	RatePerSecond float64
}

// Client implements llm.Completer and llm.Transcriber on the OpenAI HTTP API.
type Client struct {
	apiKey          string
	baseURL         string
	model           string
	transcribeModel string
	httpClient      *http.Client
	transcribeHTTP  *http.Client
	limiter         *rate.Limiter
}

// NewClient constructs a new OpenAI client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.TranscribeModel == "" {
		opts.TranscribeModel = DefaultTranscribeModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.TranscribeTimeout <= 0 {
		opts.TranscribeTimeout = 300 * time.Second
	}
	c := &Client{
		apiKey:          opts.APIKey,
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		model:           opts.Model,
		transcribeModel: opts.TranscribeModel,
		httpClient:      &http.Client{Timeout: opts.Timeout},
		transcribeHTTP:  &http.Client{Timeout: opts.TranscribeTimeout},
	}
	if opts.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends a single chat completion.
func (c *Client) Complete(ctx context.Context, req llm.Completion) (string, error) {
	const op = "openai.complete"
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", failure.Wrap(failure.UpstreamError, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", failure.Wrap(failure.UpstreamError, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", failure.Upstream(failure.UpstreamError, op, resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", failure.Wrap(failure.UpstreamError, op, fmt.Errorf("parse response: %w", err))
	}
	if parsed.Error != nil {
		return "", failure.Upstream(failure.UpstreamError, op, resp.StatusCode, parsed.Error.Type+": "+parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", failure.New(failure.UpstreamError, op, "response missing completion content")
	}

	if parsed.Usage != nil {
		telemetry.Info("llm.usage", map[string]any{
			"model":             c.model,
			"request_id":        telemetry.RequestIDFromContext(ctx),
			"prompt_tokens":     parsed.Usage.PromptTokens,
			"completion_tokens": parsed.Usage.CompletionTokens,
			"total_tokens":      parsed.Usage.TotalTokens,
		})
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// Transcribe uploads the audio file and returns plain text.
func (c *Client) Transcribe(ctx context.Context, path string) (string, error) {
	const op = "openai.transcribe"
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("buffer audio: %w", err)
	}
	if err := mw.WriteField("model", c.transcribeModel); err != nil {
		return "", err
	}
	if err := mw.WriteField("response_format", "text"); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.transcribeHTTP.Do(httpReq)
	if err != nil {
		return "", failure.Wrap(failure.UpstreamError, op, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", failure.Wrap(failure.UpstreamError, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", failure.Upstream(failure.UpstreamError, op, resp.StatusCode, string(out))
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return failure.Wrap(failure.UpstreamError, "openai.rate_limit", err)
	}
	return nil
}

var (
	_ llm.Completer   = (*Client)(nil)
	_ llm.Transcriber = (*Client)(nil)
)
