package failure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure by who caused it and whether retrying can help.
type Kind string

const (
	InvalidInput           Kind = "invalid_input"
	FetchFailed            Kind = "fetch_failed"
	UpstreamError          Kind = "upstream_error"
	ExtractionTooShort     Kind = "extraction_too_short"
	InputTooShort          Kind = "input_too_short"
	NoTranscriptAvailable  Kind = "no_transcript_available"
	ParseFailed            Kind = "parse_failed"
	UnsupportedAudioFormat Kind = "unsupported_audio_format"
	NotFound               Kind = "not_found"
	Internal               Kind = "internal"
)

// User-visible messages for terminal failures.
const (
	MessageNoTranscript = "Sorry, we can't extract audio or captions for this video"
	MessageEmptyPDF     = "This file could not be transcribed or summarized"
	MessageEmptyAudio   = "No speech could be transcribed from this recording"
	MessageNotReadable  = "We couldn't find readable article content at this link"
	MessageTooShort     = "There isn't enough content here to summarize"
	MessageInvalidInput = "The link or file you provided isn't supported"
	MessageFetchFailed  = "We couldn't reach that page right now, please try again"
	MessageUpstream     = "The summarization service is unavailable right now, please try again"
	MessageParseFailed  = "This PDF appears to be damaged and could not be read"
	MessageAudioFormat  = "This audio format isn't supported, try mp3, m4a, wav or webm"
	MessageNotFound     = "We couldn't find that document"
	MessageInternal     = "Something went wrong, please try again"
)

// Error is a classified failure carrying enough detail to diagnose upstream problems.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " status=%d", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a failure of the given kind.
func New(kind Kind, op, detail string) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

// Wrap classifies err. An already classified error keeps its kind and status.
func Wrap(kind Kind, op string, err error) *Error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Kind: existing.Kind, Op: op, Status: existing.Status, Err: err}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Upstream records a non-2xx response from a collaborator.
func Upstream(kind Kind, op string, status int, body string) *Error {
	return &Error{Kind: kind, Op: op, Status: status, Detail: truncate(strings.TrimSpace(body), 512)}
}

// KindOf returns the kind of err, Internal for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf returns the upstream HTTP status recorded on err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Retryable reports whether retrying the same call may succeed.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch KindOf(err) {
	case FetchFailed, UpstreamError:
	default:
		return false
	}
	status := StatusOf(err)
	switch {
	case status == 0, status >= 500:
		return true
	case status == http.StatusRequestTimeout, status == http.StatusGone, status == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// UserMessage maps err to the message shown to the user.
func UserMessage(err error) string {
	switch KindOf(err) {
	case InvalidInput:
		return MessageInvalidInput
	case FetchFailed:
		return MessageFetchFailed
	case UpstreamError:
		return MessageUpstream
	case ExtractionTooShort:
		return MessageNotReadable
	case InputTooShort:
		return MessageTooShort
	case NoTranscriptAvailable:
		return MessageNoTranscript
	case ParseFailed:
		return MessageParseFailed
	case UnsupportedAudioFormat:
		return MessageAudioFormat
	case NotFound:
		return MessageNotFound
	default:
		return MessageInternal
	}
}

// HTTPStatus maps err to the status code the API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case InvalidInput, UnsupportedAudioFormat:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case ExtractionTooShort, InputTooShort, NoTranscriptAvailable, ParseFailed:
		return http.StatusUnprocessableEntity
	case FetchFailed, UpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
