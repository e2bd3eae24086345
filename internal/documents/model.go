package documents

import (
	"strings"
	"time"

	"notesum-backend/internal/extract"
)

// Status is the processing state of a document.
type Status string

const (
	StatusPending       Status = "pending"
	StatusTextExtracted Status = "text_extracted"
	StatusSummarized    Status = "summarized"
)

func (s Status) rank() int {
	switch s {
	case StatusTextExtracted:
		return 1
	case StatusSummarized:
		return 2
	default:
		return 0
	}
}

// Before reports whether s comes earlier in the lifecycle than other.
func (s Status) Before(other Status) bool {
	return s.rank() < other.rank()
}

// statusesBefore lists the states a document may advance to s from.
func statusesBefore(s Status) []string {
	var out []string
	for _, st := range []Status{StatusPending, StatusTextExtracted, StatusSummarized} {
		if st.Before(s) {
			out = append(out, string(st))
		}
	}
	return out
}

// Document is one unit of user-submitted content.
type Document struct {
	ID             string
	UserID         string
	Title          string
	SourceType     extract.SourceType
	SourceLocation string
	MimeType       string
	SizeBytes      int64
	Status         Status
	// Transcript is nil until extraction has run; an empty string means the
	// source had nothing to extract.
	Transcript  *string
	SummaryText string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRemote reports whether SourceLocation is a URL rather than a storage key.
func (d Document) IsRemote() bool {
	loc := strings.ToLower(d.SourceLocation)
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// HasTranscript reports whether extraction produced usable text.
func (d Document) HasTranscript() bool {
	return d.Transcript != nil && strings.TrimSpace(*d.Transcript) != ""
}

// Location maps the document to where its bytes live.
func (d Document) Location() extract.Location {
	loc := extract.Location{MimeType: d.MimeType, Title: d.Title}
	if d.IsRemote() {
		loc.URL = d.SourceLocation
	} else {
		loc.StorageKey = d.SourceLocation
	}
	return loc
}
