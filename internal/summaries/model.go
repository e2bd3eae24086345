package summaries

import (
	"time"

	"notesum-backend/internal/extract"
	"notesum-backend/internal/failure"
	"notesum-backend/internal/summarize"
)

// ErrNotFound is returned when a document has no summary.
var ErrNotFound = failure.New(failure.NotFound, "summaries", "summary not found")

// Summary is the persisted summary of one document. There is at most one per DocumentID.
type Summary struct {
	ID          string
	DocumentID  string
	UserID      string
	Content     string
	KeyPoints   []string
	WordCount   int
	Overview    []string
	Sections    []summarize.Section
	ChatOptions []string
	SourceType  extract.SourceType
	SourceURL   string
	SourceTitle string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Response is the JSON shape of a summary.
type Response struct {
	ID          string              `json:"id"`
	DocumentID  string              `json:"documentId"`
	Content     string              `json:"content"`
	KeyPoints   []string            `json:"keyPoints"`
	WordCount   int                 `json:"wordCount"`
	Overview    []string            `json:"overview"`
	Sections    []summarize.Section `json:"sections"`
	ChatOptions []string            `json:"chatOptions"`
	SourceType  string              `json:"sourceType"`
	SourceURL   string              `json:"sourceUrl,omitempty"`
	SourceTitle string              `json:"sourceTitle,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// ToResponse renders s with non-nil lists.
func ToResponse(s Summary) Response {
	return Response{
		ID:          s.ID,
		DocumentID:  s.DocumentID,
		Content:     s.Content,
		KeyPoints:   nonNil(s.KeyPoints),
		WordCount:   s.WordCount,
		Overview:    nonNil(s.Overview),
		Sections:    nonNilSections(s.Sections),
		ChatOptions: nonNil(s.ChatOptions),
		SourceType:  string(s.SourceType),
		SourceURL:   s.SourceURL,
		SourceTitle: s.SourceTitle,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func nonNilSections(items []summarize.Section) []summarize.Section {
	if items == nil {
		return []summarize.Section{}
	}
	return items
}
