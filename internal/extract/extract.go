package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notesum-backend/internal/failure"
)

// SourceType identifies which extractor handles a document.
type SourceType string

const (
	SourcePDF     SourceType = "pdf"
	SourceYouTube SourceType = "youtube"
	SourceArticle SourceType = "article"
	SourceAudio   SourceType = "audio"
)

// ParseSourceType accepts the lower-case names above.
func ParseSourceType(raw string) (SourceType, bool) {
	switch st := SourceType(strings.ToLower(strings.TrimSpace(raw))); st {
	case SourcePDF, SourceYouTube, SourceArticle, SourceAudio:
		return st, true
	}
	return "", false
}

// Result is the normalized text produced by an extractor. An empty Text with a
// nil error means the source legitimately had nothing to extract.
type Result struct {
	Text            string   `json:"text"`
	Title           string   `json:"title,omitempty"`
	DurationSeconds int      `json:"durationSeconds,omitempty"`
	SourceURL       string   `json:"sourceUrl,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`

	Byline   string `json:"byline,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
	SiteName string `json:"siteName,omitempty"`
}

// Empty reports whether the result carries no usable text.
func (r Result) Empty() bool {
	return strings.TrimSpace(r.Text) == ""
}

// Location is where a stored document's bytes live.
type Location struct {
	StorageKey string
	URL        string
	MimeType   string
	Title      string
}

// Locator resolves a document ID to its stored location.
type Locator interface {
	Locate(ctx context.Context, documentID string) (Location, error)
}

// Signer issues short-lived download URLs for stored objects.
type Signer interface {
	SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
}

// Source names the document to extract.
type Source struct {
	DocumentID string
	Type       SourceType
	Location   string
}

// Extractor dispatches a Source to the matching extractor.
type Extractor interface {
	Extract(ctx context.Context, src Source) (Result, error)
}

// Router is the Extractor used by the processing service.
type Router struct {
	Article *ArticleExtractor
	YouTube *YouTubeExtractor
	PDF     *PDFExtractor
	Audio   *AudioExtractor
}

func (r *Router) Extract(ctx context.Context, src Source) (Result, error) {
	switch src.Type {
	case SourceArticle:
		if r.Article != nil {
			return r.Article.Extract(ctx, src.Location)
		}
	case SourceYouTube:
		if r.YouTube != nil {
			return r.YouTube.Extract(ctx, src.Location)
		}
	case SourcePDF:
		if r.PDF != nil {
			return r.PDF.Extract(ctx, src.DocumentID)
		}
	case SourceAudio:
		if r.Audio != nil {
			return r.Audio.Extract(ctx, src.DocumentID)
		}
	default:
		return Result{}, failure.New(failure.InvalidInput, "extract", fmt.Sprintf("unknown source type %q", src.Type))
	}
	return Result{}, fmt.Errorf("extract: no extractor configured for %s", src.Type)
}

var _ Extractor = (*Router)(nil)
