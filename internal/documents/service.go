package documents

import (
	"context"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"notesum-backend/internal/extract"
	"notesum-backend/internal/shared/storage/object"
	"notesum-backend/internal/shared/telemetry"
)

// Service contains business logic for documents.
type Service struct {
	Store      object.ObjectStore
	Repo       DocumentsRepo
	Classifier *extract.Classifier
}

// Upload saves a PDF or audio file to object storage and records the document.
// declared may be empty, in which case the type comes from the file name or sniffed content type.
func (s *Service) Upload(ctx context.Context, userID, fileName, declared string, r io.Reader) (Document, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return Document{}, invalid("file name is required")
	}
	sourceType, err := uploadSourceType(declared, fileName)
	if err != nil {
		return Document{}, err
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, fileName, r)
	if err != nil {
		return Document{}, err
	}
	if sourceType == "" {
		sourceType = sourceTypeForMime(mimeType)
	}
	if sourceType == "" {
		telemetry.Warn("documents.upload_unsupported", map[string]any{"storage_key": storageKey, "mime_type": mimeType})
		return Document{}, invalid("only PDF and audio files can be uploaded")
	}

	now := time.Now().UTC()
	doc := Document{
		ID:             uuid.NewString(),
		UserID:         userID,
		Title:          strings.TrimSuffix(fileName, filepath.Ext(fileName)),
		SourceType:     sourceType,
		SourceLocation: storageKey,
		MimeType:       mimeType,
		SizeBytes:      size,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// CreateLink records a YouTube, article, or remote PDF/audio URL. An empty
// declared type is resolved by the classifier.
func (s *Service) CreateLink(ctx context.Context, userID, rawURL, declared, title string) (Document, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !extract.IsHTTPURL(rawURL) {
		return Document{}, invalid("url must be an absolute http or https link")
	}

	var sourceType extract.SourceType
	if strings.TrimSpace(declared) == "" {
		classified, err := s.classifier().Classify(rawURL)
		if err != nil {
			return Document{}, err
		}
		sourceType = classified
	} else {
		st, ok := extract.ParseSourceType(declared)
		if !ok {
			return Document{}, invalid("sourceType must be one of pdf, youtube, article, audio")
		}
		sourceType = st
	}
	if sourceType == extract.SourceYouTube && !extract.IsYouTubeURL(rawURL) {
		return Document{}, invalid("not a YouTube video link")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultLinkTitle(sourceType, rawURL)
	}

	now := time.Now().UTC()
	doc := Document{
		ID:             uuid.NewString(),
		UserID:         userID,
		Title:          title,
		SourceType:     sourceType,
		SourceLocation: rawURL,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Get returns a document owned by userID.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if strings.TrimSpace(documentID) == "" {
		return Document{}, invalid("document id is required")
	}
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}
	if doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// List returns the user's documents, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Delete removes a document owned by userID.
func (s *Service) Delete(ctx context.Context, userID, documentID string) error {
	return s.Repo.Delete(ctx, userID, documentID)
}

// Locate resolves a document to its stored location for the file extractors.
func (s *Service) Locate(ctx context.Context, documentID string) (extract.Location, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return extract.Location{}, err
	}
	return doc.Location(), nil
}

func (s *Service) classifier() *extract.Classifier {
	if s.Classifier == nil {
		s.Classifier = extract.NewClassifier(nil)
	}
	return s.Classifier
}

func uploadSourceType(declared, fileName string) (extract.SourceType, error) {
	if strings.TrimSpace(declared) != "" {
		st, ok := extract.ParseSourceType(declared)
		if !ok || (st != extract.SourcePDF && st != extract.SourceAudio) {
			return "", invalid("uploads must be pdf or audio")
		}
		return st, nil
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".pdf" {
		return extract.SourcePDF, nil
	}
	if ext != "" {
		if _, ok := extract.AudioExtension(ext); ok {
			return extract.SourceAudio, nil
		}
	}
	return "", nil
}

func sourceTypeForMime(mimeType string) extract.SourceType {
	mt := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch {
	case mt == "application/pdf":
		return extract.SourcePDF
	case strings.HasPrefix(mt, "audio/"), mt == "video/mp4", mt == "video/webm":
		if _, ok := extract.AudioExtension(mt); ok {
			return extract.SourceAudio
		}
	}
	return ""
}

func defaultLinkTitle(st extract.SourceType, rawURL string) string {
	switch st {
	case extract.SourceArticle:
		return extract.DomainName(rawURL)
	case extract.SourcePDF, extract.SourceAudio:
		if u, err := url.Parse(rawURL); err == nil {
			if base := path.Base(u.Path); base != "." && base != "/" {
				return strings.TrimSuffix(base, path.Ext(base))
			}
		}
		return extract.DomainName(rawURL)
	default:
		return ""
	}
}

var _ extract.Locator = (*Service)(nil)
