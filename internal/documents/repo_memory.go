package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document // documentID -> document
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Status == "" {
		doc.Status = StatusPending
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = cloneDocument(doc)
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

// ListByUser returns documents for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	var docs []Document
	for _, doc := range r.data {
		if doc.UserID == userID {
			docs = append(docs, cloneDocument(doc))
		}
	}
	r.mu.RUnlock()

	if offset >= len(docs) {
		return []Document{}, nil
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	end := len(docs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

// SaveTranscript stores the extracted text.
func (r *MemoryRepo) SaveTranscript(ctx context.Context, documentID, transcript, title string) error {
	return r.update(ctx, documentID, func(doc *Document) {
		doc.Transcript = &transcript
		if doc.Title == "" {
			doc.Title = title
		}
		if doc.Status.Before(StatusTextExtracted) {
			doc.Status = StatusTextExtracted
		}
	})
}

// UpdateStatus advances the document status.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, documentID string, status Status, summaryText *string) error {
	return r.update(ctx, documentID, func(doc *Document) {
		if !doc.Status.Before(status) {
			return
		}
		doc.Status = status
		if summaryText != nil {
			doc.SummaryText = *summaryText
		}
	})
}

// SetSummaryText replaces the summary text.
func (r *MemoryRepo) SetSummaryText(ctx context.Context, documentID, summaryText string) error {
	return r.update(ctx, documentID, func(doc *Document) {
		doc.SummaryText = summaryText
	})
}

// ResetStatus returns the document to pending.
func (r *MemoryRepo) ResetStatus(ctx context.Context, documentID string) error {
	return r.update(ctx, documentID, func(doc *Document) {
		doc.Status = StatusPending
		doc.SummaryText = ""
	})
}

// Delete removes a document owned by userID.
func (r *MemoryRepo) Delete(ctx context.Context, userID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok || doc.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, documentID)
	return nil
}

func (r *MemoryRepo) update(ctx context.Context, documentID string, fn func(doc *Document)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok {
		return ErrNotFound
	}
	fn(&doc)
	doc.UpdatedAt = r.now()
	r.data[documentID] = doc
	return nil
}

func cloneDocument(doc Document) Document {
	if doc.Transcript != nil {
		t := *doc.Transcript
		doc.Transcript = &t
	}
	return doc
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
