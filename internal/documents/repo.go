package documents

import "context"

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	// SaveTranscript stores extracted text and advances a pending document to text_extracted.
	SaveTranscript(ctx context.Context, documentID, transcript, title string) error
	// UpdateStatus only moves forward; a document already at or past status is left alone.
	UpdateStatus(ctx context.Context, documentID string, status Status, summaryText *string) error
	// SetSummaryText overwrites the summary text of a summarized document without touching its status.
	SetSummaryText(ctx context.Context, documentID, summaryText string) error
	// ResetStatus returns the document to pending and clears the summary text.
	ResetStatus(ctx context.Context, documentID string) error
	Delete(ctx context.Context, userID, documentID string) error
}
