package summaries

import "context"

// Store persists summaries keyed by document.
type Store interface {
	Get(ctx context.Context, documentID string) (Summary, error)
	// Create is idempotent: when a summary already exists for the document it is
	// returned unchanged with created=false.
	Create(ctx context.Context, s Summary) (stored Summary, created bool, err error)
	// Replace overwrites the document's summary wholesale, creating it if absent.
	Replace(ctx context.Context, s Summary) (Summary, error)
	Delete(ctx context.Context, documentID string) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Summary, error)
}
