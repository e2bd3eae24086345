package documents

import "notesum-backend/internal/failure"

var (
	ErrNotFound     = failure.New(failure.NotFound, "documents", "document not found")
	ErrInvalidInput = failure.New(failure.InvalidInput, "documents", "invalid document input")
)

func invalid(detail string) error {
	return &failure.Error{Kind: failure.InvalidInput, Op: "documents", Detail: detail, Err: ErrInvalidInput}
}
