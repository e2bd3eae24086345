package documents

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"notesum-backend/internal/extract"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var documentColumns = []string{
	"id", "user_id", "title", "source_type", "source_location", "mime_type",
	"size_bytes", "status", "transcript", "summary", "created_at", "updated_at",
}

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    title,
    source_type,
    source_location,
    mime_type,
    size_bytes,
    status,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`

	status := doc.Status
	if status == "" {
		status = StatusPending
	}
	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.Title,
		string(doc.SourceType),
		doc.SourceLocation,
		doc.MimeType,
		doc.SizeBytes,
		string(status),
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a live document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query, args, err := psql.Select(documentColumns...).
		From("documents").
		Where(sq.Eq{"id": documentID}).
		Where("deleted_at IS NULL").
		Limit(1).
		ToSql()
	if err != nil {
		return Document{}, err
	}
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query, args, err := psql.Select(documentColumns...).
		From("documents").
		Where(sq.Eq{"user_id": userID}).
		Where("deleted_at IS NULL").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// SaveTranscript stores the extracted text; the title is only filled when empty.
func (r *PGRepo) SaveTranscript(ctx context.Context, documentID, transcript, title string) error {
	const query = `
UPDATE documents
SET transcript = $2,
    title = CASE WHEN title = '' THEN $3 ELSE title END,
    status = CASE WHEN status = 'pending' THEN 'text_extracted' ELSE status END,
    updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, documentID, transcript, title)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateStatus advances the status. Zero affected rows means the document was
// already at or past status, which is not an error.
func (r *PGRepo) UpdateStatus(ctx context.Context, documentID string, status Status, summaryText *string) error {
	stmt := psql.Update("documents").
		Set("status", string(status)).
		Set("updated_at", sq.Expr("now()"))
	if summaryText != nil {
		stmt = stmt.Set("summary", *summaryText)
	}
	query, args, err := stmt.
		Where(sq.Eq{"id": documentID, "status": statusesBefore(status)}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query, args...)
	return err
}

// SetSummaryText replaces the cached summary text after a regenerate or edit.
func (r *PGRepo) SetSummaryText(ctx context.Context, documentID, summaryText string) error {
	const query = `UPDATE documents SET summary = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, documentID, summaryText)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ResetStatus returns the document to pending and clears its summary text.
func (r *PGRepo) ResetStatus(ctx context.Context, documentID string) error {
	const query = `
UPDATE documents
SET status = 'pending', summary = NULL, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, documentID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete soft-deletes a document owned by userID.
func (r *PGRepo) Delete(ctx context.Context, userID, documentID string) error {
	const query = `
UPDATE documents
SET deleted_at = now()
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, documentID, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var sourceType, status string
	var transcript, summary sql.NullString
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Title,
		&sourceType,
		&doc.SourceLocation,
		&doc.MimeType,
		&doc.SizeBytes,
		&status,
		&transcript,
		&summary,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.SourceType = extract.SourceType(sourceType)
	doc.Status = Status(status)
	if transcript.Valid {
		doc.Transcript = &transcript.String
	}
	if summary.Valid {
		doc.SummaryText = summary.String
	}
	return doc, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ DocumentsRepo = (*PGRepo)(nil)
