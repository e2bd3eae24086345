package summaries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"notesum-backend/internal/extract"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var summaryColumns = []string{
	"id", "document_id", "user_id", "content", "key_points", "word_count", "overview",
	"sections", "chat_options", "source_type", "source_url", "source_title", "created_at", "updated_at",
}

// PGStore implements Store on Postgres. The unique document_id constraint is
// what makes concurrent creates for one document collapse to a single row.
type PGStore struct {
	DB *sql.DB
}

func (p *PGStore) Get(ctx context.Context, documentID string) (Summary, error) {
	query, args, err := psql.Select(summaryColumns...).
		From("summaries").
		Where(sq.Eq{"document_id": documentID}).
		Limit(1).
		ToSql()
	if err != nil {
		return Summary{}, err
	}
	s, err := scanSummary(p.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, ErrNotFound
		}
		return Summary{}, err
	}
	return s, nil
}

// Create inserts the summary unless one exists, in which case the existing row is returned.
func (p *PGStore) Create(ctx context.Context, s Summary) (Summary, bool, error) {
	const query = `
INSERT INTO summaries (
    id, document_id, user_id, content, key_points, word_count, overview,
    sections, chat_options, source_type, source_url, source_title, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
ON CONFLICT (document_id) DO NOTHING`

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	args, err := writeArgs(s)
	if err != nil {
		return Summary{}, false, err
	}
	res, err := p.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return Summary{}, false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return Summary{}, false, err
	}
	stored, err := p.Get(ctx, s.DocumentID)
	if err != nil {
		return Summary{}, false, err
	}
	return stored, inserted > 0, nil
}

// Replace upserts the summary, keeping the original id and created_at.
func (p *PGStore) Replace(ctx context.Context, s Summary) (Summary, error) {
	const query = `
INSERT INTO summaries (
    id, document_id, user_id, content, key_points, word_count, overview,
    sections, chat_options, source_type, source_url, source_title, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
ON CONFLICT (document_id) DO UPDATE SET
    content = EXCLUDED.content,
    key_points = EXCLUDED.key_points,
    word_count = EXCLUDED.word_count,
    overview = EXCLUDED.overview,
    sections = EXCLUDED.sections,
    chat_options = EXCLUDED.chat_options,
    source_type = EXCLUDED.source_type,
    source_url = EXCLUDED.source_url,
    source_title = EXCLUDED.source_title,
    updated_at = now()
RETURNING id, created_at, updated_at`

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	args, err := writeArgs(s)
	if err != nil {
		return Summary{}, err
	}
	if err := p.DB.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return Summary{}, err
	}
	return s, nil
}

func (p *PGStore) Delete(ctx context.Context, documentID string) error {
	res, err := p.DB.ExecContext(ctx, `DELETE FROM summaries WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PGStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Summary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query, args, err := psql.Select(summaryColumns...).
		From("summaries").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func writeArgs(s Summary) ([]any, error) {
	keyPoints, err := json.Marshal(nonNil(s.KeyPoints))
	if err != nil {
		return nil, fmt.Errorf("marshal key points: %w", err)
	}
	overview, err := json.Marshal(nonNil(s.Overview))
	if err != nil {
		return nil, fmt.Errorf("marshal overview: %w", err)
	}
	sections, err := json.Marshal(nonNilSections(s.Sections))
	if err != nil {
		return nil, fmt.Errorf("marshal sections: %w", err)
	}
	chatOptions, err := json.Marshal(nonNil(s.ChatOptions))
	if err != nil {
		return nil, fmt.Errorf("marshal chat options: %w", err)
	}
	return []any{
		s.ID,
		s.DocumentID,
		s.UserID,
		s.Content,
		string(keyPoints),
		s.WordCount,
		string(overview),
		string(sections),
		string(chatOptions),
		string(s.SourceType),
		s.SourceURL,
		s.SourceTitle,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (Summary, error) {
	var s Summary
	var sourceType string
	var keyPoints, overview, sections, chatOptions []byte
	if err := row.Scan(
		&s.ID,
		&s.DocumentID,
		&s.UserID,
		&s.Content,
		&keyPoints,
		&s.WordCount,
		&overview,
		&sections,
		&chatOptions,
		&sourceType,
		&s.SourceURL,
		&s.SourceTitle,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return Summary{}, err
	}
	s.SourceType = extract.SourceType(sourceType)
	for _, col := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"key_points", keyPoints, &s.KeyPoints},
		{"overview", overview, &s.Overview},
		{"sections", sections, &s.Sections},
		{"chat_options", chatOptions, &s.ChatOptions},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return Summary{}, fmt.Errorf("decode %s: %w", col.name, err)
		}
	}
	return s, nil
}

var _ Store = (*PGStore)(nil)
