package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesum-backend/internal/extract"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	doc := Document{
		ID:             "doc-1",
		UserID:         "user-1",
		Title:          "Lecture",
		SourceType:     extract.SourceAudio,
		SourceLocation: "abc/lecture.m4a",
		MimeType:       "audio/x-m4a",
		SizeBytes:      42,
		CreatedAt:      now,
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("doc-1", "user-1", "Lecture", "audio", "abc/lecture.m4a", "audio/x-m4a", int64(42), "pending", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), doc))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, user_id, .* FROM documents WHERE id = \$1 AND deleted_at IS NULL LIMIT 1`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(documentColumns).AddRow(
			"doc-1", "user-1", "Talk", "youtube", "https://youtu.be/dQw4w9WgXcQ", "", int64(0),
			"text_extracted", "hello transcript", nil, now, now,
		))

	doc, err := repo.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, extract.SourceYouTube, doc.SourceType)
	assert.Equal(t, StatusTextExtracted, doc.Status)
	require.NotNil(t, doc.Transcript)
	assert.Equal(t, "hello transcript", *doc.Transcript)
	assert.Empty(t, doc.SummaryText)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(documentColumns))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPGRepoListByUserClampsLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM documents WHERE user_id = \$1 AND deleted_at IS NULL ORDER BY created_at DESC LIMIT 100 OFFSET 0`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(documentColumns).
			AddRow("d2", "user-1", "B", "article", "https://a.test/b", "", int64(0), "pending", nil, nil, now, now).
			AddRow("d1", "user-1", "A", "pdf", "k/a.pdf", "application/pdf", int64(9), "summarized", "t", "s", now, now))

	docs, err := repo.ListByUser(context.Background(), "user-1", 500, -3)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Nil(t, docs[0].Transcript)
	assert.Equal(t, "s", docs[1].SummaryText)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoUpdateStatusOnlyAdvances(t *testing.T) {
	repo, mock := newMockRepo(t)
	summary := "the summary"
	mock.ExpectExec(`UPDATE documents SET status = \$1, updated_at = now\(\), summary = \$2 WHERE id = \$3 AND status IN \(\$4,\$5\) AND deleted_at IS NULL`).
		WithArgs("summarized", "the summary", "doc-1", "pending", "text_extracted").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateStatus(context.Background(), "doc-1", StatusSummarized, &summary))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoSaveTranscriptAndReset(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`SET transcript = \$2`).
		WithArgs("doc-1", "text", "Title").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SET status = 'pending', summary = NULL").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SaveTranscript(context.Background(), "doc-1", "text", "Title"))
	err := repo.ResetStatus(context.Background(), "doc-1")
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoDelete(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`SET deleted_at = now\(\)`).
		WithArgs("doc-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "user-1", "doc-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoSetSummaryText(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`UPDATE documents SET summary = \$2`).
		WithArgs("doc-1", "edited").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetSummaryText(context.Background(), "doc-1", "edited"))
	require.NoError(t, mock.ExpectationsWereMet())
}
