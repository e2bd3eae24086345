package processing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"notesum-backend/internal/documents"
	"notesum-backend/internal/extract"
	"notesum-backend/internal/failure"
	"notesum-backend/internal/queue"
	"notesum-backend/internal/shared/metrics"
	"notesum-backend/internal/shared/telemetry"
	"notesum-backend/internal/summaries"
	"notesum-backend/internal/summarize"
)

// ErrQueueNotConfigured is returned by Enqueue when no queue client is wired.
var ErrQueueNotConfigured = errors.New("processing queue not configured")

// errAbandoned stops a shared run once every caller waiting on it has gone.
var errAbandoned = fmt.Errorf("processing abandoned: %w", context.Canceled)

// Summarizer is the part of summarize.Summarizer the orchestrator needs.
type Summarizer interface {
	Summarize(ctx context.Context, text string, opts summarize.Options) (summarize.Result, error)
	Chat(ctx context.Context, req summarize.ChatRequest) (string, error)
}

// Service runs documents through extract -> summarize -> persist.
type Service struct {
	Docs       documents.DocumentsRepo
	Summaries  summaries.Store
	Extractor  extract.Extractor
	Summarizer Summarizer
	// Queue is optional; without it asynchronous requests run in-process.
	Queue queue.Client

	group   singleflight.Group
	mu      sync.Mutex
	waiters map[string]map[*waiter]struct{}
}

type waiter struct{ ctx context.Context }

// Outcome is the result of a processing run. Summary is nil when the document
// had nothing to summarize.
type Outcome struct {
	Document documents.Document
	Summary  *summaries.Summary
	// Empty marks a legitimately empty extraction; Message says why.
	Empty    bool
	Message  string
	Warnings []string
	// Persisted is false when the summary was generated but could not be stored.
	Persisted bool
}

// ProcessDocument summarizes a document owned by userID. An existing summary is
// returned unchanged. Concurrent calls for the same document share one run.
func (s *Service) ProcessDocument(ctx context.Context, userID, documentID string) (Outcome, error) {
	return s.run(ctx, userID, documentID, false)
}

// Regenerate re-extracts and re-summarizes, replacing any existing summary.
func (s *Service) Regenerate(ctx context.Context, userID, documentID string) (Outcome, error) {
	return s.run(ctx, userID, documentID, true)
}

// run joins or starts the shared run for the document. The run itself never
// inherits a caller's cancellation; it only stops between stages once every
// waiting caller is gone.
func (s *Service) run(ctx context.Context, userID, documentID string, force bool) (Outcome, error) {
	key := "process:" + documentID
	if force {
		key = "regenerate:" + documentID
	}
	leave := s.join(ctx, key)
	defer leave()

	for {
		doc, err := s.ownedDocument(ctx, userID, documentID)
		if err != nil {
			return Outcome{}, err
		}
		v, err, shared := s.group.Do(key, func() (any, error) {
			return s.process(context.WithoutCancel(ctx), doc, force, func() error { return s.abandoned(key) })
		})
		if shared {
			telemetry.Debug("processing.shared_run", map[string]any{"document_id": doc.ID, "force": force})
		}
		if errors.Is(err, errAbandoned) {
			if cerr := ctx.Err(); cerr != nil {
				return Outcome{}, cerr
			}
			// Joined just as the previous callers left; start a fresh run.
			continue
		}
		if err != nil {
			return Outcome{}, err
		}
		return v.(Outcome), nil
	}
}

func (s *Service) join(ctx context.Context, key string) func() {
	w := &waiter{ctx: ctx}
	s.mu.Lock()
	if s.waiters == nil {
		s.waiters = make(map[string]map[*waiter]struct{})
	}
	if s.waiters[key] == nil {
		s.waiters[key] = make(map[*waiter]struct{})
	}
	s.waiters[key][w] = struct{}{}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.waiters[key], w)
		if len(s.waiters[key]) == 0 {
			delete(s.waiters, key)
		}
		s.mu.Unlock()
	}
}

// abandoned returns errAbandoned when no caller waiting on key is still live.
func (s *Service) abandoned(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for w := range s.waiters[key] {
		if w.ctx.Err() == nil {
			return nil
		}
	}
	return errAbandoned
}

// process runs the stages in order on work, which carries no cancellation.
// Stages already started always finish; gate is consulted before each new one.
func (s *Service) process(work context.Context, doc documents.Document, force bool, gate func() error) (Outcome, error) {
	startedAt := time.Now()
	fields := func(extra map[string]any) map[string]any {
		out := map[string]any{
			"request_id":  telemetry.RequestIDFromContext(work),
			"user_id":     doc.UserID,
			"document_id": doc.ID,
			"source_type": string(doc.SourceType),
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	if !force {
		existing, err := s.Summaries.Get(work, doc.ID)
		if err == nil {
			telemetry.Info("processing.reused", fields(nil))
			return Outcome{Document: doc, Summary: &existing, Persisted: true}, nil
		}
		if !failure.Is(err, failure.NotFound) {
			return Outcome{}, fmt.Errorf("summary lookup: %w", err)
		}
	}

	text, warnings, err := s.transcript(work, &doc, force, gate, fields)
	if errors.Is(err, errAbandoned) {
		return Outcome{}, err
	}
	if err != nil {
		s.fail(doc, err, startedAt, fields)
		return Outcome{}, err
	}

	if strings.TrimSpace(text) == "" {
		metrics.IncDocumentsEmpty()
		telemetry.Info("processing.status", fields(map[string]any{
			"status":            string(documents.StatusTextExtracted),
			"status_transition": "extracted->empty",
			"warnings":          warnings,
			"duration_ms":       metrics.SinceMillis(startedAt),
		}))
		return Outcome{Document: doc, Empty: true, Message: emptyMessage(doc.SourceType), Warnings: warnings}, nil
	}

	if err := gate(); err != nil {
		return Outcome{}, err
	}
	result, err := s.Summarizer.Summarize(work, text, summarize.Options{SourceType: doc.SourceType, Title: doc.Title})
	if err != nil {
		s.fail(doc, err, startedAt, fields)
		return Outcome{}, err
	}

	summary := summaries.Summary{
		DocumentID:  doc.ID,
		UserID:      doc.UserID,
		Content:     result.Content,
		KeyPoints:   result.KeyPoints,
		WordCount:   result.WordCount,
		Overview:    result.Overview,
		Sections:    result.Sections,
		ChatOptions: result.ChatOptions,
		SourceType:  doc.SourceType,
		SourceTitle: doc.Title,
	}
	if doc.IsRemote() {
		summary.SourceURL = doc.SourceLocation
	}

	out := Outcome{Document: doc, Warnings: warnings}
	stored, err := s.persist(work, summary, force)
	if err != nil {
		metrics.IncSummariesPersistFailed()
		telemetry.Error("processing.persist_failed", fields(map[string]any{"error": err.Error()}))
		out.Summary = &summary
		return out, nil
	}
	out.Summary = &stored
	out.Persisted = true

	if err := s.markSummarized(work, doc, stored.Content, force); err != nil {
		telemetry.Error("processing.status_update_failed", fields(map[string]any{"error": err.Error()}))
	} else {
		out.Document.Status = documents.StatusSummarized
		out.Document.SummaryText = stored.Content
	}

	elapsed := metrics.SinceMillis(startedAt)
	metrics.IncDocumentsProcessed()
	metrics.ObserveProcessingDurationMs(elapsed)
	telemetry.Info("processing.status", fields(map[string]any{
		"status":            string(documents.StatusSummarized),
		"status_transition": "text_extracted->summarized",
		"word_count":        stored.WordCount,
		"regenerated":       force,
		"duration_ms":       elapsed,
	}))
	return out, nil
}

// transcript returns the stored transcript when extraction already ran, and
// extracts otherwise. Regeneration always re-extracts, but an empty
// re-extraction leaves the stored transcript in place for chat.
func (s *Service) transcript(work context.Context, doc *documents.Document, force bool, gate func() error, fields func(map[string]any) map[string]any) (string, []string, error) {
	if !force && doc.Transcript != nil && strings.TrimSpace(*doc.Transcript) != "" {
		return *doc.Transcript, nil, nil
	}
	if err := gate(); err != nil {
		return "", nil, err
	}

	started := time.Now()
	res, err := s.Extractor.Extract(work, extract.Source{
		DocumentID: doc.ID,
		Type:       doc.SourceType,
		Location:   doc.SourceLocation,
	})
	if err != nil {
		return "", nil, err
	}
	if force && strings.TrimSpace(res.Text) == "" && doc.Transcript != nil && strings.TrimSpace(*doc.Transcript) != "" {
		telemetry.Warn("processing.empty_reextraction", fields(map[string]any{"kept_chars": len(*doc.Transcript)}))
		return "", res.Warnings, nil
	}
	if err := s.Docs.SaveTranscript(work, doc.ID, res.Text, res.Title); err != nil {
		return "", nil, fmt.Errorf("save transcript: %w", err)
	}

	text := res.Text
	doc.Transcript = &text
	if doc.Title == "" {
		doc.Title = res.Title
	}
	transition := string(doc.Status) + "->" + string(documents.StatusTextExtracted)
	if doc.Status.Before(documents.StatusTextExtracted) {
		doc.Status = documents.StatusTextExtracted
	}
	telemetry.Info("processing.status", fields(map[string]any{
		"status":            string(documents.StatusTextExtracted),
		"status_transition": transition,
		"chars":             len(res.Text),
		"duration_ms":       metrics.SinceMillis(started),
	}))
	return res.Text, res.Warnings, nil
}

func (s *Service) persist(ctx context.Context, summary summaries.Summary, force bool) (summaries.Summary, error) {
	if force {
		return s.Summaries.Replace(ctx, summary)
	}
	stored, created, err := s.Summaries.Create(ctx, summary)
	if err != nil {
		return summaries.Summary{}, err
	}
	if !created {
		telemetry.Info("processing.create_conflict", map[string]any{"document_id": summary.DocumentID, "summary_id": stored.ID})
	}
	return stored, nil
}

func (s *Service) markSummarized(ctx context.Context, doc documents.Document, content string, force bool) error {
	if err := s.Docs.UpdateStatus(ctx, doc.ID, documents.StatusSummarized, &content); err != nil {
		return err
	}
	if force && doc.Status == documents.StatusSummarized {
		return s.Docs.SetSummaryText(ctx, doc.ID, content)
	}
	return nil
}

func (s *Service) fail(doc documents.Document, err error, startedAt time.Time, fields func(map[string]any) map[string]any) {
	metrics.IncDocumentsFailed()
	telemetry.Error("processing.status", fields(map[string]any{
		"status":            "failed",
		"status_transition": string(doc.Status) + "->failed",
		"error_kind":        string(failure.KindOf(err)),
		"retryable":         failure.Retryable(err),
		"error":             err.Error(),
		"duration_ms":       metrics.SinceMillis(startedAt),
	}))
}

// GetSummary returns the stored summary of a document owned by userID.
func (s *Service) GetSummary(ctx context.Context, userID, documentID string) (summaries.Summary, error) {
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return summaries.Summary{}, err
	}
	return s.Summaries.Get(ctx, doc.ID)
}

// EditSummary overwrites the summary content and re-derives its structure
// without calling the LLM. WordCount keeps measuring the original input.
func (s *Service) EditSummary(ctx context.Context, userID, documentID, content string) (summaries.Summary, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return summaries.Summary{}, failure.New(failure.InvalidInput, "processing.edit", "content is required")
	}
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return summaries.Summary{}, err
	}
	existing, err := s.Summaries.Get(ctx, doc.ID)
	if err != nil {
		return summaries.Summary{}, err
	}

	structured := summarize.Structure(content, existing.SourceType)
	existing.Content = content
	existing.KeyPoints = structured.KeyPoints
	existing.Overview = structured.Overview
	existing.Sections = structured.Sections

	updated, err := s.Summaries.Replace(ctx, existing)
	if err != nil {
		return summaries.Summary{}, err
	}
	if err := s.Docs.SetSummaryText(ctx, doc.ID, content); err != nil {
		telemetry.Warn("processing.summary_text_failed", map[string]any{"document_id": doc.ID, "error": err.Error()})
	}
	telemetry.Info("processing.edited", map[string]any{"document_id": doc.ID, "user_id": userID})
	return updated, nil
}

// DeleteSummary removes the summary and returns the document to pending.
func (s *Service) DeleteSummary(ctx context.Context, userID, documentID string) error {
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if err := s.Summaries.Delete(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.Docs.ResetStatus(ctx, doc.ID); err != nil {
		return err
	}
	telemetry.Info("processing.status", map[string]any{
		"user_id":           userID,
		"document_id":       doc.ID,
		"source_type":       string(doc.SourceType),
		"status":            string(documents.StatusPending),
		"status_transition": string(doc.Status) + "->pending",
	})
	return nil
}

// DeleteDocument removes the document together with its summary.
func (s *Service) DeleteDocument(ctx context.Context, userID, documentID string) error {
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if err := s.Summaries.Delete(ctx, doc.ID); err != nil && !errors.Is(err, summaries.ErrNotFound) {
		return err
	}
	return s.Docs.Delete(ctx, userID, doc.ID)
}

// ListItem is a summary joined with its document for listings.
type ListItem struct {
	Summary summaries.Summary
	Title   string
	// Status is empty when the document has since been deleted.
	Status documents.Status
}

// ListSummaries returns the user's summaries, newest first, with the document
// title where the document still exists.
func (s *Service) ListSummaries(ctx context.Context, userID string, limit, offset int) ([]ListItem, error) {
	list, err := s.Summaries.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]ListItem, 0, len(list))
	for _, sum := range list {
		item := ListItem{Summary: sum, Title: sum.SourceTitle}
		doc, err := s.Docs.GetByID(ctx, sum.DocumentID)
		switch {
		case err == nil:
			item.Status = doc.Status
			if doc.Title != "" {
				item.Title = doc.Title
			}
		case errors.Is(err, documents.ErrNotFound):
		default:
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Chat answers a question grounded in the document transcript and summary.
// History is supplied by the client and never stored.
func (s *Service) Chat(ctx context.Context, userID, documentID, question string, history []summarize.Turn) (string, error) {
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return "", err
	}
	req := summarize.ChatRequest{
		Title:      doc.Title,
		SourceType: doc.SourceType,
		History:    history,
		Question:   question,
	}
	if doc.Transcript != nil {
		req.Transcript = *doc.Transcript
	}
	if sum, err := s.Summaries.Get(ctx, doc.ID); err == nil {
		req.Summary = sum.Content
	} else if !errors.Is(err, summaries.ErrNotFound) {
		return "", err
	} else {
		req.Summary = doc.SummaryText
	}
	return s.Summarizer.Chat(ctx, req)
}

// Enqueue schedules processing on the worker queue.
func (s *Service) Enqueue(ctx context.Context, userID, documentID string, force bool) (documents.Document, error) {
	if s.Queue == nil {
		return documents.Document{}, ErrQueueNotConfigured
	}
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return documents.Document{}, err
	}
	msg := queue.Message{
		DocumentID: doc.ID,
		UserID:     doc.UserID,
		RequestID:  telemetry.RequestIDFromContext(ctx),
		Force:      force,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		return documents.Document{}, fmt.Errorf("enqueue document: %w", err)
	}
	telemetry.Info("processing.enqueued", map[string]any{
		"request_id":  msg.RequestID,
		"document_id": doc.ID,
		"force":       force,
	})
	return doc, nil
}

// ProcessQueued runs a job taken off the worker queue.
func (s *Service) ProcessQueued(ctx context.Context, msg queue.Message) error {
	ctx = telemetry.WithRequestID(ctx, msg.RequestID)
	var err error
	if msg.Force {
		_, err = s.Regenerate(ctx, msg.UserID, msg.DocumentID)
	} else {
		_, err = s.ProcessDocument(ctx, msg.UserID, msg.DocumentID)
	}
	return err
}

func (s *Service) ownedDocument(ctx context.Context, userID, documentID string) (documents.Document, error) {
	if strings.TrimSpace(documentID) == "" {
		return documents.Document{}, failure.New(failure.InvalidInput, "processing", "document id is required")
	}
	doc, err := s.Docs.GetByID(ctx, documentID)
	if err != nil {
		return documents.Document{}, err
	}
	if doc.UserID != userID {
		return documents.Document{}, documents.ErrNotFound
	}
	return doc, nil
}

func emptyMessage(st extract.SourceType) string {
	switch st {
	case extract.SourceYouTube:
		return failure.MessageNoTranscript
	case extract.SourceAudio:
		return failure.MessageEmptyAudio
	case extract.SourceArticle:
		return failure.MessageNotReadable
	default:
		return failure.MessageEmptyPDF
	}
}
