package processing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"notesum-backend/internal/documents"
	"notesum-backend/internal/extract"
	"notesum-backend/internal/summaries"
	"notesum-backend/internal/summarize"
)

const (
	lectureTranscript = "Today we walk through how distributed consensus works in practice. " +
		"We start with leader election and then move to log replication across a cluster of five nodes. " +
		"Finally we look at what happens to safety when a minority of machines crash during a write."
	cannedContent = "The lecture explains distributed consensus from first principles. " +
		"Leaders are elected using randomized election timeouts. " +
		"Log entries commit once a majority of nodes store them. " +
		"Safety is preserved when a minority of nodes crash."
)

type fakeExtractor struct {
	mu     sync.Mutex
	calls  int
	result extract.Result
	err    error
	hook   func(ctx context.Context)
}

func (f *fakeExtractor) Extract(ctx context.Context, src extract.Source) (extract.Result, error) {
	f.mu.Lock()
	f.calls++
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	return f.result, f.err
}

func (f *fakeExtractor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSummarizer struct {
	mu       sync.Mutex
	calls    int
	content  string
	err      error
	answer   string
	chatReqs []summarize.ChatRequest
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string, opts summarize.Options) (summarize.Result, error) {
	f.mu.Lock()
	f.calls++
	content, err := f.content, f.err
	f.mu.Unlock()
	if err != nil {
		return summarize.Result{}, err
	}
	st := summarize.Structure(content, opts.SourceType)
	return summarize.Result{
		Content:     content,
		KeyPoints:   st.KeyPoints,
		Overview:    st.Overview,
		Sections:    st.Sections,
		ChatOptions: st.ChatOptions,
		WordCount:   summarize.WordCount(text),
	}, nil
}

func (f *fakeSummarizer) Chat(ctx context.Context, req summarize.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatReqs = append(f.chatReqs, req)
	return f.answer, f.err
}

func (f *fakeSummarizer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// brokenCreateStore fails every Create.
type brokenCreateStore struct {
	*summaries.MemoryStore
}

func (brokenCreateStore) Create(context.Context, summaries.Summary) (summaries.Summary, bool, error) {
	return summaries.Summary{}, false, errors.New("connection reset by peer")
}

type fixture struct {
	svc  *Service
	docs *documents.MemoryRepo
	sums *summaries.MemoryStore
	ext  *fakeExtractor
	sum  *fakeSummarizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		docs: documents.NewMemoryRepo(),
		sums: summaries.NewMemoryStore(),
		ext:  &fakeExtractor{result: extract.Result{Text: lectureTranscript}},
		sum:  &fakeSummarizer{content: cannedContent, answer: "Randomized timeouts."},
	}
	f.svc = &Service{Docs: f.docs, Summaries: f.sums, Extractor: f.ext, Summarizer: f.sum}
	return f
}

func (f *fixture) addDocument(t *testing.T, id, userID string, st extract.SourceType) documents.Document {
	t.Helper()
	doc := documents.Document{
		ID:             id,
		UserID:         userID,
		Title:          "Consensus lecture",
		SourceType:     st,
		SourceLocation: userID + "/" + id,
		Status:         documents.StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, f.docs.Create(context.Background(), doc))
	return doc
}
