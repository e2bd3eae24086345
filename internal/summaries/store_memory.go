package summaries

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"notesum-backend/internal/summarize"
)

// MemoryStore is an in-memory Store for dev and tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]Summary // documentID -> summary
	now  func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Summary),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Get(ctx context.Context, documentID string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[documentID]
	if !ok {
		return Summary{}, ErrNotFound
	}
	return cloneSummary(s), nil
}

func (m *MemoryStore) Create(ctx context.Context, s Summary) (Summary, bool, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[s.DocumentID]; ok {
		return cloneSummary(existing), false, nil
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := m.now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.data[s.DocumentID] = cloneSummary(s)
	return cloneSummary(s), true, nil
}

func (m *MemoryStore) Replace(ctx context.Context, s Summary) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if existing, ok := m.data[s.DocumentID]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	} else {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.data[s.DocumentID] = cloneSummary(s)
	return cloneSummary(s), nil
}

func (m *MemoryStore) Delete(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[documentID]; !ok {
		return ErrNotFound
	}
	delete(m.data, documentID)
	return nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	m.mu.Lock()
	var out []Summary
	for _, s := range m.data {
		if s.UserID == userID {
			out = append(out, cloneSummary(s))
		}
	}
	m.mu.Unlock()

	if offset >= len(out) {
		return []Summary{}, nil
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

func cloneSummary(s Summary) Summary {
	s.KeyPoints = append([]string(nil), s.KeyPoints...)
	s.Overview = append([]string(nil), s.Overview...)
	s.ChatOptions = append([]string(nil), s.ChatOptions...)
	if s.Sections != nil {
		sections := make([]summarize.Section, len(s.Sections))
		for i, sec := range s.Sections {
			sections[i] = summarize.Section{Title: sec.Title, Bullets: append([]string(nil), sec.Bullets...)}
		}
		s.Sections = sections
	}
	return s
}

var _ Store = (*MemoryStore)(nil)
