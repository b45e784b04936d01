package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/timbre/pkg/domain"
)

// Store implements ports.ResultStore and ports.ResultSink in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Submission
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Submission),
	}
}

// Save persists the submission in memory.
func (s *Store) Save(ctx context.Context, sub domain.Submission) error {
	sub.Responses = append([]domain.ResponseRecord(nil), sub.Responses...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sub.SpecID] = sub
	return nil
}

// Submit implements ports.ResultSink.
func (s *Store) Submit(ctx context.Context, sub domain.Submission) error {
	return s.Save(ctx, sub)
}

// Load retrieves the submission from memory.
func (s *Store) Load(ctx context.Context, specID string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.data[specID]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}

	// Copy on read so callers can't mutate the stored log.
	sub.Responses = append([]domain.ResponseRecord(nil), sub.Responses...)
	return &sub, nil
}

// List returns the stored spec IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Len returns the number of stored submissions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
