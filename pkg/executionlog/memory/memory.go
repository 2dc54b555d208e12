// Package memory is an in-process ring buffer execution log.
package memory

import (
	"context"
	"sync"

	"github.com/dukex/instaflow/pkg/executionlog"
	"github.com/dukex/instaflow/pkg/models"
)

type Store struct {
	mu      sync.Mutex
	records []models.ExecutionRecord
	next    int
	size    int
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = executionlog.DefaultCapacity
	}

	return &Store{records: make([]models.ExecutionRecord, capacity)}
}

// Append overwrites the oldest record once the buffer is full.
func (s *Store) Append(_ context.Context, record models.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[s.next] = record
	s.next = (s.next + 1) % len(s.records)
	s.size = min(s.size+1, len(s.records))

	return nil
}

func (s *Store) Recent(_ context.Context, limit int) ([]models.ExecutionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit = min(executionlog.ClampLimit(limit, len(s.records)), s.size)
	out := make([]models.ExecutionRecord, 0, limit)

	for i := 1; i <= limit; i++ {
		index := (s.next - i + len(s.records)) % len(s.records)
		out = append(out, s.records[index])
	}

	return out, nil
}

func (s *Store) Close() error {
	return nil
}
