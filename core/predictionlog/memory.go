package predictionlog

import (
	"context"
	"sync"
)

// MemoryStore keeps the most recent records in memory.
type MemoryStore struct {
	mu   sync.Mutex
	max  int
	recs []LogRecord
}

// NewMemoryStore keeps at most max records; max <= 0 means unbounded.
func NewMemoryStore(max int) *MemoryStore {
	return &MemoryStore{max: max}
}

func (s *MemoryStore) Append(_ context.Context, rec LogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	if s.max > 0 && len(s.recs) > s.max {
		s.recs = s.recs[len(s.recs)-s.max:]
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q LogQuery) ([]LogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []LogRecord
	for _, r := range s.recs {
		if q.matches(r) {
			res = append(res, r)
		}
	}
	return q.finish(res), nil
}

func (s *MemoryStore) Close() error { return nil }
