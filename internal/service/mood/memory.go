package mood

import (
	"context"
	"sync"

	"github.com/zhouzirui/mindhaven/backend/internal/model/chat"
)

// MemoryStore keeps counters and history for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	counts   Stats
	records  []chat.Record
	capacity int
}

// NewMemoryStore creates an empty store retaining at most capacity records.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		counts:   NewStats(),
		records:  make([]chat.Record, 0, 64),
		capacity: capacity,
	}
}

// Observe implements Store.
func (s *MemoryStore) Observe(_ context.Context, record chat.Record) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[record.Emotion]++
	s.records = append(s.records, record)
	if len(s.records) > s.capacity {
		n := copy(s.records, s.records[len(s.records)-s.capacity:])
		s.records = s.records[:n]
	}

	return s.counts.Clone(), nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts.Clone(), nil
}

// History implements Store.
func (s *MemoryStore) History(_ context.Context, limit int) ([]chat.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit > 0 && len(s.records) > limit {
		start = len(s.records) - limit
	}

	copied := make([]chat.Record, len(s.records)-start)
	copy(copied, s.records[start:])
	return copied, nil
}

// Backend implements Store.
func (s *MemoryStore) Backend() string {
	return "memory"
}
