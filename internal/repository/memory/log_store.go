package memory

import (
	"context"
	"sync"

	"cortexsoc/internal/models"
)

// LogStore is the default in-process log store. Records are held in
// insertion order behind a single mutex; identity assignment is serialized
// so ordering stays stable and chronological.
type LogStore struct {
	mu      sync.RWMutex
	records []models.LogRecord
	nextID  int64
}

// NewLogStore creates an empty in-memory log store.
func NewLogStore() *LogStore {
	return &LogStore{nextID: 1}
}

// Append stores the record with the next identity and returns it.
func (s *LogStore) Append(_ context.Context, record models.LogRecord) (models.LogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.ID = s.nextID
	s.nextID++
	s.records = append(s.records, record)
	return record, nil
}

// List returns up to limit most recent records in insertion order.
func (s *LogStore) List(_ context.Context, limit int) ([]models.LogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.records) > limit {
		start = len(s.records) - limit
	}
	out := make([]models.LogRecord, len(s.records)-start)
	copy(out, s.records[start:])
	return out, nil
}

// Len reports the number of stored records.
func (s *LogStore) Len(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}
