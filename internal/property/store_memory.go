package property

import (
	"context"
	"sync"

	"zonecheck/pkg/platform/sentinel"
)

// InMemory is a map-backed property store for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewInMemory creates an empty in-memory property store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]Record)}
}

// Put stores a copy of the record keyed by its ID.
func (s *InMemory) Put(record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
}

// Get retrieves a record by ID, returning sentinel.ErrNotFound when absent.
func (s *InMemory) Get(_ context.Context, propertyID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[propertyID]; ok {
		return &record, nil
	}
	return nil, sentinel.ErrNotFound
}
