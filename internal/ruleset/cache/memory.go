package cache

import (
	"context"
	"sync"
	"time"

	"zonecheck/internal/zoning"
	"zonecheck/pkg/platform/sentinel"
)

// InMemory is a map-backed rule-set cache. Entries are stored by value and
// returned as copies, so a replacement never mutates what an in-flight
// evaluation already holds.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewInMemory creates an empty in-memory cache.
func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]Entry)}
}

// Get retrieves the entry for a jurisdiction, or sentinel.ErrNotFound.
func (c *InMemory) Get(_ context.Context, jurisdiction string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.entries[jurisdiction]; ok {
		return &entry, nil
	}
	return nil, sentinel.ErrNotFound
}

// Put replaces the entry for a jurisdiction.
func (c *InMemory) Put(_ context.Context, jurisdiction string, rs zoning.RuleSet, fetchedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[jurisdiction] = Entry{
		Jurisdiction: jurisdiction,
		RuleSet:      rs,
		FetchedAt:    fetchedAt,
	}
	return nil
}
