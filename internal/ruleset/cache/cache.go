// Package cache stores parsed rule sets per jurisdiction with age tracking.
//
// The contract is read/replace: at most one entry per jurisdiction, a
// successful parse replaces the prior entry atomically, and in-flight readers
// holding the old entry are unaffected. Nothing here judges freshness; age is
// computed at read time and the orchestrator decides what stale means.
package cache

import (
	"context"
	"time"

	"zonecheck/internal/zoning"
)

// Entry wraps a parsed rule set with its fetch timestamp.
type Entry struct {
	Jurisdiction string         `json:"jurisdiction"`
	RuleSet      zoning.RuleSet `json:"ruleset"`
	FetchedAt    time.Time      `json:"fetched_at"`
}

// Age returns how old the entry is relative to the given time.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Store is the rule-set cache port. Get returns sentinel.ErrNotFound when no
// entry exists for the jurisdiction; store failures are returned as-is, never
// swallowed. Put replaces any existing entry for the jurisdiction.
type Store interface {
	Get(ctx context.Context, jurisdiction string) (*Entry, error)
	Put(ctx context.Context, jurisdiction string, rs zoning.RuleSet, fetchedAt time.Time) error
}
