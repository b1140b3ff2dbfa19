package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"zonecheck/internal/zoning"
	"zonecheck/pkg/platform/sentinel"
)

// Redis persists cache entries as JSON values keyed by jurisdiction. No
// Redis-side expiry is set: staleness is judged at read time by the
// orchestrator, and an expired entry is still valuable as a fallback.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed cache store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func redisKey(jurisdiction string) string {
	return "zonecheck:ruleset:" + jurisdiction
}

// Get retrieves the entry for a jurisdiction, or sentinel.ErrNotFound.
func (r *Redis) Get(ctx context.Context, jurisdiction string) (*Entry, error) {
	raw, err := r.client.Get(ctx, redisKey(jurisdiction)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get ruleset cache: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode cached ruleset for %s: %w", jurisdiction, err)
	}
	return &entry, nil
}

// Put replaces the entry for a jurisdiction. Redis SET is atomic, so readers
// see either the old value or the new one, never a partial write.
func (r *Redis) Put(ctx context.Context, jurisdiction string, rs zoning.RuleSet, fetchedAt time.Time) error {
	entry := Entry{Jurisdiction: jurisdiction, RuleSet: rs, FetchedAt: fetchedAt}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode ruleset for %s: %w", jurisdiction, err)
	}
	if err := r.client.Set(ctx, redisKey(jurisdiction), raw, 0).Err(); err != nil {
		return fmt.Errorf("put ruleset cache: %w", err)
	}
	return nil
}
