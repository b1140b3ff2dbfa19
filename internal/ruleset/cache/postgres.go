package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zonecheck/internal/zoning"
	"zonecheck/pkg/platform/sentinel"
)

// Schema for the durable cache table. One row per jurisdiction; the upsert
// in Put is the atomic replacement the cache contract requires.
const Schema = `
CREATE TABLE IF NOT EXISTS ruleset_cache (
    jurisdiction TEXT PRIMARY KEY,
    ruleset_json JSONB NOT NULL,
    fetched_at   TIMESTAMPTZ NOT NULL
);
`

// Postgres persists cache entries in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed cache store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the cache table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure ruleset_cache schema: %w", err)
	}
	return nil
}

// Get retrieves the entry for a jurisdiction, or sentinel.ErrNotFound.
func (p *Postgres) Get(ctx context.Context, jurisdiction string) (*Entry, error) {
	var (
		raw       []byte
		fetchedAt time.Time
	)
	err := p.pool.QueryRow(ctx,
		`SELECT ruleset_json, fetched_at FROM ruleset_cache WHERE jurisdiction = $1`,
		jurisdiction,
	).Scan(&raw, &fetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get ruleset cache: %w", err)
	}

	var rs zoning.RuleSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("decode cached ruleset for %s: %w", jurisdiction, err)
	}

	return &Entry{Jurisdiction: jurisdiction, RuleSet: rs, FetchedAt: fetchedAt}, nil
}

// Put upserts the entry for a jurisdiction.
func (p *Postgres) Put(ctx context.Context, jurisdiction string, rs zoning.RuleSet, fetchedAt time.Time) error {
	raw, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("encode ruleset for %s: %w", jurisdiction, err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO ruleset_cache (jurisdiction, ruleset_json, fetched_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (jurisdiction)
		 DO UPDATE SET ruleset_json = EXCLUDED.ruleset_json, fetched_at = EXCLUDED.fetched_at`,
		jurisdiction, raw, fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("put ruleset cache: %w", err)
	}
	return nil
}
