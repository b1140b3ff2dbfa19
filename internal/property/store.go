package property

import "context"

// Store retrieves property records. The canonical parcel database lives
// upstream; this port lets the engine run against it or against a local
// seed in development and tests.
type Store interface {
	Get(ctx context.Context, propertyID string) (*Record, error)
}
