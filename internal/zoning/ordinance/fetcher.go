package ordinance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetch failure taxonomy. The compliance orchestrator recovers from both by
// falling back to whatever cache entry exists.
var (
	ErrFetchTimeout = errors.New("ordinance fetch timed out")
	ErrFetchFailed  = errors.New("ordinance fetch failed")
)

// Fetcher retrieves raw ordinance text from a jurisdiction's source.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) (string, error)
}

// HTTPFetcher fetches ordinance text over plain HTTP. Scraping pipelines
// that need browser automation sit behind the same interface upstream.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPFetcher builds a fetcher with a per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Fetch performs a single attempt with no retries; retry policy belongs to
// the upstream fetch collaborator, not this engine.
func (f *HTTPFetcher) Fetch(ctx context.Context, sourceURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrFetchTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: upstream returned %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}
	return string(body), nil
}
