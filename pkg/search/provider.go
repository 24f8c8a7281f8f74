package search

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultLimit caps how many results a provider returns per query.
const DefaultLimit = 5

// ErrTimeout marks a search that did not complete within the provider's
// deadline. Callers surface a dedicated message for it.
var ErrTimeout = errors.New("search timed out")

// Provider runs a web search and returns ranked results.
type Provider interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error)
}

type SearchOptions struct {
	// Limit caps the number of results. Zero means DefaultLimit.
	Limit int
}

func (o SearchOptions) limit() int {
	if o.Limit <= 0 || o.Limit > DefaultLimit {
		return DefaultLimit
	}
	return o.Limit
}

// Result is one ranked search hit. Rank is 1-based in engine order.
type Result struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Snippet   string    `json:"snippet"`
	Rank      int       `json:"rank"`
	CrawledAt time.Time `json:"crawled_at,omitempty"`
}

// StatusError reports a non-2xx response from a search backend. The fallback
// layer inspects it to decide whether the failure is credential-related.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s search returned status %d", e.Provider, e.StatusCode)
}
