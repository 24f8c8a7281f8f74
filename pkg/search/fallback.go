package search

import (
	"context"
	"errors"
	"net/http"

	"github.com/pritam-ray/Personalized-chatbot/pkg/logging"
)

// FallbackProvider tries a primary provider and falls back to a secondary
// one when the primary is absent or rejects its credentials. Any other
// primary failure is surfaced as-is so transient errors stay visible.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
	logger    logging.Logger
}

func NewFallbackProvider(primary, secondary Provider, logger logging.Logger) *FallbackProvider {
	return &FallbackProvider{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (p *FallbackProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	if p.primary == nil {
		return p.secondary.Search(ctx, query, opts)
	}

	results, err := p.primary.Search(ctx, query, opts)
	if err == nil {
		return results, nil
	}

	if !isCredentialError(err) {
		return nil, err
	}

	if p.logger != nil {
		p.logger.WithFields(logging.Fields{
			"error": err.Error(),
		}).Warn("Primary search provider rejected credentials, falling back")
	}
	return p.secondary.Search(ctx, query, opts)
}

func isCredentialError(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden
}
