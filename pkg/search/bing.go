package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const defaultBingEndpoint = "https://api.bing.microsoft.com/v7.0/search"

// BingProvider implements web search via the Bing Web Search JSON API.
type BingProvider struct {
	client   *http.Client
	apiKey   string
	endpoint string
}

func NewBingProvider(apiKey string) *BingProvider {
	return &BingProvider{
		client:   &http.Client{Timeout: 15 * time.Second},
		apiKey:   apiKey,
		endpoint: defaultBingEndpoint,
	}
}

// NewBingProviderWithEndpoint is used by tests to point at a fake backend.
func NewBingProviderWithEndpoint(apiKey, endpoint string) *BingProvider {
	p := NewBingProvider(apiKey)
	p.endpoint = endpoint
	return p
}

func (p *BingProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	if p.apiKey == "" {
		return nil, errors.New("bing api key is not configured")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(opts.limit()))
	params.Set("responseFilter", "Webpages")
	params.Set("safeSearch", "Moderate")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("bing: create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("bing: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Provider: "bing", StatusCode: resp.StatusCode}
	}

	var payload bingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("bing: decode response: %w", err)
	}

	limit := opts.limit()
	results := make([]Result, 0, limit)
	for i, page := range payload.WebPages.Value {
		if i >= limit {
			break
		}
		result := Result{
			Title:   page.Name,
			URL:     page.URL,
			Snippet: page.Snippet,
			Rank:    i + 1,
		}
		if page.DateLastCrawled != "" {
			if ts, err := time.Parse(time.RFC3339, page.DateLastCrawled); err == nil {
				result.CrawledAt = ts
			}
		}
		results = append(results, result)
	}
	return results, nil
}

type bingResponse struct {
	WebPages struct {
		Value []struct {
			Name            string `json:"name"`
			URL             string `json:"url"`
			Snippet         string `json:"snippet"`
			DateLastCrawled string `json:"dateLastCrawled"`
		} `json:"value"`
	} `json:"webPages"`
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
