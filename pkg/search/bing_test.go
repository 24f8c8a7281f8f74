package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBingProviderSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "bing-key" {
			t.Errorf("unexpected subscription key %q", got)
		}
		q := r.URL.Query()
		if got := q.Get("q"); got != "golang news" {
			t.Errorf("unexpected query %q", got)
		}
		if got := q.Get("count"); got != "5" {
			t.Errorf("unexpected count %q", got)
		}
		if got := q.Get("responseFilter"); got != "Webpages" {
			t.Errorf("unexpected responseFilter %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"webPages": {
				"value": [
					{"name": "Go Blog", "url": "https://go.dev/blog", "snippet": "Latest from the Go team", "dateLastCrawled": "2025-01-15T10:30:00Z"},
					{"name": "Go News", "url": "https://example.com/go", "snippet": "Community news"}
				]
			}
		}`))
	}))
	defer server.Close()

	provider := NewBingProviderWithEndpoint("bing-key", server.URL)
	results, err := provider.Search(context.Background(), "golang news", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "Go Blog" || results[0].URL != "https://go.dev/blog" {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[0].Rank != 1 || results[1].Rank != 2 {
		t.Errorf("ranks not sequential: %d, %d", results[0].Rank, results[1].Rank)
	}
	wantTime := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	if !results[0].CrawledAt.Equal(wantTime) {
		t.Errorf("got crawl time %v, want %v", results[0].CrawledAt, wantTime)
	}
	if !results[1].CrawledAt.IsZero() {
		t.Errorf("expected zero crawl time, got %v", results[1].CrawledAt)
	}
}

func TestBingProviderCapsResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"webPages":{"value":[
			{"name":"1","url":"https://a.example"},
			{"name":"2","url":"https://b.example"},
			{"name":"3","url":"https://c.example"},
			{"name":"4","url":"https://d.example"},
			{"name":"5","url":"https://e.example"},
			{"name":"6","url":"https://f.example"}
		]}}`))
	}))
	defer server.Close()

	provider := NewBingProviderWithEndpoint("bing-key", server.URL)
	results, err := provider.Search(context.Background(), "q", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != DefaultLimit {
		t.Errorf("got %d results, want %d", len(results), DefaultLimit)
	}
}

func TestBingProviderStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	provider := NewBingProviderWithEndpoint("bing-key", server.URL)
	_, err := provider.Search(context.Background(), "q", SearchOptions{})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("got status %d, want 403", statusErr.StatusCode)
	}
}

func TestBingProviderTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	provider := NewBingProviderWithEndpoint("bing-key", server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := provider.Search(ctx, "q", SearchOptions{})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestBingProviderMissingKey(t *testing.T) {
	t.Parallel()

	provider := NewBingProvider("")
	if _, err := provider.Search(context.Background(), "q", SearchOptions{}); err == nil {
		t.Error("expected error with empty api key")
	}
}
