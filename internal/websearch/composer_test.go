package websearch

import (
	"strings"
	"testing"
	"time"

	"github.com/pritam-ray/Personalized-chatbot/internal/scrape"
	"github.com/pritam-ray/Personalized-chatbot/pkg/search"
)

func sampleResults(n int) []search.Result {
	results := make([]search.Result, n)
	for i := range results {
		results[i] = search.Result{
			Title:   "Title " + string(rune('A'+i)),
			URL:     "https://example.com/" + string(rune('a'+i)),
			Snippet: "Snippet " + string(rune('A'+i)),
			Rank:    i + 1,
		}
	}
	return results
}

func TestComposeIncludesAllSources(t *testing.T) {
	t.Parallel()

	results := sampleResults(5)
	pages := []scrape.Page{
		{URL: results[0].URL, Text: "Full article text one", OK: true},
		{URL: results[1].URL, Text: "Full article text two", OK: true},
		{URL: results[2].URL, OK: false},
	}

	doc := Compose(`what is "go"?`, results, pages)

	if !strings.Contains(doc.Text, `Search Query: "what is "go"?"`) {
		t.Errorf("query not embedded literally:\n%s", doc.Text)
	}
	if !strings.Contains(doc.Text, "Found 5 relevant web pages") {
		t.Error("result count missing")
	}
	if !strings.Contains(doc.Text, "Full article text one") {
		t.Error("scraped content for rank 1 missing")
	}
	// Rank 3 extraction failed, so its snippet stands in.
	if !strings.Contains(doc.Text, "Snippet C") {
		t.Error("snippet fallback for failed scrape missing")
	}
	// Ranks 4 and 5 are snippet-only.
	if !strings.Contains(doc.Text, "Snippet D") || !strings.Contains(doc.Text, "Snippet E") {
		t.Error("snippet-only tail results missing")
	}
	for _, r := range results {
		if !strings.Contains(doc.Text, "Source: "+r.URL) {
			t.Errorf("source line for %s missing", r.URL)
		}
	}
	if len(doc.Citations) != 5 {
		t.Errorf("got %d citations, want 5", len(doc.Citations))
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	t.Parallel()

	results := sampleResults(3)
	pages := []scrape.Page{{Text: "body", OK: true}}

	first := Compose("query", results, pages)
	second := Compose("query", results, pages)
	if first.Text != second.Text {
		t.Error("same inputs produced different documents")
	}
}

func TestComposeCrawlDate(t *testing.T) {
	t.Parallel()

	results := sampleResults(1)
	results[0].CrawledAt = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

	doc := Compose("query", results, nil)
	if !strings.Contains(doc.Text, "Last Updated: 2025-01-15") {
		t.Errorf("crawl date missing:\n%s", doc.Text)
	}
}

func TestComposeEmptyResults(t *testing.T) {
	t.Parallel()

	doc := Compose("query", nil, nil)
	if doc.Text != NoResultsMessage {
		t.Errorf("got %q, want no-results message", doc.Text)
	}
	if len(doc.Citations) != 0 {
		t.Errorf("got %d citations, want 0", len(doc.Citations))
	}
}
