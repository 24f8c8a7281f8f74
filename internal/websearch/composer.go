package websearch

import (
	"fmt"
	"strings"

	"github.com/pritam-ray/Personalized-chatbot/internal/scrape"
	"github.com/pritam-ray/Personalized-chatbot/pkg/search"
)

// ScrapeDepth is how many top-ranked results get full page extraction.
// Results beyond it contribute their snippet only.
const ScrapeDepth = 3

// NoResultsMessage stands in for the grounding document when a search
// succeeds but returns nothing.
const NoResultsMessage = "No web search results found for this query. Please try rephrasing your question."

// Citation points at one source page referenced by the grounding document.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Document is the composed grounding context handed to the model.
type Document struct {
	Text      string
	Citations []Citation
}

var (
	headerRule  = strings.Repeat("=", 60)
	sectionRule = strings.Repeat("-", 60)
)

// Compose renders search results and their scraped pages into a single
// deterministic grounding document. pages is indexed alongside results; a
// missing or failed page falls back to the result's snippet. Composition is
// pure text assembly, so equal inputs always produce equal output.
func Compose(query string, results []search.Result, pages []scrape.Page) Document {
	if len(results) == 0 {
		return Document{Text: NoResultsMessage}
	}

	var b strings.Builder
	b.WriteString("WEB SEARCH RESULTS\n")
	b.WriteString(headerRule + "\n\n")
	fmt.Fprintf(&b, "Search Query: \"%s\"\n", query)
	fmt.Fprintf(&b, "Found %d relevant web pages\n", len(results))

	citations := make([]Citation, 0, len(results))
	for i, result := range results {
		b.WriteString("\n" + sectionRule + "\n")
		fmt.Fprintf(&b, "RESULT %d: %s\n", i+1, result.Title)
		b.WriteString(sectionRule + "\n\n")

		body := result.Snippet
		if i < len(pages) && pages[i].OK && pages[i].Text != "" {
			body = pages[i].Text
		}
		if body != "" {
			b.WriteString(body + "\n\n")
		}

		if !result.CrawledAt.IsZero() {
			fmt.Fprintf(&b, "Last Updated: %s\n", result.CrawledAt.Format("2006-01-02"))
		}
		fmt.Fprintf(&b, "Source: %s\n", result.URL)

		citations = append(citations, Citation{Title: result.Title, URL: result.URL})
	}

	b.WriteString("\n" + headerRule + "\n")
	b.WriteString("Use the information above to provide a comprehensive, accurate, and up-to-date answer.\n")

	return Document{Text: b.String(), Citations: citations}
}
