package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pritam-ray/Personalized-chatbot/pkg/logging"
)

const (
	defaultTimeout   = 8 * time.Second
	defaultMaxLength = 3000
	maxRedirects     = 3

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// contentSelectors are probed in order; the first non-empty match wins.
var contentSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
	".content",
	".article-content",
	".post-content",
	"#content",
	".entry-content",
}

// Page is the outcome of one extraction attempt. A failed attempt carries
// OK=false and Err instead of aborting the batch it belongs to.
type Page struct {
	URL  string
	Text string
	OK   bool
	Err  error
}

// Extractor fetches a web page and distills its main article text.
type Extractor struct {
	client    *http.Client
	maxLength int
	logger    logging.Logger
}

func NewExtractor(logger logging.Logger) *Extractor {
	return &Extractor{
		client: &http.Client{
			Timeout: defaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		maxLength: defaultMaxLength,
		logger:    logger,
	}
}

// SetMaxLength overrides the content truncation limit. Zero or negative
// values are ignored.
func (e *Extractor) SetMaxLength(n int) {
	if n > 0 {
		e.maxLength = n
	}
}

// Extract fetches pageURL and returns its cleaned main text. Failures are
// reported in the returned Page rather than as an error; a page that cannot
// be scraped should not sink the whole search.
func (e *Extractor) Extract(ctx context.Context, pageURL string) Page {
	page := Page{URL: pageURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		page.Err = fmt.Errorf("create request: %w", err)
		return page
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		page.Err = fmt.Errorf("fetch: %w", err)
		e.logFailure(pageURL, page.Err)
		return page
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		page.Err = fmt.Errorf("fetch: status %d", resp.StatusCode)
		e.logFailure(pageURL, page.Err)
		return page
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		page.Err = fmt.Errorf("parse html: %w", err)
		e.logFailure(pageURL, page.Err)
		return page
	}

	text := extractText(doc)
	if text == "" {
		page.Err = fmt.Errorf("no textual content found")
		e.logFailure(pageURL, page.Err)
		return page
	}

	page.Text = truncate(text, e.maxLength)
	page.OK = true
	return page
}

func (e *Extractor) logFailure(pageURL string, err error) {
	if e.logger != nil {
		e.logger.WithFields(logging.Fields{
			"url":   pageURL,
			"error": err.Error(),
		}).Debug("Page extraction failed")
	}
}

func extractText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, iframe, noscript").Remove()

	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := collapseWhitespace(sel.Text()); text != "" {
			return text
		}
	}
	return collapseWhitespace(doc.Find("body").Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
