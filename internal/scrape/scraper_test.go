package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Test</title><script>var tracking = "evil";</script></head>
<body>
  <nav>Home About Contact</nav>
  <article>
    The   quick brown fox
    jumps over the lazy dog.
  </article>
  <footer>Copyright 2025</footer>
  <script>console.log("more js")</script>
</body>
</html>`

func TestExtractArticleContent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.Contains(got, "Chrome/120") {
			t.Errorf("unexpected user agent %q", got)
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articlePage)
	}))
	defer server.Close()

	extractor := NewExtractor(nil)
	page := extractor.Extract(context.Background(), server.URL)

	if !page.OK {
		t.Fatalf("extraction failed: %v", page.Err)
	}
	if page.Text != "The quick brown fox jumps over the lazy dog." {
		t.Errorf("unexpected text %q", page.Text)
	}
	if strings.Contains(page.Text, "tracking") || strings.Contains(page.Text, "Copyright") {
		t.Errorf("boilerplate leaked into text: %q", page.Text)
	}
}

func TestExtractFallsBackToBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>Plain page without any landmark element.</p></body></html>`)
	}))
	defer server.Close()

	extractor := NewExtractor(nil)
	page := extractor.Extract(context.Background(), server.URL)

	if !page.OK {
		t.Fatalf("extraction failed: %v", page.Err)
	}
	if page.Text != "Plain page without any landmark element." {
		t.Errorf("unexpected text %q", page.Text)
	}
}

func TestExtractTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 2000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><article>%s</article></body></html>`, long)
	}))
	defer server.Close()

	extractor := NewExtractor(nil)
	page := extractor.Extract(context.Background(), server.URL)

	if !page.OK {
		t.Fatalf("extraction failed: %v", page.Err)
	}
	if got := len([]rune(page.Text)); got != defaultMaxLength {
		t.Errorf("got %d runes, want %d", got, defaultMaxLength)
	}
}

func TestExtractReportsHTTPFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	extractor := NewExtractor(nil)
	page := extractor.Extract(context.Background(), server.URL)

	if page.OK {
		t.Fatal("expected failure on 404")
	}
	if page.Err == nil {
		t.Fatal("expected Err to be set")
	}
}

func TestExtractStopsAfterRedirectLimit(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	extractor := NewExtractor(nil)
	page := extractor.Extract(context.Background(), server.URL)

	if page.OK {
		t.Fatal("expected failure on endless redirects")
	}
	if !strings.Contains(page.Err.Error(), "redirects") {
		t.Errorf("unexpected error %v", page.Err)
	}
}
