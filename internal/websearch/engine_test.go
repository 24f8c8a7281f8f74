package websearch

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/pritam-ray/Personalized-chatbot/internal/scrape"
	"github.com/pritam-ray/Personalized-chatbot/pkg/llm"
	"github.com/pritam-ray/Personalized-chatbot/pkg/search"
)

type fakeSearcher struct {
	results []search.Result
	err     error
	calls   int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, opts search.SearchOptions) ([]search.Result, error) {
	f.calls++
	return f.results, f.err
}

type fakeExtractor struct {
	mu   sync.Mutex
	urls []string
	fail bool
}

func (f *fakeExtractor) Extract(ctx context.Context, pageURL string) scrape.Page {
	f.mu.Lock()
	f.urls = append(f.urls, pageURL)
	f.mu.Unlock()
	if f.fail {
		return scrape.Page{URL: pageURL, Err: errors.New("fetch failed")}
	}
	return scrape.Page{URL: pageURL, Text: "scraped " + pageURL, OK: true}
}

// fakeStream replays chunks and then errs (io.EOF for a clean end).
type fakeStream struct {
	chunks []string
	err    error
	pos    int
	closed bool
}

func (f *fakeStream) Recv() (llm.Chunk, error) {
	if f.pos >= len(f.chunks) {
		if f.err != nil {
			return llm.Chunk{}, f.err
		}
		return llm.Chunk{}, io.EOF
	}
	chunk := llm.Chunk{Content: f.chunks[f.pos]}
	f.pos++
	return chunk, nil
}

func (f *fakeStream) Close() error {
	f.closed = true
	return nil
}

type fakeModel struct {
	stream      *fakeStream
	completeErr error
	messages    []llm.Message
}

func (f *fakeModel) Complete(ctx context.Context, messages []llm.Message) (llm.Stream, error) {
	f.messages = messages
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return f.stream, nil
}

func collectEvents(t *testing.T) (EmitFunc, *[]Event) {
	t.Helper()
	events := &[]Event{}
	return func(e Event) error {
		*events = append(*events, e)
		return nil
	}, events
}

func terminalCount(events []Event) int {
	n := 0
	for _, e := range events {
		if e.Kind == EventDone || e.Kind == EventError {
			n++
		}
	}
	return n
}

func TestStreamHappyPath(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []search.Result{
		{Title: "A", URL: "https://a.example", Snippet: "sa", Rank: 1},
		{Title: "B", URL: "https://b.example", Snippet: "sb", Rank: 2},
		{Title: "C", URL: "https://c.example", Snippet: "sc", Rank: 3},
		{Title: "D", URL: "https://d.example", Snippet: "sd", Rank: 4},
	}}
	extractor := &fakeExtractor{}
	model := &fakeModel{stream: &fakeStream{chunks: []string{"Hello", " there"}}}
	svc := NewService(searcher, extractor, model, nil)

	emit, events := collectEvents(t)
	result := svc.ProcessQueryStream(context.Background(), "latest go release", nil, emit)

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Response != "Hello there" {
		t.Errorf("got response %q", result.Response)
	}
	if !result.UsedWebSearch {
		t.Error("expected UsedWebSearch")
	}

	// Only the top three results get scraped.
	if len(extractor.urls) != 3 {
		t.Errorf("scraped %d pages, want 3: %v", len(extractor.urls), extractor.urls)
	}

	got := *events
	if got[0].Kind != EventStatus || got[0].Status != "Searching the web..." {
		t.Errorf("first event %+v", got[0])
	}
	if got[1].Kind != EventStatus || got[1].Status != "Search complete. Analyzing results..." {
		t.Errorf("second event %+v", got[1])
	}
	var tokens []string
	for _, e := range got {
		if e.Kind == EventToken {
			tokens = append(tokens, e.Token)
		}
	}
	if strings.Join(tokens, "") != "Hello there" {
		t.Errorf("token events %v do not reassemble the answer", tokens)
	}
	last := got[len(got)-1]
	if last.Kind != EventDone || !last.UsedWebSearch {
		t.Errorf("last event %+v, want done with UsedWebSearch", last)
	}
	if terminalCount(got) != 1 {
		t.Errorf("got %d terminal events, want 1", terminalCount(got))
	}
	if !model.stream.closed {
		t.Error("model stream not closed")
	}
}

func TestStreamEmptyMessage(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{}
	model := &fakeModel{}
	svc := NewService(searcher, &fakeExtractor{}, model, nil)

	emit, events := collectEvents(t)
	result := svc.ProcessQueryStream(context.Background(), "   ", nil, emit)

	if result.Success {
		t.Fatal("expected failure for empty message")
	}
	if searcher.calls != 0 {
		t.Error("search should not run for an empty message")
	}
	if model.messages != nil {
		t.Error("model should not run for an empty message")
	}
	got := *events
	if len(got) != 1 || got[0].Kind != EventError {
		t.Errorf("events %+v, want a single error event", got)
	}
}

func TestStreamModelErrorMidStream(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []search.Result{{Title: "A", URL: "https://a.example", Rank: 1}}}
	model := &fakeModel{stream: &fakeStream{chunks: []string{"partial"}, err: errors.New("connection reset")}}
	svc := NewService(searcher, &fakeExtractor{}, model, nil)

	emit, events := collectEvents(t)
	result := svc.ProcessQueryStream(context.Background(), "question", nil, emit)

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "connection reset" {
		t.Errorf("got error %q", result.Error)
	}
	if result.Response != "I apologize, but I encountered an error while processing your request." {
		t.Errorf("got response %q", result.Response)
	}
	got := *events
	last := got[len(got)-1]
	if last.Kind != EventError {
		t.Errorf("last event %+v, want error", last)
	}
	if terminalCount(got) != 1 {
		t.Errorf("got %d terminal events, want 1", terminalCount(got))
	}
}

func TestStreamSearchTimeoutStillAnswers(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{err: search.ErrTimeout}
	model := &fakeModel{stream: &fakeStream{chunks: []string{"from training data"}}}
	svc := NewService(searcher, &fakeExtractor{}, model, nil)

	emit, events := collectEvents(t)
	result := svc.ProcessQueryStream(context.Background(), "question", nil, emit)

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	// The timeout notice still reaches the model as grounding context, so
	// the flag stays true.
	if !result.UsedWebSearch {
		t.Error("UsedWebSearch should be true when grounding context reached the model")
	}
	var prompt string
	for _, m := range model.messages {
		if m.Role == "user" {
			prompt = m.Content
		}
	}
	if !strings.Contains(prompt, "Web search timed out. Please try again.") {
		t.Errorf("timeout notice missing from prompt:\n%s", prompt)
	}
	last := (*events)[len(*events)-1]
	if last.Kind != EventDone || !last.UsedWebSearch {
		t.Errorf("last event %+v", last)
	}
}

func TestStreamZeroResults(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{}
	extractor := &fakeExtractor{}
	model := &fakeModel{stream: &fakeStream{chunks: []string{"answer"}}}
	svc := NewService(searcher, extractor, model, nil)

	emit, _ := collectEvents(t)
	result := svc.ProcessQueryStream(context.Background(), "question", nil, emit)

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if !result.UsedWebSearch {
		t.Error("UsedWebSearch should be true; the no-results sentinel is still grounding context")
	}
	if len(extractor.urls) != 0 {
		t.Error("nothing should be scraped with zero results")
	}
	var prompt string
	for _, m := range model.messages {
		if m.Role == "user" {
			prompt = m.Content
		}
	}
	if !strings.Contains(prompt, NoResultsMessage) {
		t.Errorf("no-results notice missing from prompt:\n%s", prompt)
	}
}

func TestStreamAbortsWhenEmitFails(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []search.Result{{Title: "A", URL: "https://a.example", Rank: 1}}}
	model := &fakeModel{stream: &fakeStream{chunks: []string{"one", "two", "three"}}}
	svc := NewService(searcher, &fakeExtractor{}, model, nil)

	var seen int
	emit := func(e Event) error {
		if e.Kind == EventToken {
			seen++
			if seen == 2 {
				return errors.New("client went away")
			}
		}
		return nil
	}

	result := svc.ProcessQueryStream(context.Background(), "question", nil, emit)
	if result.Success {
		t.Fatal("expected failure after emit error")
	}
	if !model.stream.closed {
		t.Error("model stream not closed after abort")
	}
}

func TestProcessQueryEmptyMessage(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{}
	model := &fakeModel{}
	svc := NewService(searcher, &fakeExtractor{}, model, nil)

	result := svc.ProcessQuery(context.Background(), "  ", nil)
	if result.Success {
		t.Fatal("expected failure for empty message")
	}
	if result.Error != "message is required" {
		t.Errorf("got error %q", result.Error)
	}
	if searcher.calls != 0 {
		t.Error("search should not run for an empty message")
	}
	if model.messages != nil {
		t.Error("model should not run for an empty message")
	}
}

func TestProcessQuerySentinelGrounding(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{}
	model := &fakeModel{stream: &fakeStream{chunks: []string{"answer"}}}
	svc := NewService(searcher, &fakeExtractor{}, model, nil)

	result := svc.ProcessQuery(context.Background(), "question", nil)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	var prompt string
	for _, m := range model.messages {
		if m.Role == "user" {
			prompt = m.Content
		}
	}
	if !strings.Contains(prompt, NoResultsMessage) {
		t.Errorf("sentinel missing from prompt:\n%s", prompt)
	}
	if !result.UsedWebSearch {
		t.Error("UsedWebSearch should be true whenever grounding text reached the model")
	}
}

func TestProcessQueryHistoryLimit(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []search.Result{{Title: "A", URL: "https://a.example", Rank: 1}}}
	model := &fakeModel{stream: &fakeStream{chunks: []string{"ok"}}}
	svc := NewService(searcher, &fakeExtractor{}, model, nil)

	history := make([]Turn, 0, 14)
	for i := 0; i < 14; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history = append(history, Turn{Role: role, Content: "turn"})
	}

	result := svc.ProcessQuery(context.Background(), "question", history)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}

	// system + 10 most recent turns + grounded user turn
	if len(model.messages) != 12 {
		t.Errorf("got %d messages, want 12", len(model.messages))
	}
}

func TestNeedsCurrentInfo(t *testing.T) {
	t.Parallel()

	cases := []struct {
		message string
		want    bool
	}{
		{"What is the latest Go release?", true},
		{"weather in Oslo", true},
		{"NVDA stock price", true},
		{"Explain goroutines", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := NeedsCurrentInfo(tc.message); got != tc.want {
			t.Errorf("NeedsCurrentInfo(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}
