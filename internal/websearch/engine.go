package websearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pritam-ray/Personalized-chatbot/internal/scrape"
	"github.com/pritam-ray/Personalized-chatbot/pkg/llm"
	"github.com/pritam-ray/Personalized-chatbot/pkg/logging"
	"github.com/pritam-ray/Personalized-chatbot/pkg/search"
)

// historyLimit caps how many prior turns are replayed to the model.
const historyLimit = 10

const (
	statusSearching   = "Searching the web..."
	statusAnalyzing   = "Search complete. Analyzing results..."
	timeoutMessage    = "Web search timed out. Please try again."
	searchErrorFormat = "Unable to perform web search at this time. Error: %v"
	apologyMessage    = "I apologize, but I encountered an error while processing your request."
	emptyMessageError = "message is required"
)

// currentInfoKeywords suggest the question is about something recent enough
// that training data alone would be stale.
var currentInfoKeywords = []string{
	"latest", "recent", "current", "today", "now", "news",
	"weather", "price", "stock", "update", "happening",
}

// Turn is one prior exchange in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result is the outcome of answering one query. Error holds a normalized
// message; callers never see raw provider errors.
type Result struct {
	Success       bool       `json:"success"`
	Response      string     `json:"response"`
	UsedWebSearch bool       `json:"usedWebSearch"`
	Citations     []Citation `json:"citations,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// PageExtractor fetches and cleans one web page.
type PageExtractor interface {
	Extract(ctx context.Context, pageURL string) scrape.Page
}

// Service answers questions grounded in live web search results.
type Service struct {
	searcher  search.Provider
	extractor PageExtractor
	model     llm.Provider
	logger    logging.Logger
}

func NewService(searcher search.Provider, extractor PageExtractor, model llm.Provider, logger logging.Logger) *Service {
	return &Service{
		searcher:  searcher,
		extractor: extractor,
		model:     model,
		logger:    logger,
	}
}

// NeedsCurrentInfo reports whether the message likely requires fresh
// information. It is advisory; explicit web-search requests always ground.
func NeedsCurrentInfo(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range currentInfoKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// grounding is the search phase outcome. Text is either a composed document
// or a sentinel explaining why results are missing; both reach the model so
// it can explain itself instead of guessing.
type grounding struct {
	text      string
	citations []Citation
}

// used reports whether grounding context reached the model. It is true for
// every non-empty text, sentinels included, so the flag tracks what the
// model actually saw rather than search quality.
func (g grounding) used() bool {
	return g.text != ""
}

func (s *Service) ground(ctx context.Context, query string) grounding {
	results, err := s.searcher.Search(ctx, query, search.SearchOptions{})
	if err != nil {
		if errors.Is(err, search.ErrTimeout) {
			return grounding{text: timeoutMessage}
		}
		s.logWarn(query, err)
		return grounding{text: fmt.Sprintf(searchErrorFormat, err)}
	}
	if len(results) == 0 {
		return grounding{text: NoResultsMessage}
	}

	doc := Compose(query, results, s.scrapeTop(ctx, results))
	return grounding{text: doc.Text, citations: doc.Citations}
}

// scrapeTop extracts the top-ranked pages concurrently. The returned slice
// is indexed alongside results; entries past ScrapeDepth stay zero so the
// composer falls back to snippets for them.
func (s *Service) scrapeTop(ctx context.Context, results []search.Result) []scrape.Page {
	depth := ScrapeDepth
	if len(results) < depth {
		depth = len(results)
	}

	pages := make([]scrape.Page, len(results))
	var wg sync.WaitGroup
	for i := 0; i < depth; i++ {
		wg.Add(1)
		go func(i int, pageURL string) {
			defer wg.Done()
			pages[i] = s.extractor.Extract(ctx, pageURL)
		}(i, results[i].URL)
	}
	wg.Wait()
	return pages
}

func (s *Service) buildMessages(systemPrompt, message string, history []Turn, g grounding) []llm.Message {
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	for _, turn := range history {
		if turn.Role != "user" && turn.Role != "assistant" {
			continue
		}
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: groundedUserTurn(message, g.text)})
	return messages
}

// ProcessQuery answers a query in one shot, grounding it in web search
// first. The model stream is drained internally.
func (s *Service) ProcessQuery(ctx context.Context, message string, history []Turn) Result {
	if strings.TrimSpace(message) == "" {
		return Result{Success: false, Error: emptyMessageError, Response: apologyMessage}
	}

	g := s.ground(ctx, message)

	stream, err := s.model.Complete(ctx, s.buildMessages(groundedSystemPrompt, message, history, g))
	if err != nil {
		return s.modelFailure(err)
	}

	response, err := llm.Collect(stream)
	if err != nil {
		return s.modelFailure(err)
	}

	return Result{
		Success:       true,
		Response:      response,
		UsedWebSearch: g.used(),
		Citations:     g.citations,
	}
}

// ProcessQueryStream answers a query while emitting progress and token
// events through emit. Every stream ends with exactly one terminal event:
// done on success, error on failure. If emit itself fails the stream stops
// without a terminal event, since the consumer is gone.
func (s *Service) ProcessQueryStream(ctx context.Context, message string, history []Turn, emit EmitFunc) Result {
	if strings.TrimSpace(message) == "" {
		result := Result{Success: false, Error: emptyMessageError, Response: apologyMessage}
		_ = emit(Event{Kind: EventError, Err: result.Error})
		return result
	}

	if err := emit(Event{Kind: EventStatus, Status: statusSearching}); err != nil {
		return Result{Success: false, Error: err.Error(), Response: apologyMessage}
	}

	g := s.ground(ctx, message)

	if err := emit(Event{Kind: EventStatus, Status: statusAnalyzing}); err != nil {
		return Result{Success: false, Error: err.Error(), Response: apologyMessage}
	}

	stream, err := s.model.Complete(ctx, s.buildMessages(streamingSystemPrompt, message, history, g))
	if err != nil {
		result := s.modelFailure(err)
		_ = emit(Event{Kind: EventError, Err: result.Error})
		return result
	}
	defer func() { _ = stream.Close() }()

	var full strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if recvErr != nil {
			if errors.Is(recvErr, io.EOF) {
				break
			}
			result := s.modelFailure(recvErr)
			_ = emit(Event{Kind: EventError, Err: result.Error})
			return result
		}
		full.WriteString(chunk.Content)
		if err := emit(Event{Kind: EventToken, Token: chunk.Content}); err != nil {
			return Result{Success: false, Error: err.Error(), Response: apologyMessage}
		}
	}

	result := Result{
		Success:       true,
		Response:      full.String(),
		UsedWebSearch: g.used(),
		Citations:     g.citations,
	}
	_ = emit(Event{Kind: EventDone, UsedWebSearch: result.UsedWebSearch})
	return result
}

func (s *Service) modelFailure(err error) Result {
	if s.logger != nil {
		s.logger.WithFields(logging.Fields{"error": err.Error()}).Error("Model completion failed")
	}
	return Result{Success: false, Error: err.Error(), Response: apologyMessage}
}

func (s *Service) logWarn(query string, err error) {
	if s.logger != nil {
		s.logger.WithFields(logging.Fields{
			"query": query,
			"error": err.Error(),
		}).Warn("Web search failed")
	}
}
