package search

import (
	"github.com/pritam-ray/Personalized-chatbot/pkg/logging"
)

// Config selects the search backend. When APIKey is empty the keyless
// DuckDuckGo provider serves every query.
type Config struct {
	// APIKey is the Bing Web Search subscription key. Optional.
	APIKey string
}

// NewProvider builds the layered search provider. With an API key the
// primary is Bing with DuckDuckGo behind it; without one, DuckDuckGo alone.
func NewProvider(cfg Config, logger logging.Logger) Provider {
	secondary := NewDuckDuckGoProvider()
	if cfg.APIKey == "" {
		if logger != nil {
			logger.Info("No search API key configured, using DuckDuckGo")
		}
		return secondary
	}
	return NewFallbackProvider(NewBingProvider(cfg.APIKey), secondary, logger)
}
