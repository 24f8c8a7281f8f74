package llm

import "fmt"

// Config selects and parameterizes a chat-completion backend.
type Config struct {
	// Provider is one of "openai" or "azure".
	Provider string

	// APIKey authenticates against the selected backend.
	APIKey string

	// Model is the model name for the public OpenAI API.
	Model string

	// APIURL overrides the OpenAI base URL (for compatible gateways).
	APIURL string

	// Endpoint, Deployment and APIVersion configure Azure OpenAI.
	Endpoint   string
	Deployment string
	APIVersion string

	// Temperature is passed through to the backend. Zero means the
	// backend default.
	Temperature float64
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "azure":
		return NewAzureProvider(cfg), nil
	case "openai", "":
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
