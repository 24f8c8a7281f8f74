package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AzureProvider speaks the Azure OpenAI deployment API. It differs from the
// public OpenAI endpoint in three ways: the URL carries the deployment name,
// authentication uses an api-key header, and the api-version is a query
// parameter.
type AzureProvider struct {
	client      *http.Client
	apiKey      string
	endpoint    string
	deployment  string
	apiVersion  string
	temperature float64
}

func NewAzureProvider(cfg Config) *AzureProvider {
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2024-02-15-preview"
	}
	return &AzureProvider{
		client:      &http.Client{Timeout: 120 * time.Second},
		apiKey:      cfg.APIKey,
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		deployment:  cfg.Deployment,
		apiVersion:  apiVersion,
		temperature: cfg.Temperature,
	}
}

func (p *AzureProvider) Complete(ctx context.Context, messages []Message) (Stream, error) {
	if p.endpoint == "" || p.deployment == "" {
		return nil, errors.New("azure endpoint and deployment are required")
	}

	reqBody := azureRequest{
		Messages:    messages,
		Stream:      true,
		Temperature: p.temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("azure: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		p.endpoint, url.PathEscape(p.deployment), url.QueryEscape(p.apiVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("azure: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure: request failed: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("azure: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	// Azure streams the same delta frames as the public API.
	return newSSEStream(resp, decodeOpenAIChunk), nil
}

type azureRequest struct {
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature,omitempty"`
}
