package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/shared/telemetry"
)

const defaultTimeout = 120 * time.Second

// Client implements llm.Generator on the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Option customizes the underlying genai configuration.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at another Gemini API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = baseURL
	}
}

// New configures the client with a credential and a named model.
func New(ctx context.Context, apiKey, model string, timeout time.Duration, opts ...Option) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("gemini: %w", llm.ErrMissingModel)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: GOOGLE_API_KEY: %w", llm.ErrMissingCredential)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Complete submits one prompt and returns the concatenated text of the first candidate.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		if isAuthError(err) {
			return "", fmt.Errorf("%w: %w: gemini: %v", llm.ErrGeneration, llm.ErrUnauthorized, err)
		}
		return "", fmt.Errorf("%w: gemini: %v", llm.ErrGeneration, err)
	}

	// Leading and trailing blank lines are kept; they become empty paragraphs.
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %w", llm.ErrGeneration, llm.ErrEmptyResponse)
	}

	fields := map[string]any{"provider": "gemini", "model": c.model}
	if resp.UsageMetadata != nil {
		fields["prompt_tokens"] = resp.UsageMetadata.PromptTokenCount
		fields["completion_tokens"] = resp.UsageMetadata.CandidatesTokenCount
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)
	return text, nil
}

func isAuthError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusUnauthorized || apiErrPtr.Code == http.StatusForbidden
	}
	return false
}

var _ llm.Generator = (*Client)(nil)
