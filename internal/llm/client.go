// Package llm provides the text-completion client used for product detail lookups.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// DefaultBaseURL is the OpenAI-compatible Gemini endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-2.0-flash"

	defaultTemperature = 0.3
	defaultMaxTokens   = 1024
)

// ErrMissingAPIKey is returned by NewClient when no key is configured.
var ErrMissingAPIKey = errors.New("llm: api key required")

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// Config holds the client settings.
type Config struct {
	APIKey  string `json:"-"`
	BaseURL string
	Model   string
}

// Client sends single-prompt completions to an OpenAI-compatible endpoint.
type Client struct {
	model  llms.Model
	tokens *TokenCounter
	name   string
}

// NewClient creates a completion client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	return &Client{model: model, tokens: NewTokenCounter(), name: cfg.Model}, nil
}

// Complete sends prompt and returns the generated text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	log.Debug().
		Str("model", c.name).
		Int("prompt_tokens", c.tokens.Count(prompt)).
		Msg("Sending detail prompt")

	text, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithTemperature(defaultTemperature),
		llms.WithMaxTokens(defaultMaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
