package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/teilomillet/gollm"
)

// Config selects the provider and model for a gollm-backed generator.
// If APIKey is empty, gollm reads it from the provider's usual environment
// variable.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns a working configuration for the given provider.
func DefaultConfig(provider string) Config {
	cfg := Config{
		Provider:    provider,
		MaxTokens:   4096,
		Temperature: 0.7,
	}
	switch provider {
	case "anthropic":
		cfg.Model = "claude-sonnet-4-5-20250514"
	default:
		cfg.Model = "gpt-4o-mini"
	}
	return cfg
}

// GollmGenerator implements Generator over a gollm.LLM instance.
type GollmGenerator struct {
	provider string
	llm      gollm.LLM
}

// NewGollmGenerator creates a generator for the configured provider.
func NewGollmGenerator(cfg Config) (*GollmGenerator, error) {
	if cfg.Provider == "" {
		return nil, &ConfigurationError{SDKError: SDKError{Message: "provider is required"}}
	}
	model := cfg.Model
	if model == "" {
		model = DefaultConfig(cfg.Provider).Model
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	opts := []gollm.ConfigOption{
		gollm.SetProvider(cfg.Provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(maxTokens),
		gollm.SetTemperature(cfg.Temperature),
		gollm.SetMaxRetries(0), // retries are handled by middleware
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if cfg.APIKey != "" {
		opts = append(opts, gollm.SetAPIKey(cfg.APIKey))
	}

	inner, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, fmt.Errorf("create gollm LLM for provider %s: %w", cfg.Provider, err)
	}
	return &GollmGenerator{provider: cfg.Provider, llm: inner}, nil
}

// Generate sends the prompt and returns the completed text.
func (g *GollmGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := g.llm.Generate(ctx, gollm.NewPrompt(prompt))
	if err != nil {
		return "", g.translateError(err)
	}
	return text, nil
}

// translateError converts a gollm error into the error hierarchy, classified
// by message content since gollm does not expose structured errors.
func (g *GollmGenerator) translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	msgLower := strings.ToLower(msg)

	switch {
	case strings.Contains(msgLower, "401") || strings.Contains(msgLower, "unauthorized") || strings.Contains(msgLower, "invalid api key"):
		return &AuthenticationError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: g.provider, StatusCode: 401,
		}}
	case strings.Contains(msgLower, "403") || strings.Contains(msgLower, "forbidden"):
		return &AccessDeniedError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: g.provider, StatusCode: 403,
		}}
	case strings.Contains(msgLower, "404") || strings.Contains(msgLower, "not found"):
		return &NotFoundError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: g.provider, StatusCode: 404,
		}}
	case strings.Contains(msgLower, "429") || strings.Contains(msgLower, "rate limit"):
		return &RateLimitError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: g.provider, StatusCode: 429, Retryable: true,
		}}
	case strings.Contains(msgLower, "context length") || strings.Contains(msgLower, "too many tokens"):
		return &ContextLengthError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: g.provider, StatusCode: 413,
		}}
	case strings.Contains(msgLower, "500") || strings.Contains(msgLower, "internal server"):
		return &ServerError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: g.provider, StatusCode: 500, Retryable: true,
		}}
	case strings.Contains(msgLower, "timeout"):
		return &RequestTimeoutError{SDKError: SDKError{Message: msg, Cause: err}}
	case strings.Contains(msgLower, "content filter") || strings.Contains(msgLower, "safety"):
		return &ContentFilterError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: g.provider,
		}}
	default:
		// Unknown provider errors default to retryable.
		return &ProviderError{
			SDKError:  SDKError{Message: msg, Cause: err},
			Provider:  g.provider,
			Retryable: true,
		}
	}
}
