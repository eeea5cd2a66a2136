package llm

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps a generation call. It receives the prompt and a next
// function that calls the downstream generator, and returns the generated
// text.
type Middleware func(ctx context.Context, prompt string, next func(context.Context, string) (string, error)) (string, error)

// Chain applies middleware around a generator. The first middleware listed
// runs first.
func Chain(gen Generator, mw ...Middleware) Generator {
	handler := func(ctx context.Context, prompt string) (string, error) {
		return gen.Generate(ctx, prompt)
	}
	for i := len(mw) - 1; i >= 0; i-- {
		m := mw[i]
		next := handler
		handler = func(ctx context.Context, prompt string) (string, error) {
			return m(ctx, prompt, next)
		}
	}
	return GeneratorFunc(handler)
}

// WithLogging logs each generation round with its duration and outcome.
func WithLogging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, prompt string, next func(context.Context, string) (string, error)) (string, error) {
		start := time.Now()
		text, err := next(ctx, prompt)
		elapsed := time.Since(start)
		if err != nil {
			logger.Error("generation failed", "err", err, "elapsed", elapsed, "prompt_chars", len(prompt))
			return "", err
		}
		logger.Debug("generation completed", "elapsed", elapsed, "prompt_chars", len(prompt), "response_chars", len(text))
		return text, nil
	}
}

// WithRetry retries retryable failures per the policy.
func WithRetry(policy RetryPolicy) Middleware {
	return func(ctx context.Context, prompt string, next func(context.Context, string) (string, error)) (string, error) {
		return Retry(ctx, policy, func(ctx context.Context) (string, error) {
			return next(ctx, prompt)
		})
	}
}
