// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/planforge/internal/cloud"
	"github.com/jeranaias/planforge/internal/config"
	"github.com/jeranaias/planforge/internal/logging"
	"github.com/jeranaias/planforge/internal/ollama"
	"github.com/jeranaias/planforge/internal/pipeline"
)

// ErrUnknownProvider is returned by New for a provider name it cannot build.
var ErrUnknownProvider = errors.New("unknown llm provider")

// New returns the Generator described by cfg, throttled to
// cfg.RequestsPerSecond and logging every call at debug level.
func New(cfg config.LLMConfig, logger *slog.Logger) (pipeline.Generator, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	gen, err := newProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	gen = WithLogging(gen, logger.With("provider", strings.ToLower(cfg.Provider), "model", cfg.ActiveModel()))
	return WithRateLimit(gen, cfg.RequestsPerSecond, cfg.Burst), nil
}

func newProvider(cfg config.LLMConfig, logger *slog.Logger) (pipeline.Generator, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second

	switch strings.ToLower(cfg.Provider) {
	case config.ProviderOpenAI, "":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, cloud.ErrNotConfigured
		}
		return cloud.NewClient(cloud.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     timeout,
			MaxRetries:  cfg.MaxRetries,
			Logger:      logger,
		}), nil

	case config.ProviderOllama:
		opts := &ollama.Options{Temperature: cfg.Temperature}
		if cfg.MaxTokens > 0 {
			opts.NumPredict = cfg.MaxTokens
		}
		return ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.OllamaURL,
			Timeout:      timeout,
			DefaultModel: cfg.OllamaModel,
			Options:      opts,
		}), nil
	}

	return nil, fmt.Errorf("%w %q", ErrUnknownProvider, cfg.Provider)
}

// Check reports whether the configured provider looks usable: an API key for
// openai, a reachable server holding the model for ollama. It makes no
// generate call.
func Check(ctx context.Context, cfg config.LLMConfig) error {
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderOllama:
		client := ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.OllamaURL,
			Timeout:      5 * time.Second,
			DefaultModel: cfg.OllamaModel,
		})
		if err := client.CheckRunning(ctx); err != nil {
			return err
		}
		model := client.GetDefaultModel()
		ok, err := client.ModelExists(ctx, model)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s (run: ollama pull %s)", ollama.ErrModelNotFound, model, model)
		}
		return nil
	case config.ProviderOpenAI, "":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return cloud.ErrNotConfigured
		}
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownProvider, cfg.Provider)
}

// =============================================================================
// WRAPPERS
// =============================================================================

type rateLimited struct {
	next    pipeline.Generator
	limiter *rate.Limiter
}

// WithRateLimit returns gen throttled to rps calls per second with the given
// burst. All runs sharing the returned Generator share the budget. A
// non-positive rps returns gen unchanged.
func WithRateLimit(gen pipeline.Generator, rps float64, burst int) pipeline.Generator {
	if rps <= 0 {
		return gen
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{next: gen, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *rateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.Generate(ctx, prompt)
}

type logged struct {
	next   pipeline.Generator
	logger *slog.Logger
}

// WithLogging logs each call's stage, prompt size, response size and
// duration at debug level, and failures at warn level.
func WithLogging(gen pipeline.Generator, logger *slog.Logger) pipeline.Generator {
	if logger == nil {
		return gen
	}
	return &logged{next: gen, logger: logger}
}

func (l *logged) Generate(ctx context.Context, prompt string) (string, error) {
	stage, _ := pipeline.StageFromContext(ctx)
	start := time.Now()

	text, err := l.next.Generate(ctx, prompt)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		l.logger.Warn("generate failed",
			"stage", string(stage),
			"elapsed", elapsed,
			"reason", failureReason(err),
			"error", err)
		return text, err
	}
	l.logger.Debug("generate completed",
		"stage", string(stage),
		"prompt_chars", len(prompt),
		"response_chars", len(text),
		"elapsed", elapsed)
	return text, nil
}

// failureReason names the category of a provider error for log filtering.
func failureReason(err error) string {
	switch {
	case ollama.IsNotRunning(err):
		return "not_running"
	case ollama.IsModelNotFound(err), errors.Is(err, cloud.ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, ollama.ErrContextExceeded):
		return "context_exceeded"
	case ollama.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, cloud.ErrAuthFailed), errors.Is(err, cloud.ErrNotConfigured):
		return "auth"
	case errors.Is(err, cloud.ErrRateLimited):
		return "rate_limited"
	}
	return "error"
}
