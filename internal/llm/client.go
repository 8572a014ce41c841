// Package llm provides text-completion clients for the answering agent
// and query transformation. Collaborator failures surface as typed
// errors so callers can fall back deterministically.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/docqa-dev/docqa/internal/config"
	"github.com/docqa-dev/docqa/internal/errors"
)

// Client generates text completions.
type Client interface {
	// Complete generates a completion for the prompt. Returns
	// ERR_301_BACKEND_UNAVAILABLE or ERR_302_BACKEND_TIMEOUT when the
	// backend cannot be reached, ERR_303_EMPTY_COMPLETION when the
	// backend answers with no text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Available reports whether the backend is reachable.
	Available(ctx context.Context) bool

	// ModelName returns the model identifier in use.
	ModelName() string
}

// New creates a Client from configuration.
func New(cfg config.LLMConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{
			Host:    cfg.OllamaHost,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	case "anthropic":
		return NewAnthropicClient(AnthropicConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
	default:
		return nil, errors.InvalidConfiguration("llm.provider must be 'ollama' or 'anthropic'").
			WithDetail("provider", cfg.Provider)
	}
}

// NewWithRetry creates a Client wrapped with exponential-backoff retry.
func NewWithRetry(cfg config.LLMConfig) (Client, error) {
	inner, err := New(cfg)
	if err != nil {
		return nil, err
	}

	retryCfg := errors.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}
	if cfg.Timeout > 0 && cfg.Timeout < retryCfg.MaxDelay {
		retryCfg.MaxDelay = cfg.Timeout
	}

	return NewRetryingClient(inner, retryCfg), nil
}

// healthCheckTimeout bounds availability probes.
const healthCheckTimeout = 2 * time.Second
