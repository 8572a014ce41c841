package llm

import (
	"context"

	"github.com/docqa-dev/docqa/internal/errors"
)

// RetryingClient wraps a Client with exponential-backoff retry for
// transient backend failures. Non-retryable errors (empty completion,
// validation) pass through immediately.
type RetryingClient struct {
	inner Client
	cfg   errors.RetryConfig
}

// NewRetryingClient wraps the client with retry behavior.
func NewRetryingClient(inner Client, cfg errors.RetryConfig) *RetryingClient {
	return &RetryingClient{inner: inner, cfg: cfg}
}

// Complete generates a completion, retrying transient failures.
func (c *RetryingClient) Complete(ctx context.Context, prompt string) (string, error) {
	return errors.RetryWithResult(ctx, c.cfg, func() (string, error) {
		text, err := c.inner.Complete(ctx, prompt)
		if err != nil && !errors.IsRetryable(err) {
			return "", errors.Permanent(err)
		}
		return text, err
	})
}

// Available delegates to the inner client.
func (c *RetryingClient) Available(ctx context.Context) bool {
	return c.inner.Available(ctx)
}

// ModelName delegates to the inner client.
func (c *RetryingClient) ModelName() string {
	return c.inner.ModelName()
}
