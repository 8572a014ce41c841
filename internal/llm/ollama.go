package llm

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docqa-dev/docqa/internal/errors"
)

// Default Ollama client configuration.
const (
	DefaultOllamaHost    = "http://localhost:11434"
	DefaultOllamaModel   = "llama3.2"
	DefaultOllamaTimeout = 60 * time.Second
)

// OllamaConfig configures the Ollama client.
type OllamaConfig struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// OllamaClient generates completions via a local Ollama server.
type OllamaClient struct {
	client *http.Client
	host   string
	model  string
}

// generateRequest is the Ollama /api/generate request body.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is the Ollama /api/generate response body.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient creates an Ollama-backed Client.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultOllamaTimeout
	}

	return &OllamaClient{
		client: &http.Client{Timeout: cfg.Timeout},
		host:   strings.TrimSuffix(cfg.Host, "/"),
		model:  cfg.Model,
	}
}

// Complete generates a completion via /api/generate.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.InternalError("marshal generate request", err)
	}

	url := c.host + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.InternalError("create generate request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return "", errors.New(errors.ErrCodeBackendTimeout, "ollama request timed out", err).
				WithDetail("host", c.host)
		}
		return "", errors.BackendUnavailable("ollama is not reachable", err).
			WithDetail("host", c.host).
			WithSuggestion("check that ollama is running (ollama serve)")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errors.BackendUnavailable("ollama returned an error",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))).
			WithDetail("status", fmt.Sprintf("%d", resp.StatusCode))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", errors.New(errors.ErrCodeBackendUnavailable, "failed to decode ollama response", err)
	}

	text := strings.TrimSpace(genResp.Response)
	if text == "" {
		return "", errors.New(errors.ErrCodeEmptyCompletion, "ollama returned an empty completion", nil).
			WithDetail("model", c.model)
	}

	return text, nil
}

// Available checks if the Ollama server is reachable via /api/tags.
func (c *OllamaClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// ModelName returns the model being used.
func (c *OllamaClient) ModelName() string {
	return c.model
}

// isTimeout reports whether the error is a network timeout.
func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	var t timeout
	return stderrors.As(err, &t) && t.Timeout()
}
