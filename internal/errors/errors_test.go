package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
		severity Severity
		retry    bool
	}{
		{"config", ErrCodeConfigInvalid, CategoryConfig, SeverityError, false},
		{"empty corpus", ErrCodeEmptyCorpus, CategoryStorage, SeverityError, false},
		{"backend unavailable", ErrCodeBackendUnavailable, CategoryBackend, SeverityWarning, true},
		{"backend timeout", ErrCodeBackendTimeout, CategoryBackend, SeverityWarning, true},
		{"corrupt index", ErrCodeCorruptIndex, CategoryStorage, SeverityFatal, false},
		{"validation", ErrCodeMalformedRewrite, CategoryValidation, SeverityError, false},
		{"internal", ErrCodeInternal, CategoryInternal, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retry, err.Retryable)
		})
	}
}

func TestError_Format(t *testing.T) {
	err := New(ErrCodeEmptyCorpus, "no documents indexed", nil)
	assert.Equal(t, "[ERR_201_EMPTY_CORPUS] no documents indexed", err.Error())
}

func TestError_UnwrapChain(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := BackendUnavailable("ollama unreachable", cause)

	require.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))

	// Wrapping with %w keeps code detection working.
	wrapped := fmt.Errorf("retrieve: %w", err)
	assert.True(t, HasCode(wrapped, ErrCodeBackendUnavailable))
	assert.True(t, IsRetryable(wrapped))
}

func TestError_IsMatchesByCode(t *testing.T) {
	a := EmptyCorpus("empty")
	b := EmptyCorpus("also empty")
	assert.True(t, stderrors.Is(a, b))

	c := BackendUnavailable("down", nil)
	assert.False(t, stderrors.Is(a, c))
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := InvalidConfiguration("k must be positive").
		WithDetail("k", "-1").
		WithSuggestion("set retrieval.top_k to a positive integer")

	assert.Equal(t, "-1", err.Details["k"])
	assert.NotEmpty(t, err.Suggestion)
}

func TestIsRetryable_PlainError(t *testing.T) {
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
	assert.False(t, IsRetryable(nil))
}
