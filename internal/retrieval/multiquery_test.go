package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqa-dev/docqa/internal/store"
)

// scriptedLLM returns a fixed completion or error.
type scriptedLLM struct {
	response string
	err      error
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func (s *scriptedLLM) Available(ctx context.Context) bool { return s.err == nil }
func (s *scriptedLLM) ModelName() string                  { return "scripted" }

// recordingRetriever records queries and returns canned results.
type recordingRetriever struct {
	mu      sync.Mutex
	queries []string
	results map[string][]*ScoredDocument
}

func (r *recordingRetriever) Retrieve(ctx context.Context, query string, k int) (*RetrievalResult, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()

	return &RetrievalResult{
		Documents:      r.results[query],
		QueryProcessed: query,
		StrategyUsed:   StrategySimilarity,
		TotalFound:     len(r.results[query]),
	}, nil
}

func scored(source string, chunk int, score float64) *ScoredDocument {
	return &ScoredDocument{
		Document: &store.Document{
			ID:         fmt.Sprintf("%s-%d", source, chunk),
			Content:    fmt.Sprintf("content of %s chunk %d", source, chunk),
			Source:     source,
			ChunkIndex: chunk,
		},
		Score: score,
	}
}

func TestMultiQuery_VariantsAlwaysIncludeOriginal(t *testing.T) {
	base := &recordingRetriever{results: map[string][]*ScoredDocument{}}

	for _, llmErr := range []error{nil, fmt.Errorf("llm down")} {
		m, err := NewMultiQueryExpander(base, &scriptedLLM{response: "variant one\nvariant two", err: llmErr}, 3, 0, slog.Default())
		require.NoError(t, err)

		variants := m.GenerateVariants(context.Background(), "what is photosynthesis?")
		require.NotEmpty(t, variants)
		assert.Equal(t, "what is photosynthesis?", variants[0])
		assert.LessOrEqual(t, len(variants), 3)
	}
}

func TestMultiQuery_TemplateFallback(t *testing.T) {
	base := &recordingRetriever{results: map[string][]*ScoredDocument{}}
	m, err := NewMultiQueryExpander(base, &scriptedLLM{err: fmt.Errorf("unavailable")}, 4, 0, slog.Default())
	require.NoError(t, err)

	variants := m.GenerateVariants(context.Background(), "photosynthesis?")
	require.Len(t, variants, 4)
	assert.Equal(t, "photosynthesis?", variants[0])
	assert.Equal(t, "What is photosynthesis?", variants[1])
	assert.Equal(t, "Explain photosynthesis", variants[2])
	assert.Equal(t, "Information about photosynthesis", variants[3])
}

func TestMultiQuery_SingleVariantSkipsLLM(t *testing.T) {
	base := &recordingRetriever{results: map[string][]*ScoredDocument{}}
	m, err := NewMultiQueryExpander(base, nil, 1, 0, slog.Default())
	require.NoError(t, err)

	variants := m.GenerateVariants(context.Background(), "q")
	assert.Equal(t, []string{"q"}, variants)
}

func TestMultiQuery_MergeKeepsBestScore(t *testing.T) {
	original := "tell me about paris"
	base := &recordingRetriever{results: map[string][]*ScoredDocument{
		original:                 {scored("paris.txt", 0, 0.6), scored("tokyo.txt", 0, 0.4)},
		"What is tell me about paris?": {scored("paris.txt", 0, 0.9)},
	}}

	m, err := NewMultiQueryExpander(base, &scriptedLLM{err: fmt.Errorf("down")}, 2, 0, slog.Default())
	require.NoError(t, err)

	result, err := m.Retrieve(context.Background(), original, 4)
	require.NoError(t, err)

	require.Len(t, result.Documents, 2)
	assert.Equal(t, "paris.txt", result.Documents[0].Document.Source)
	assert.Equal(t, 0.9, result.Documents[0].Score)
	assert.Equal(t, StrategyMultiQuery, result.Documents[0].Strategy)
	assert.Equal(t, original, result.QueryProcessed)
}

func TestMultiQuery_ThresholdFilters(t *testing.T) {
	original := "query"
	base := &recordingRetriever{results: map[string][]*ScoredDocument{
		original: {scored("a.txt", 0, 0.8), scored("b.txt", 0, 0.3)},
	}}

	m, err := NewMultiQueryExpander(base, nil, 1, 0.5, slog.Default())
	require.NoError(t, err)

	result, err := m.Retrieve(context.Background(), original, 4)
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "a.txt", result.Documents[0].Document.Source)
}

func TestMultiQuery_ReturnsUpToTwoK(t *testing.T) {
	original := "query"
	docs := make([]*ScoredDocument, 10)
	for i := range docs {
		docs[i] = scored(fmt.Sprintf("s%d.txt", i), 0, 1.0-float64(i)*0.05)
	}
	base := &recordingRetriever{results: map[string][]*ScoredDocument{original: docs}}

	m, err := NewMultiQueryExpander(base, nil, 1, 0, slog.Default())
	require.NoError(t, err)

	result, err := m.Retrieve(context.Background(), original, 3)
	require.NoError(t, err)
	assert.Len(t, result.Documents, 6)
}

func TestMultiQuery_RetrievesPerVariant(t *testing.T) {
	base := &recordingRetriever{results: map[string][]*ScoredDocument{}}
	m, err := NewMultiQueryExpander(base, &scriptedLLM{response: "alpha\nbeta"}, 3, 0, slog.Default())
	require.NoError(t, err)

	_, err = m.Retrieve(context.Background(), "gamma", 2)
	require.NoError(t, err)

	base.mu.Lock()
	defer base.mu.Unlock()
	assert.Len(t, base.queries, 3)
	assert.Contains(t, base.queries, "gamma")
	assert.Contains(t, base.queries, "alpha")
	assert.Contains(t, base.queries, "beta")
}
