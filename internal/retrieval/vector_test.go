package retrieval

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqa-dev/docqa/internal/embed"
	"github.com/docqa-dev/docqa/internal/store"
)

func newTestRetriever(t *testing.T) *EmbeddingRetriever {
	t.Helper()

	vectors, err := store.NewHNSWStore(store.HNSWConfig{Dimensions: embed.StaticDimensions})
	require.NoError(t, err)
	t.Cleanup(func() { _ = vectors.Close() })

	docs, err := store.NewSQLiteDocumentStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = docs.Close() })

	return NewEmbeddingRetriever(embed.NewStaticEmbedder(), vectors, docs, slog.Default())
}

func corpusDocs() []*store.Document {
	return []*store.Document{
		{ID: "paris-0", Content: "Paris is the capital of France and home to the Eiffel Tower", Source: "paris.txt", ChunkIndex: 0},
		{ID: "tokyo-0", Content: "Tokyo is the capital of Japan and the largest city in the world", Source: "tokyo.txt", ChunkIndex: 0},
		{ID: "ml-0", Content: "Machine learning models are trained on large datasets using gradient descent", Source: "ml.txt", ChunkIndex: 0},
	}
}

func TestEmbeddingRetriever_QueryRanksBySimilarity(t *testing.T) {
	r := newTestRetriever(t)
	ctx := context.Background()

	ids, err := r.Add(ctx, corpusDocs())
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.Equal(t, 3, r.Count())

	results, err := r.Query(ctx, "capital of France Paris Eiffel Tower", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "paris-0", results[0].Document.ID)
	assert.Equal(t, StrategySimilarity, results[0].Strategy)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	for _, res := range results {
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 1.0)
	}
}

func TestEmbeddingRetriever_EmptyCorpus(t *testing.T) {
	r := newTestRetriever(t)

	results, err := r.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEmbeddingRetriever_InvalidK(t *testing.T) {
	r := newTestRetriever(t)

	_, err := r.Query(context.Background(), "anything", 0)
	assert.Error(t, err)
}

func TestSimilarityRetriever_BuildsResult(t *testing.T) {
	r := newTestRetriever(t)
	ctx := context.Background()
	_, err := r.Add(ctx, corpusDocs())
	require.NoError(t, err)

	sim := NewSimilarityRetriever(r)
	result, err := sim.Retrieve(ctx, "machine learning training", 2)
	require.NoError(t, err)

	assert.Equal(t, StrategySimilarity, result.StrategyUsed)
	assert.Equal(t, "machine learning training", result.QueryProcessed)
	assert.Equal(t, len(result.Documents), result.TotalFound)
	assert.NotEmpty(t, result.Documents)
	assert.Equal(t, "ml-0", result.Documents[0].Document.ID)
}
