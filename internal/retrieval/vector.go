package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/docqa-dev/docqa/internal/embed"
	"github.com/docqa-dev/docqa/internal/errors"
	"github.com/docqa-dev/docqa/internal/store"
)

// VectorRetriever is the nearest-neighbor collaborator interface.
// Implementations must tolerate an empty corpus by returning an empty
// list, not an error.
type VectorRetriever interface {
	// Query returns up to k documents by embedding similarity, scored
	// with normalized similarity in [0,1], best first.
	Query(ctx context.Context, text string, k int) ([]*ScoredDocument, error)

	// Add embeds and indexes documents, returning their IDs.
	Add(ctx context.Context, docs []*store.Document) ([]string, error)

	// Delete removes documents from the vector index by ID.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of indexed documents.
	Count() int
}

// EmbeddingRetriever implements VectorRetriever over an embedder, an
// HNSW vector store, and the document store for hydration.
type EmbeddingRetriever struct {
	embedder embed.Embedder
	vectors  store.VectorStore
	docs     store.DocumentStore
	logger   *slog.Logger
}

// NewEmbeddingRetriever creates a vector retriever.
func NewEmbeddingRetriever(embedder embed.Embedder, vectors store.VectorStore, docs store.DocumentStore, logger *slog.Logger) *EmbeddingRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingRetriever{
		embedder: embedder,
		vectors:  vectors,
		docs:     docs,
		logger:   logger,
	}
}

// Query embeds the text and returns the nearest documents with
// normalized similarity scores.
func (r *EmbeddingRetriever) Query(ctx context.Context, text string, k int) ([]*ScoredDocument, error) {
	if err := validateK(k); err != nil {
		return nil, err
	}

	if r.vectors.Count() == 0 {
		return []*ScoredDocument{}, nil
	}

	start := time.Now()
	queryVec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, errors.New(errors.ErrCodeEmbeddingFailed, "failed to embed query", err)
	}

	hits, err := r.vectors.Search(ctx, queryVec, k)
	if err != nil {
		return nil, errors.New(errors.ErrCodeRetrievalFailed, "vector search failed", err)
	}

	ids := make([]string, len(hits))
	scoreByID := make(map[string]float64, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
		scoreByID[hit.ID] = NormalizeScore(float64(hit.Distance))
	}

	docs, err := r.docs.GetBatch(ctx, ids)
	if err != nil {
		return nil, errors.New(errors.ErrCodeStorageFailed, "failed to load documents", err)
	}

	results := make([]*ScoredDocument, 0, len(docs))
	for _, doc := range docs {
		results = append(results, &ScoredDocument{
			Document: doc,
			Score:    scoreByID[doc.ID],
			Strategy: StrategySimilarity,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	r.logger.Debug("vector_query_complete",
		slog.Int("results", len(results)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return results, nil
}

// Add embeds documents and writes them to the vector and document
// stores.
func (r *EmbeddingRetriever) Add(ctx context.Context, docs []*store.Document) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}

	texts := make([]string, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
		ids[i] = doc.ID
	}

	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, errors.New(errors.ErrCodeEmbeddingFailed, "failed to embed documents", err)
	}

	if err := r.vectors.Add(ctx, ids, vectors); err != nil {
		return nil, errors.New(errors.ErrCodeStorageFailed, "failed to index vectors", err)
	}

	if err := r.docs.Put(ctx, docs); err != nil {
		return nil, errors.New(errors.ErrCodeStorageFailed, "failed to store documents", err)
	}

	return ids, nil
}

// Delete removes vectors by document ID.
func (r *EmbeddingRetriever) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.vectors.Delete(ctx, ids); err != nil {
		return errors.New(errors.ErrCodeStorageFailed, "failed to delete vectors", err)
	}
	return nil
}

// Count returns the number of indexed vectors.
func (r *EmbeddingRetriever) Count() int {
	return r.vectors.Count()
}

var _ VectorRetriever = (*EmbeddingRetriever)(nil)

// SimilarityRetriever adapts a VectorRetriever to the Retriever
// interface, producing a full RetrievalResult.
type SimilarityRetriever struct {
	vector VectorRetriever
}

// NewSimilarityRetriever creates the plain vector retrieval strategy.
func NewSimilarityRetriever(vector VectorRetriever) *SimilarityRetriever {
	return &SimilarityRetriever{vector: vector}
}

// Retrieve runs a single vector query.
func (s *SimilarityRetriever) Retrieve(ctx context.Context, query string, k int) (*RetrievalResult, error) {
	start := time.Now()

	docs, err := s.vector.Query(ctx, query, k)
	if err != nil {
		return nil, err
	}

	return &RetrievalResult{
		Documents:        docs,
		QueryProcessed:   query,
		StrategyUsed:     StrategySimilarity,
		TotalFound:       len(docs),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}, nil
}

var _ Retriever = (*SimilarityRetriever)(nil)
