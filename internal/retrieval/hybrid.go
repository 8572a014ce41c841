package retrieval

import (
	"context"
	"log/slog"
	"time"

	"github.com/docqa-dev/docqa/internal/errors"
	"github.com/docqa-dev/docqa/internal/store"
)

// HybridRetriever composes BM25 and vector retrieval through the rank
// fuser. The fused scores are rank-based, not similarity values.
type HybridRetriever struct {
	bm25    store.BM25Index
	vector  VectorRetriever
	docs    store.DocumentStore
	fuser   *RankFuser
	weights Weights
	logger  *slog.Logger
}

// NewHybridRetriever creates a hybrid retriever. Weights are validated
// at construction and renormalized to sum to 1.
func NewHybridRetriever(bm25 store.BM25Index, vector VectorRetriever, docs store.DocumentStore, weights Weights, logger *slog.Logger) (*HybridRetriever, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HybridRetriever{
		bm25:    bm25,
		vector:  vector,
		docs:    docs,
		fuser:   NewRankFuser(),
		weights: weights.Normalized(),
		logger:  logger,
	}, nil
}

// Retrieve queries both sub-retrievers independently and fuses their
// ranked lists. If one sub-retriever fails, the other's results are
// returned alone; if both fail, a retrieval error propagates.
func (h *HybridRetriever) Retrieve(ctx context.Context, query string, k int) (*RetrievalResult, error) {
	if err := validateK(k); err != nil {
		return nil, err
	}

	start := time.Now()

	bm25Docs, bm25Err := h.queryBM25(ctx, query, k)
	vecDocs, vecErr := h.queryVector(ctx, query, k)

	if bm25Err != nil && vecErr != nil {
		return nil, errors.New(errors.ErrCodeRetrievalFailed, "both keyword and vector retrieval failed", vecErr).
			WithDetail("bm25_error", bm25Err.Error())
	}
	if bm25Err != nil {
		h.logger.Warn("bm25_retrieval_degraded", slog.String("error", bm25Err.Error()))
	}
	if vecErr != nil {
		h.logger.Warn("vector_retrieval_degraded", slog.String("error", vecErr.Error()))
	}

	fused := h.fuser.Fuse([]RankedList{
		{Documents: bm25Docs, Weight: h.weights.BM25},
		{Documents: vecDocs, Weight: h.weights.Vector},
	}, k)

	return &RetrievalResult{
		Documents:        fused,
		QueryProcessed:   query,
		StrategyUsed:     StrategyHybrid,
		TotalFound:       len(fused),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}, nil
}

// queryBM25 returns the hydrated BM25 ranked list, best first.
func (h *HybridRetriever) queryBM25(ctx context.Context, query string, k int) ([]*store.Document, error) {
	hits, err := h.bm25.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.DocID
	}

	return h.docs.GetBatch(ctx, ids)
}

// queryVector returns the vector ranked list, best first.
func (h *HybridRetriever) queryVector(ctx context.Context, query string, k int) ([]*store.Document, error) {
	scored, err := h.vector.Query(ctx, query, k)
	if err != nil {
		return nil, err
	}

	docs := make([]*store.Document, len(scored))
	for i, s := range scored {
		docs[i] = s.Document
	}
	return docs, nil
}

var _ Retriever = (*HybridRetriever)(nil)
