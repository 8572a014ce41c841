// Package retrieval implements the retrieval and relevance-decision
// engine: vector similarity, hybrid keyword+vector fusion, multi-query
// expansion, and the gate that decides whether retrieved evidence is
// sufficient to answer.
package retrieval

import (
	"context"
	"math"

	"github.com/docqa-dev/docqa/internal/errors"
	"github.com/docqa-dev/docqa/internal/store"
)

// Strategy selects the retrieval path.
type Strategy string

const (
	// StrategySimilarity is plain vector nearest-neighbor retrieval.
	StrategySimilarity Strategy = "similarity"
	// StrategyHybrid fuses BM25 and vector results by rank.
	StrategyHybrid Strategy = "hybrid"
	// StrategyMultiQuery retrieves per query variant and merges by
	// best score.
	StrategyMultiQuery Strategy = "multiquery"
)

// ScoredDocument is a document with its per-query relevance score.
// Ephemeral, never persisted.
type ScoredDocument struct {
	Document *store.Document `json:"document"`

	// Score is in [0,1], higher is more relevant. For the hybrid path
	// this is a fused rank-based score, not a similarity measure.
	Score float64 `json:"score"`

	// Strategy is the retrieval path that produced this document.
	Strategy Strategy `json:"strategy"`
}

// RetrievalResult is an ordered sequence of scored documents.
// Documents are sorted by score descending with no duplicate IDs.
type RetrievalResult struct {
	Documents        []*ScoredDocument `json:"documents"`
	QueryProcessed   string            `json:"query_processed"`
	StrategyUsed     Strategy          `json:"strategy_used"`
	TotalFound       int               `json:"total_found"`
	ProcessingTimeMS int64             `json:"processing_time_ms"`
}

// BestScore returns the highest score in the result, or 0 when empty.
func (r *RetrievalResult) BestScore() float64 {
	if len(r.Documents) == 0 {
		return 0
	}
	return r.Documents[0].Score
}

// Retriever produces scored documents for a query. Implementations:
// vector similarity, hybrid fusion, multi-query expansion.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (*RetrievalResult, error)
}

// Weights holds fusion weights for hybrid retrieval.
type Weights struct {
	BM25   float64 `json:"bm25"`
	Vector float64 `json:"vector"`
}

// DefaultWeights returns the default hybrid fusion weights.
func DefaultWeights() Weights {
	return Weights{BM25: 0.3, Vector: 0.7}
}

// Validate rejects negative or all-zero weights.
func (w Weights) Validate() error {
	if w.BM25 < 0 || w.Vector < 0 {
		return errors.New(errors.ErrCodeInvalidWeights, "fusion weights must be non-negative", nil)
	}
	if w.BM25+w.Vector == 0 {
		return errors.New(errors.ErrCodeInvalidWeights, "fusion weights must not both be zero", nil)
	}
	return nil
}

// Normalized returns weights scaled to sum to 1.
func (w Weights) Normalized() Weights {
	sum := w.BM25 + w.Vector
	if sum == 0 || math.Abs(sum-1.0) < 1e-9 {
		return w
	}
	return Weights{BM25: w.BM25 / sum, Vector: w.Vector / sum}
}

// validateK rejects non-positive k at construction or call time.
func validateK(k int) error {
	if k <= 0 {
		return errors.New(errors.ErrCodeInvalidK, "k must be positive", nil)
	}
	return nil
}
