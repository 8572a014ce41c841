package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/docqa-dev/docqa/internal/errors"
)

// Engine is the retrieval facade: it routes a query to the configured
// strategy and attaches the relevance decision to every result.
type Engine struct {
	similarity *SimilarityRetriever
	hybrid     *HybridRetriever
	multiquery *MultiQueryExpander
	gate       *RelevanceGate
	defaultK   int
	logger     *slog.Logger
}

// EngineConfig wires the engine's strategies.
type EngineConfig struct {
	Similarity *SimilarityRetriever
	Hybrid     *HybridRetriever
	MultiQuery *MultiQueryExpander
	Gate       *RelevanceGate
	DefaultK   int
	Logger     *slog.Logger
}

// NewEngine creates the retrieval engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Similarity == nil {
		return nil, errors.InvalidConfiguration("similarity retriever is required")
	}
	if cfg.Gate == nil {
		return nil, errors.InvalidConfiguration("relevance gate is required")
	}
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		similarity: cfg.Similarity,
		hybrid:     cfg.Hybrid,
		multiquery: cfg.MultiQuery,
		gate:       cfg.Gate,
		defaultK:   cfg.DefaultK,
		logger:     cfg.Logger,
	}, nil
}

// Retrieve runs the query through the chosen strategy. k <= 0 uses the
// configured default.
func (e *Engine) Retrieve(ctx context.Context, query string, strategy Strategy, k int) (*RetrievalResult, RelevanceDecision, error) {
	if strings.TrimSpace(query) == "" {
		return nil, RelevanceDecision{}, errors.New(errors.ErrCodeQueryEmpty, "query must not be empty", nil)
	}
	if k <= 0 {
		k = e.defaultK
	}

	retriever, err := e.forStrategy(strategy)
	if err != nil {
		return nil, RelevanceDecision{}, err
	}

	result, err := retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, RelevanceDecision{}, err
	}

	decision := e.gate.Check(result)

	e.logger.Info("retrieval_complete",
		slog.String("strategy", string(result.StrategyUsed)),
		slog.Int("results", result.TotalFound),
		slog.String("decision", string(decision.Decision)),
		slog.Float64("best_score", decision.BestScore),
		slog.Int64("elapsed_ms", result.ProcessingTimeMS))

	return result, decision, nil
}

// Gate exposes the relevance gate for callers that need to re-check
// after answer generation.
func (e *Engine) Gate() *RelevanceGate {
	return e.gate
}

// ForStrategy resolves the retriever for a strategy name. Callers like
// the evaluator use it to run a single strategy directly.
func (e *Engine) ForStrategy(strategy Strategy) (Retriever, error) {
	return e.forStrategy(strategy)
}

// forStrategy resolves the retriever for a strategy name, falling back
// to similarity for strategies that were not wired.
func (e *Engine) forStrategy(strategy Strategy) (Retriever, error) {
	switch strategy {
	case StrategySimilarity, "":
		return e.similarity, nil
	case StrategyHybrid:
		if e.hybrid == nil {
			return nil, errors.InvalidConfiguration("hybrid retrieval is not configured")
		}
		return e.hybrid, nil
	case StrategyMultiQuery:
		if e.multiquery == nil {
			return nil, errors.InvalidConfiguration("multiquery retrieval is not configured")
		}
		return e.multiquery, nil
	default:
		return nil, errors.ValidationError("unknown retrieval strategy", nil).
			WithDetail("strategy", string(strategy))
	}
}
