package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docqa-dev/docqa/internal/agent"
	"github.com/docqa-dev/docqa/internal/config"
	"github.com/docqa-dev/docqa/internal/embed"
	"github.com/docqa-dev/docqa/internal/eval"
	"github.com/docqa-dev/docqa/internal/ingest"
	"github.com/docqa-dev/docqa/internal/llm"
	"github.com/docqa-dev/docqa/internal/retrieval"
	"github.com/docqa-dev/docqa/internal/store"
)

// app wires the full dependency graph once per command invocation.
// Everything is constructed explicitly here; nothing holds globals.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	embedder embed.Embedder
	vectors  *store.HNSWStore
	bm25     *store.BleveBM25Index
	docs     *store.SQLiteDocumentStore

	vector   *retrieval.EmbeddingRetriever
	engine   *retrieval.Engine
	llm      llm.Client
	agent    *agent.Agent
	pipeline *ingest.Pipeline
	eval     *eval.Engine
	evalDB   *eval.FileStore
}

func (a *app) vectorIndexPath() string {
	return filepath.Join(a.cfg.Eval.DataDir, "vectors.idx")
}

// newApp builds the application from configuration. The vector index
// is restored from disk when a previous run saved one.
func newApp(cfg *config.Config) (*app, error) {
	logger := slog.Default()
	dataDir := cfg.Eval.DataDir

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}

	embedder, err := embed.New(cfg.Embeddings)
	if err != nil {
		return nil, err
	}

	vectors, err := store.NewHNSWStore(store.HNSWConfig{Dimensions: cfg.Embeddings.Dimensions})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, embedder: embedder, vectors: vectors}
	if _, err := os.Stat(a.vectorIndexPath()); err == nil {
		if err := vectors.Load(a.vectorIndexPath()); err != nil {
			a.close()
			return nil, err
		}
	}

	a.bm25, err = store.NewBleveBM25Index(filepath.Join(dataDir, "index.bleve"))
	if err != nil {
		a.close()
		return nil, err
	}

	a.docs, err = store.NewSQLiteDocumentStore(filepath.Join(dataDir, "docs.db"))
	if err != nil {
		a.close()
		return nil, err
	}

	a.llm, err = llm.NewWithRetry(cfg.LLM)
	if err != nil {
		a.close()
		return nil, err
	}

	a.vector = retrieval.NewEmbeddingRetriever(embedder, vectors, a.docs, logger)
	similarity := retrieval.NewSimilarityRetriever(a.vector)

	weights := retrieval.Weights{BM25: cfg.Retrieval.BM25Weight, Vector: cfg.Retrieval.VectorWeight}
	hybrid, err := retrieval.NewHybridRetriever(a.bm25, a.vector, a.docs, weights, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	multiquery, err := retrieval.NewMultiQueryExpander(
		similarity, a.llm, cfg.Retrieval.NumVariants, cfg.Retrieval.SimilarityThreshold, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	gate, err := retrieval.NewRelevanceGate(cfg.Retrieval.SimilarityThreshold)
	if err != nil {
		a.close()
		return nil, err
	}

	a.engine, err = retrieval.NewEngine(retrieval.EngineConfig{
		Similarity: similarity,
		Hybrid:     hybrid,
		MultiQuery: multiquery,
		Gate:       gate,
		DefaultK:   cfg.Retrieval.TopK,
		Logger:     logger,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.agent = agent.New(a.engine, a.llm, agent.NewSessionManager(cfg.Chat.MaxHistory), agent.Config{
		Strategy:   retrieval.Strategy(cfg.Retrieval.Strategy),
		TopK:       cfg.Retrieval.TopK,
		MaxSources: cfg.Chat.MaxSources,
	}, logger)

	chunker, err := ingest.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		a.close()
		return nil, err
	}
	a.pipeline = ingest.NewPipeline(chunker, a.vector, a.bm25, a.docs, logger)

	a.evalDB, err = eval.NewFileStore(filepath.Join(dataDir, "eval"))
	if err != nil {
		a.close()
		return nil, err
	}
	evalRetriever, err := a.engine.ForStrategy(retrieval.Strategy(cfg.Retrieval.Strategy))
	if err != nil {
		a.close()
		return nil, err
	}
	a.eval = eval.NewEngine(a.evalDB, evalRetriever, logger)

	return a, nil
}

// saveIndexes persists the vector index after write operations. The
// bleve and sqlite stores write through on their own.
func (a *app) saveIndexes() error {
	return a.vectors.Save(a.vectorIndexPath())
}

func (a *app) close() {
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.vectors != nil {
		_ = a.vectors.Close()
	}
	if a.bm25 != nil {
		_ = a.bm25.Close()
	}
	if a.docs != nil {
		_ = a.docs.Close()
	}
}
