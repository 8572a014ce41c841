package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docqa-dev/docqa/internal/errors"
	"github.com/docqa-dev/docqa/internal/retrieval"
	"github.com/docqa-dev/docqa/internal/store"
)

// ingestibleExtensions lists the file types the pipeline reads.
var ingestibleExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".rst":      true,
}

// Stats summarizes one ingestion run.
type Stats struct {
	Files   int `json:"files"`
	Chunks  int `json:"chunks"`
	Removed int `json:"removed"`
}

// Pipeline drives chunk, embed, and index for source files. Writes are
// serialized through a single mutex so a re-ingest never races a
// concurrent one; readers hit the underlying stores directly and are
// unaffected.
type Pipeline struct {
	chunker *Chunker
	vector  retrieval.VectorRetriever
	bm25    store.BM25Index
	docs    store.DocumentStore
	logger  *slog.Logger

	mu sync.Mutex
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(chunker *Chunker, vector retrieval.VectorRetriever, bm25 store.BM25Index, docs store.DocumentStore, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		chunker: chunker,
		vector:  vector,
		bm25:    bm25,
		docs:    docs,
		logger:  logger,
	}
}

// IngestPath ingests a file or directory tree.
func (p *Pipeline) IngestPath(ctx context.Context, path string) (*Stats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeIngestFailed, "cannot access ingest path", err)
	}

	if !info.IsDir() {
		return p.ingestFiles(ctx, []string{path})
	}

	var files []string
	err = filepath.WalkDir(path, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && file != path {
				return filepath.SkipDir
			}
			return nil
		}
		if ingestibleExtensions[strings.ToLower(filepath.Ext(file))] {
			files = append(files, file)
		}
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.ErrCodeIngestFailed, "failed to walk ingest directory", err)
	}

	return p.ingestFiles(ctx, files)
}

// Remove drops all chunks previously ingested from a source.
func (p *Pipeline) Remove(ctx context.Context, source string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeLocked(ctx, source)
}

func (p *Pipeline) ingestFiles(ctx context.Context, files []string) (*Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := &Stats{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chunks, removed, err := p.ingestFileLocked(ctx, file)
		if err != nil {
			return stats, err
		}

		stats.Files++
		stats.Chunks += chunks
		stats.Removed += removed
	}

	p.logger.Info("ingest_complete",
		slog.Int("files", stats.Files),
		slog.Int("chunks", stats.Chunks))
	return stats, nil
}

// ingestFileLocked replaces a file's chunks: old chunks are removed
// from every index first, then the new set is embedded and indexed.
func (p *Pipeline) ingestFileLocked(ctx context.Context, file string) (int, int, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return 0, 0, errors.New(errors.ErrCodeIngestFailed, "failed to read source file", err).
			WithDetail("file", file)
	}

	removed, err := p.removeLocked(ctx, file)
	if err != nil {
		return 0, 0, err
	}

	docs := p.chunker.Chunk(file, string(content))
	if len(docs) == 0 {
		return 0, removed, nil
	}

	if _, err := p.vector.Add(ctx, docs); err != nil {
		return 0, removed, errors.New(errors.ErrCodeIngestFailed, "failed to embed chunks", err).
			WithDetail("file", file)
	}
	if err := p.bm25.Index(ctx, docs); err != nil {
		return 0, removed, errors.New(errors.ErrCodeIngestFailed, "failed to index chunks", err).
			WithDetail("file", file)
	}

	p.logger.Debug("file_ingested",
		slog.String("file", file),
		slog.Int("chunks", len(docs)))
	return len(docs), removed, nil
}

func (p *Pipeline) removeLocked(ctx context.Context, source string) (int, error) {
	ids, err := p.docs.DeleteBySource(ctx, source)
	if err != nil {
		return 0, errors.New(errors.ErrCodeIngestFailed, "failed to remove stale chunks", err).
			WithDetail("source", source)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := p.bm25.Delete(ctx, ids); err != nil {
		return 0, errors.New(errors.ErrCodeIngestFailed, "failed to remove stale index entries", err)
	}
	if err := p.vector.Delete(ctx, ids); err != nil {
		return 0, errors.New(errors.ErrCodeIngestFailed, "failed to remove stale vectors", err)
	}
	return len(ids), nil
}
