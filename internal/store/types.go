// Package store provides the persistence layer for docqa: a BM25
// keyword index (bleve), an HNSW vector store, and a SQLite document
// store holding chunk content and metadata.
package store

import (
	"context"
	"fmt"
)

// Document is an indexed chunk of a source document.
type Document struct {
	// ID uniquely identifies the chunk.
	ID string `json:"id"`

	// Content is the chunk text.
	Content string `json:"content"`

	// Source is the originating document (file path or logical name).
	Source string `json:"source"`

	// ChunkIndex is the position of this chunk within the source.
	ChunkIndex int `json:"chunk_index"`

	// Metadata carries additional key-value context.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// BM25Result is a single keyword search result.
type BM25Result struct {
	DocID string
	Score float64
}

// VectorResult is a single vector search result.
type VectorResult struct {
	ID       string
	Distance float32
	// Score is the normalized similarity in [0,1], higher is better.
	Score float32
}

// BM25Index provides keyword search using the BM25 algorithm.
type BM25Index interface {
	// Index adds documents to the index.
	Index(ctx context.Context, docs []*Document) error

	// Search returns documents matching the query, scored by BM25.
	// Raw BM25 scores are unbounded, higher is better.
	Search(ctx context.Context, query string, limit int) ([]*BM25Result, error)

	// Delete removes documents from the index.
	Delete(ctx context.Context, docIDs []string) error

	// Count returns the number of indexed documents.
	Count() int

	Close() error
}

// VectorStore provides semantic nearest-neighbor search.
type VectorStore interface {
	// Add inserts vectors with their IDs. Existing IDs are replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search finds the k nearest neighbors to the query vector.
	// Results carry normalized similarity in [0,1], higher is better.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)

	// Delete removes vectors by ID.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored vectors.
	Count() int

	// Save persists the store to disk.
	Save(path string) error

	// Load restores the store from disk.
	Load(path string) error

	Close() error
}

// DocumentStore persists chunk content and metadata.
type DocumentStore interface {
	// Put inserts or replaces documents.
	Put(ctx context.Context, docs []*Document) error

	// Get fetches a document by ID. Returns nil when absent.
	Get(ctx context.Context, id string) (*Document, error)

	// GetBatch fetches documents by ID, skipping absent IDs.
	GetBatch(ctx context.Context, ids []string) ([]*Document, error)

	// Delete removes documents by ID.
	Delete(ctx context.Context, ids []string) error

	// DeleteBySource removes all chunks of a source document.
	DeleteBySource(ctx context.Context, source string) ([]string, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	Close() error
}

// ErrDimensionMismatch indicates a vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
