// Package ingest turns source files into indexed document chunks and
// keeps the indexes current as files change.
package ingest

import (
	"fmt"
	"strings"

	"github.com/docqa-dev/docqa/internal/errors"
	"github.com/docqa-dev/docqa/internal/store"
)

// Chunker defaults, in characters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits text into paragraph-aligned chunks. Paragraphs are
// packed into chunks up to Size characters; paragraphs longer than
// Size are split on a sliding window with Overlap characters carried
// between windows.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Overlap must be smaller than size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		return nil, errors.InvalidConfiguration("chunk overlap must be smaller than chunk size")
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits content into documents attributed to source. Chunk IDs
// are deterministic (source plus chunk index) so re-ingesting a file
// replaces its previous chunks instead of duplicating them.
func (c *Chunker) Chunk(source, content string) []*store.Document {
	pieces := c.split(content)

	docs := make([]*store.Document, 0, len(pieces))
	for i, text := range pieces {
		docs = append(docs, &store.Document{
			ID:         ChunkID(source, i),
			Content:    text,
			Source:     source,
			ChunkIndex: i,
			Metadata: map[string]string{
				"chunking": "paragraph",
			},
		})
	}
	return docs
}

// ChunkID derives the deterministic ID for a chunk of a source.
func ChunkID(source string, index int) string {
	return fmt.Sprintf("%s#%d", source, index)
}

func (c *Chunker) split(content string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		text := strings.TrimSpace(current.String())
		if text != "" {
			chunks = append(chunks, text)
		}
		current.Reset()
	}

	for _, para := range splitParagraphs(content) {
		if len(para) > c.size {
			flush()
			chunks = append(chunks, c.window(para)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(para)+2 > c.size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// window splits an oversized paragraph on a sliding window.
func (c *Chunker) window(text string) []string {
	var chunks []string
	step := c.size - c.overlap

	for start := 0; start < len(text); start += step {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}
		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			chunks = append(chunks, piece)
		}
		if end == len(text) {
			break
		}
	}
	return chunks
}

func splitParagraphs(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var paragraphs []string
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para != "" {
			paragraphs = append(paragraphs, para)
		}
	}
	return paragraphs
}
