package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_PacksParagraphs(t *testing.T) {
	c, err := NewChunker(100, 20)
	require.NoError(t, err)

	content := "First paragraph here.\n\nSecond paragraph here.\n\nThird paragraph here."
	docs := c.Chunk("doc.txt", content)

	require.Len(t, docs, 1)
	assert.Equal(t, "doc.txt#0", docs[0].ID)
	assert.Equal(t, "doc.txt", docs[0].Source)
	assert.Equal(t, 0, docs[0].ChunkIndex)
	assert.Contains(t, docs[0].Content, "First paragraph")
	assert.Contains(t, docs[0].Content, "Third paragraph")
}

func TestChunker_SplitsAtSizeBoundary(t *testing.T) {
	c, err := NewChunker(50, 10)
	require.NoError(t, err)

	content := strings.Repeat("aaaa ", 8) + "\n\n" + strings.Repeat("bbbb ", 8)
	docs := c.Chunk("doc.txt", content)

	require.Len(t, docs, 2)
	assert.Contains(t, docs[0].Content, "aaaa")
	assert.Contains(t, docs[1].Content, "bbbb")
	assert.Equal(t, 1, docs[1].ChunkIndex)
}

func TestChunker_WindowsOversizedParagraph(t *testing.T) {
	c, err := NewChunker(100, 20)
	require.NoError(t, err)

	docs := c.Chunk("big.txt", strings.Repeat("x", 250))

	require.Len(t, docs, 3)
	// Steps of size-overlap=80, so consecutive windows share text.
	assert.Len(t, docs[0].Content, 100)
	for i, d := range docs {
		assert.Equal(t, i, d.ChunkIndex)
	}
}

func TestChunker_EmptyAndWhitespaceContent(t *testing.T) {
	c, err := NewChunker(100, 20)
	require.NoError(t, err)

	assert.Empty(t, c.Chunk("a.txt", ""))
	assert.Empty(t, c.Chunk("a.txt", "   \n\n  \n"))
}

func TestChunker_DeterministicIDs(t *testing.T) {
	c, err := NewChunker(100, 20)
	require.NoError(t, err)

	first := c.Chunk("doc.txt", "some content")
	second := c.Chunk("doc.txt", "some content")
	require.Len(t, first, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestChunker_RejectsOverlapNotBelowSize(t *testing.T) {
	_, err := NewChunker(100, 100)
	assert.Error(t, err)
	_, err = NewChunker(100, 150)
	assert.Error(t, err)
}

func TestChunker_NormalizesCRLF(t *testing.T) {
	c, err := NewChunker(100, 20)
	require.NoError(t, err)

	docs := c.Chunk("doc.txt", "para one\r\n\r\npara two")
	require.Len(t, docs, 1)
	assert.NotContains(t, docs[0].Content, "\r")
}
