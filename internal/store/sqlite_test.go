package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocStore(t *testing.T) *SQLiteDocumentStore {
	t.Helper()
	s, err := NewSQLiteDocumentStore(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDocumentStore_PutGet(t *testing.T) {
	s := newDocStore(t)
	ctx := context.Background()

	docs := []*Document{
		{ID: "d1", Content: "first chunk", Source: "a.txt", ChunkIndex: 0, Metadata: map[string]string{"lang": "en"}},
		{ID: "d2", Content: "second chunk", Source: "a.txt", ChunkIndex: 1},
	}
	require.NoError(t, s.Put(ctx, docs))

	got, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first chunk", got.Content)
	assert.Equal(t, "a.txt", got.Source)
	assert.Equal(t, 0, got.ChunkIndex)
	assert.Equal(t, "en", got.Metadata["lang"])

	missing, err := s.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDocumentStore_PutReplaces(t *testing.T) {
	s := newDocStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, []*Document{{ID: "d1", Content: "old", Source: "a.txt"}}))
	require.NoError(t, s.Put(ctx, []*Document{{ID: "d1", Content: "new", Source: "a.txt"}}))

	got, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Content)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentStore_GetBatchPreservesOrder(t *testing.T) {
	s := newDocStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, []*Document{
		{ID: "d1", Content: "one", Source: "a.txt", ChunkIndex: 0},
		{ID: "d2", Content: "two", Source: "a.txt", ChunkIndex: 1},
		{ID: "d3", Content: "three", Source: "a.txt", ChunkIndex: 2},
	}))

	got, err := s.GetBatch(ctx, []string{"d3", "missing", "d1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d3", got[0].ID)
	assert.Equal(t, "d1", got[1].ID)
}

func TestDocumentStore_DeleteBySource(t *testing.T) {
	s := newDocStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, []*Document{
		{ID: "a0", Content: "x", Source: "a.txt", ChunkIndex: 0},
		{ID: "a1", Content: "y", Source: "a.txt", ChunkIndex: 1},
		{ID: "b0", Content: "z", Source: "b.txt", ChunkIndex: 0},
	}))

	deleted, err := s.DeleteBySource(ctx, "a.txt")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a0", "a1"}, deleted)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	none, err := s.DeleteBySource(ctx, "missing.txt")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDocumentStore_InMemory(t *testing.T) {
	s, err := NewSQLiteDocumentStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Put(context.Background(), []*Document{{ID: "d1", Content: "x", Source: "a"}}))
	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
