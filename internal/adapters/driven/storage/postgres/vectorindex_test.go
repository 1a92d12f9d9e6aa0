package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[]", formatVector(nil))
	assert.Equal(t, "[1,0.5,-2]", formatVector([]float32{1, 0.5, -2}))
	assert.Equal(t, "[0.1]", formatVector([]float32{0.1}))
}

func TestStagesOrEmpty(t *testing.T) {
	assert.Equal(t, []string{}, stagesOrEmpty(nil))
	assert.Equal(t, []string{"RAW"}, stagesOrEmpty([]string{"RAW"}))
}

// newTestIndex connects to FOLIO_TEST_POSTGRES_DSN or skips.
func newTestIndex(t *testing.T) *VectorIndex {
	t.Helper()
	dsn := os.Getenv("FOLIO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FOLIO_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	table := fmt.Sprintf("folio_embeddings_test_%d", time.Now().UnixNano())
	idx, err := NewVectorIndex(ctx, dsn, WithTable(table))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, idx.Drop(ctx))
		assert.NoError(t, idx.Close())
	})
	return idx
}

func TestVectorIndex_Integration(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := []driven.VectorEntry{
		{Ref: "a", VersionID: "a", ChapterID: "c1", Stage: domain.StageGenerated, CreatedAt: base, Embedding: []float32{1, 0}},
		{Ref: "b", VersionID: "b", ChapterID: "c1", Stage: domain.StageRaw, CreatedAt: base, Embedding: []float32{0, 1}},
		{Ref: "c", VersionID: "c", ChapterID: "c2", Stage: domain.StageGenerated, CreatedAt: base, Embedding: []float32{1, 0, 0}},
	}
	for _, e := range entries {
		require.NoError(t, idx.Add(ctx, e))
	}

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	has, err := idx.Has(ctx, "b")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = idx.Has(ctx, "zzz")
	require.NoError(t, err)
	assert.False(t, has)

	hits, err := idx.Search(ctx, []float32{1, 0}, 5, domain.VersionFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].VersionID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)

	hits, err = idx.Search(ctx, []float32{1, 0}, 5, domain.VersionFilter{Stages: []domain.Stage{domain.StageRaw}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].VersionID)

	hits, err = idx.Search(ctx, []float32{1, 0, 0}, 5, domain.VersionFilter{ChapterID: "c1"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}
