package driven

import (
	"context"
	"sort"
	"time"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// VectorIndex provides semantic similarity search operations.
// Entries are append-only; there is no delete.
type VectorIndex interface {
	// Add stores an embedding entry under its ref.
	// Adding an existing ref replaces the vector.
	Add(ctx context.Context, entry VectorEntry) error

	// Search finds the k nearest entries to the query vector that pass the filter.
	// Hits are ordered by descending similarity, ties by most recent CreatedAt.
	Search(ctx context.Context, query []float32, k int, filter domain.VersionFilter) ([]VectorHit, error)

	// Has reports whether an entry exists for the ref.
	Has(ctx context.Context, ref string) (bool, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorEntry is one stored embedding with its filter metadata.
type VectorEntry struct {
	// Ref is the embedding reference stored on the version.
	Ref string

	// VersionID is the owning version.
	VersionID string

	// ChapterID and Stage support filtered queries.
	ChapterID string
	Stage     domain.Stage

	// CreatedAt is the version's creation time (tie breaker).
	CreatedAt time.Time

	// Embedding is the vector.
	Embedding []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Ref is the matched embedding reference.
	Ref string

	// VersionID is the matched version.
	VersionID string

	// Similarity is the cosine similarity score.
	Similarity float64

	// CreatedAt is the matched version's creation time.
	CreatedAt time.Time
}

// SortHits orders hits by descending similarity, ties by most recent first.
func SortHits(hits []VectorHit) {
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Similarity != hits[b].Similarity {
			return hits[a].Similarity > hits[b].Similarity
		}
		return hits[a].CreatedAt.After(hits[b].CreatedAt)
	})
}
