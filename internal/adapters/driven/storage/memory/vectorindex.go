package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory brute-force implementation of driven.VectorIndex.
type VectorIndex struct {
	mu      sync.RWMutex
	entries map[string]driven.VectorEntry
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		entries: make(map[string]driven.VectorEntry),
	}
}

// Add stores an embedding entry.
func (i *VectorIndex) Add(_ context.Context, entry driven.VectorEntry) error {
	if entry.Ref == "" || len(entry.Embedding) == 0 {
		return domain.ErrInvalidInput
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	entry.Embedding = append([]float32(nil), entry.Embedding...)
	i.entries[entry.Ref] = entry
	return nil
}

// Search returns the k most similar entries passing the filter. Entries with
// a different vector size than the query are skipped.
func (i *VectorIndex) Search(
	_ context.Context, query []float32, k int, filter domain.VersionFilter,
) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(i.entries))
	for _, e := range i.entries {
		if len(e.Embedding) != len(query) || !filter.Matches(e.ChapterID, e.Stage) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			Ref:        e.Ref,
			VersionID:  e.VersionID,
			Similarity: domain.CosineSimilarity(query, e.Embedding),
			CreatedAt:  e.CreatedAt,
		})
	}
	driven.SortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Has reports whether an entry exists for the ref.
func (i *VectorIndex) Has(_ context.Context, ref string) (bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.entries[ref]
	return ok, nil
}

// Count returns the number of stored entries.
func (i *VectorIndex) Count(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries), nil
}

// Close releases resources.
func (i *VectorIndex) Close() error {
	return nil
}
