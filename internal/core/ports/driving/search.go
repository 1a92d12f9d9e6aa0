package driving

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// SearchService provides semantic search over committed versions.
type SearchService interface {
	// Search returns the versions whose meaning is closest to the query.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Reconcile indexes committed versions missing from the vector index.
	// Returns the number of versions indexed.
	Reconcile(ctx context.Context) (int, error)

	// IndexSize returns the number of entries in the vector index.
	IndexSize(ctx context.Context) (int, error)

	// Available reports whether semantic search is configured.
	Available() bool
}
