package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoSearchService indicates that no search service was provided.
	ErrNoSearchService = errors.New("search service is required")

	// ErrSearchUnavailable indicates no embedding provider is configured.
	ErrSearchUnavailable = errors.New("semantic search unavailable: configure an embedding provider with 'folio settings'")
)
