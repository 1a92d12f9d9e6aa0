package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService provides semantic search over committed versions.
type SearchService struct {
	store    driven.VersionStore
	semantic *SemanticIndex
	topK     int
}

// NewSearchService creates a new search service.
// semantic may be nil when no embedding provider is configured.
func NewSearchService(store driven.VersionStore, semantic *SemanticIndex, topK int) *SearchService {
	return &SearchService{
		store:    store,
		semantic: semantic,
		topK:     topK,
	}
}

// Available reports whether semantic search is configured.
func (s *SearchService) Available() bool {
	return s.semantic != nil
}

// Search returns versions whose meaning is closest to the query.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}
	if s.semantic == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.topK
	}
	if limit <= 0 {
		limit = domain.DefaultSettings().Search.SimilarityTopK
	}
	logger.Debug("Limit: %d, chapter: %q, stages: %v", limit, opts.ChapterID, opts.Stages)

	hits, err := s.semantic.Query(ctx, query, limit, opts.Filter())
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	titles := make(map[string]string)
	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		v, err := s.store.Get(ctx, hit.VersionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get version %s: %w", hit.VersionID, err)
		}

		title, ok := titles[v.ChapterID]
		if !ok {
			if ch, err := s.store.GetChapter(ctx, v.ChapterID); err == nil {
				title = ch.Title
			}
			titles[v.ChapterID] = title
		}

		results = append(results, domain.SearchResult{
			Version:      *v,
			ChapterTitle: title,
			Score:        hit.Similarity,
		})
	}

	logger.Info("Final results: %d", len(results))
	return results, nil
}

// Reconcile indexes committed versions missing from the vector index.
func (s *SearchService) Reconcile(ctx context.Context) (int, error) {
	if s.semantic == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}
	return s.semantic.Reconcile(ctx)
}

// IndexSize returns the number of entries in the vector index.
func (s *SearchService) IndexSize(ctx context.Context) (int, error) {
	if s.semantic == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}
	return s.semantic.Size(ctx)
}
