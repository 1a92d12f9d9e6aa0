package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// overfetch is the extra candidates requested from the vector index so that
// dropping invisible versions still leaves k results.
const overfetch = 2

// SemanticIndex embeds committed versions and answers meaning-based queries.
// Index writes always happen after the store write, and every query result
// is checked against the store.
type SemanticIndex struct {
	store    driven.VersionStore
	embedder driven.EmbeddingService
	vectors  driven.VectorIndex
}

// NewSemanticIndex creates a semantic index over the given store.
func NewSemanticIndex(
	store driven.VersionStore,
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
) *SemanticIndex {
	return &SemanticIndex{
		store:    store,
		embedder: embedder,
		vectors:  vectors,
	}
}

// Index embeds a committed version and stores the vector under its
// embedding ref. Returns the ref.
func (s *SemanticIndex) Index(ctx context.Context, v *domain.Version) (string, error) {
	if v == nil || v.ID == "" {
		return "", fmt.Errorf("%w: version must be committed before indexing", domain.ErrInvalidInput)
	}
	ref := refOf(v)

	vec, err := s.embedder.Embed(ctx, v.Content)
	if err != nil {
		return "", fmt.Errorf("embed version %s: %w", v.ID, err)
	}

	err = s.vectors.Add(ctx, driven.VectorEntry{
		Ref:       ref,
		VersionID: v.ID,
		ChapterID: v.ChapterID,
		Stage:     v.Stage,
		CreatedAt: v.CreatedAt,
		Embedding: vec,
	})
	if err != nil {
		return "", fmt.Errorf("index version %s: %w", v.ID, err)
	}

	logger.Debug("Indexed version %s (%s) as %s", v.ID, v.Stage, ref)
	return ref, nil
}

// Query returns up to k versions closest in meaning to text, ordered by
// descending similarity, ties broken by most recent first.
func (s *SemanticIndex) Query(
	ctx context.Context, text string, k int, filter domain.VersionFilter,
) ([]domain.SemanticHit, error) {
	text = strings.TrimSpace(text)
	if text == "" || k <= 0 {
		return []domain.SemanticHit{}, nil
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectors.Search(ctx, vec, k+overfetch*k, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	driven.SortHits(hits)

	results := make([]domain.SemanticHit, 0, k)
	for _, hit := range hits {
		if len(results) == k {
			break
		}
		if _, err := s.store.Get(ctx, hit.VersionID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Dropping index entry %s: version %s not in store", hit.Ref, hit.VersionID)
				continue
			}
			return nil, fmt.Errorf("check version %s: %w", hit.VersionID, err)
		}
		results = append(results, domain.SemanticHit{
			VersionID:  hit.VersionID,
			Similarity: hit.Similarity,
			CreatedAt:  hit.CreatedAt,
		})
	}
	return results, nil
}

// Size returns the number of entries in the vector index.
func (s *SemanticIndex) Size(ctx context.Context) (int, error) {
	n, err := s.vectors.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count index entries: %w", err)
	}
	return n, nil
}

// Reconcile indexes every committed version whose embedding ref is missing
// from the vector index. Missing versions are embedded reconcileBatch at a
// time; a failed batch is retried one version at a time so a single bad
// version does not hold back the rest. Returns the number of versions indexed.
func (s *SemanticIndex) Reconcile(ctx context.Context) (int, error) {
	logger.Section("Index Reconcile")

	versions, err := s.store.ListVersions(ctx, domain.VersionFilter{})
	if err != nil {
		return 0, fmt.Errorf("list versions: %w", err)
	}

	var missing []*domain.Version
	for i := range versions {
		v := &versions[i]
		has, err := s.vectors.Has(ctx, refOf(v))
		if err != nil {
			return 0, fmt.Errorf("check %s: %w", refOf(v), err)
		}
		if !has {
			missing = append(missing, v)
		}
	}
	logger.Debug("Reconcile: %d of %d versions missing from the index", len(missing), len(versions))

	var errs []error
	indexed := 0
	for start := 0; start < len(missing); start += reconcileBatch {
		batch := missing[start:min(start+reconcileBatch, len(missing))]

		n, err := s.indexBatch(ctx, batch)
		indexed += n
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return indexed, ctx.Err()
		}
		logger.Warn("Reconcile: batch failed (%v), indexing one at a time", err)

		for _, v := range batch[n:] {
			if _, err := s.Index(ctx, v); err != nil {
				if ctx.Err() != nil {
					return indexed, ctx.Err()
				}
				logger.Warn("Reconcile: %v", err)
				errs = append(errs, err)
				continue
			}
			indexed++
		}
	}

	logger.Info("Reconcile indexed %d of %d versions", indexed, len(versions))
	return indexed, errors.Join(errs...)
}

// reconcileBatch bounds how many versions are embedded per request.
const reconcileBatch = 16

// indexBatch embeds a batch with one request and adds every vector.
func (s *SemanticIndex) indexBatch(ctx context.Context, batch []*domain.Version) (int, error) {
	texts := make([]string, len(batch))
	for i, v := range batch {
		texts[i] = v.Content
	}

	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed batch: %w", err)
	}
	if len(vecs) != len(batch) {
		return 0, fmt.Errorf("embed batch: got %d vectors for %d versions", len(vecs), len(batch))
	}

	for i, v := range batch {
		err := s.vectors.Add(ctx, driven.VectorEntry{
			Ref:       refOf(v),
			VersionID: v.ID,
			ChapterID: v.ChapterID,
			Stage:     v.Stage,
			CreatedAt: v.CreatedAt,
			Embedding: vecs[i],
		})
		if err != nil {
			return i, fmt.Errorf("index version %s: %w", v.ID, err)
		}
	}
	return len(batch), nil
}

// refOf is the vector index key of a committed version.
func refOf(v *domain.Version) string {
	if v.EmbeddingRef != "" {
		return v.EmbeddingRef
	}
	return v.ID
}
