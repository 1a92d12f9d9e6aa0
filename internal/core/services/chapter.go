package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

// Ensure ChapterService implements the interface.
var _ driving.ChapterService = (*ChapterService)(nil)

// ChapterService provides read access to chapters and their versions.
type ChapterService struct {
	store driven.VersionStore
}

// NewChapterService creates a new chapter service.
func NewChapterService(store driven.VersionStore) *ChapterService {
	return &ChapterService{store: store}
}

// List returns all chapters.
func (s *ChapterService) List(ctx context.Context) ([]domain.Chapter, error) {
	return s.store.ListChapters(ctx)
}

// Get retrieves a chapter by ID.
func (s *ChapterService) Get(ctx context.Context, chapterID string) (*domain.Chapter, error) {
	return s.store.GetChapter(ctx, chapterID)
}

// Head returns the chapter's current head version.
func (s *ChapterService) Head(ctx context.Context, chapterID string) (*domain.Version, error) {
	return s.store.Head(ctx, chapterID)
}

// Lineage returns the audit trail from RAW to the head.
func (s *ChapterService) Lineage(ctx context.Context, chapterID string) ([]domain.Version, error) {
	return s.store.Lineage(ctx, chapterID)
}

// History returns every committed version, superseded ones included.
func (s *ChapterService) History(ctx context.Context, chapterID string) ([]domain.Version, error) {
	return s.store.History(ctx, chapterID)
}

// Version retrieves a single version by ID.
func (s *ChapterService) Version(ctx context.Context, versionID string) (*domain.Version, error) {
	return s.store.Get(ctx, versionID)
}

// Feedback returns one record per committed version with its critique and
// decision. Versions outside the current lineage are marked superseded.
func (s *ChapterService) Feedback(ctx context.Context, chapterID string) ([]domain.FeedbackRecord, error) {
	history, err := s.store.History(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	lineage, err := s.store.Lineage(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("lineage: %w", err)
	}

	live := make(map[string]bool, len(lineage))
	for _, v := range lineage {
		live[v.ID] = true
	}

	records := make([]domain.FeedbackRecord, 0, len(history))
	for i := range history {
		v := &history[i]
		rec := domain.FeedbackRecord{
			VersionID:  v.ID,
			ChapterID:  v.ChapterID,
			Stage:      v.Stage,
			Iteration:  v.Iteration,
			Critique:   v.CritiqueText(),
			Superseded: !live[v.ID],
			CreatedAt:  v.CreatedAt,
		}
		if v.Decision != nil {
			rec.Decision = v.Decision.Kind
			rec.Edited = v.Decision.Kind == domain.DecisionEdit
		}
		records = append(records, rec)
	}
	return records, nil
}
