package mcp

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	lastOpt domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastOpt = opts
	return m.results, m.err
}

func (m *mockSearchService) Reconcile(_ context.Context) (int, error) {
	return 0, m.err
}

func (m *mockSearchService) IndexSize(_ context.Context) (int, error) {
	return 0, m.err
}

func (m *mockSearchService) Available() bool {
	return true
}

// mockChapterService is a mock implementation of driving.ChapterService.
type mockChapterService struct {
	chapters []domain.Chapter
	lineage  []domain.Version
	history  []domain.Version
	version  *domain.Version
	err      error
}

func (m *mockChapterService) List(_ context.Context) ([]domain.Chapter, error) {
	return m.chapters, m.err
}

func (m *mockChapterService) Get(_ context.Context, id string) (*domain.Chapter, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.chapters {
		if m.chapters[i].ID == id {
			return &m.chapters[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockChapterService) Head(_ context.Context, _ string) (*domain.Version, error) {
	if len(m.lineage) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.lineage[len(m.lineage)-1], m.err
}

func (m *mockChapterService) Lineage(_ context.Context, _ string) ([]domain.Version, error) {
	return m.lineage, m.err
}

func (m *mockChapterService) History(_ context.Context, _ string) ([]domain.Version, error) {
	return m.history, m.err
}

func (m *mockChapterService) Version(_ context.Context, _ string) (*domain.Version, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.version == nil {
		return nil, domain.ErrNotFound
	}
	return m.version, nil
}

func (m *mockChapterService) Feedback(_ context.Context, _ string) ([]domain.FeedbackRecord, error) {
	return nil, m.err
}

var (
	_ driving.SearchService  = (*mockSearchService)(nil)
	_ driving.ChapterService = (*mockChapterService)(nil)
)

func strPtr(s string) *string { return &s }

func aliceChapter() domain.Chapter {
	return domain.Chapter{
		ID:            "ch-1",
		Title:         "Down the Rabbit-Hole",
		SourceRef:     "https://example.com/alice/1",
		Status:        domain.ChapterFinalized,
		HeadVersionID: "v-3",
	}
}

func aliceLineage() []domain.Version {
	return []domain.Version{
		{ID: "v-1", ChapterID: "ch-1", Sequence: 1, Stage: domain.StageRaw, Content: "Alice was beginning to get very tired."},
		{
			ID: "v-2", ChapterID: "ch-1", Sequence: 2, Stage: domain.StageCritiqued, Iteration: 1,
			ParentID: strPtr("v-1"), Critique: strPtr("Too slow."), Content: "Alice grew tired on the bank.",
			Decision: &domain.Decision{Kind: domain.DecisionAccept},
		},
		{ID: "v-3", ChapterID: "ch-1", Sequence: 3, Stage: domain.StageFinal, Iteration: 1, ParentID: strPtr("v-2"), Content: "Alice grew tired on the bank."},
	}
}
