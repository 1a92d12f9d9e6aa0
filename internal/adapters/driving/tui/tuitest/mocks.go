// Package tuitest provides driving port fakes shared by the TUI tests.
package tuitest

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

var (
	_ driving.ChapterService  = (*ChapterService)(nil)
	_ driving.SearchService   = (*SearchService)(nil)
	_ driving.SettingsService = (*SettingsService)(nil)
)

// ChapterService implements driving.ChapterService with overridable funcs.
type ChapterService struct {
	ListFunc     func(ctx context.Context) ([]domain.Chapter, error)
	GetFunc      func(ctx context.Context, chapterID string) (*domain.Chapter, error)
	HeadFunc     func(ctx context.Context, chapterID string) (*domain.Version, error)
	LineageFunc  func(ctx context.Context, chapterID string) ([]domain.Version, error)
	HistoryFunc  func(ctx context.Context, chapterID string) ([]domain.Version, error)
	VersionFunc  func(ctx context.Context, versionID string) (*domain.Version, error)
	FeedbackFunc func(ctx context.Context, chapterID string) ([]domain.FeedbackRecord, error)
}

func (m *ChapterService) List(ctx context.Context) ([]domain.Chapter, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *ChapterService) Get(ctx context.Context, chapterID string) (*domain.Chapter, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, chapterID)
	}
	return nil, domain.ErrNotFound
}

func (m *ChapterService) Head(ctx context.Context, chapterID string) (*domain.Version, error) {
	if m.HeadFunc != nil {
		return m.HeadFunc(ctx, chapterID)
	}
	return nil, domain.ErrNotFound
}

func (m *ChapterService) Lineage(ctx context.Context, chapterID string) ([]domain.Version, error) {
	if m.LineageFunc != nil {
		return m.LineageFunc(ctx, chapterID)
	}
	return nil, nil
}

func (m *ChapterService) History(ctx context.Context, chapterID string) ([]domain.Version, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, chapterID)
	}
	return nil, nil
}

func (m *ChapterService) Version(ctx context.Context, versionID string) (*domain.Version, error) {
	if m.VersionFunc != nil {
		return m.VersionFunc(ctx, versionID)
	}
	return nil, domain.ErrNotFound
}

func (m *ChapterService) Feedback(ctx context.Context, chapterID string) ([]domain.FeedbackRecord, error) {
	if m.FeedbackFunc != nil {
		return m.FeedbackFunc(ctx, chapterID)
	}
	return nil, nil
}

// SearchService implements driving.SearchService with overridable funcs.
type SearchService struct {
	SearchFunc    func(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
	ReconcileFunc func(ctx context.Context) (int, error)
	Unavailable   bool
	Size          int
}

func (m *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, opts)
	}
	return nil, nil
}

func (m *SearchService) Reconcile(ctx context.Context) (int, error) {
	if m.ReconcileFunc != nil {
		return m.ReconcileFunc(ctx)
	}
	return 0, nil
}

func (m *SearchService) IndexSize(_ context.Context) (int, error) {
	return m.Size, nil
}

func (m *SearchService) Available() bool {
	return !m.Unavailable
}

// SettingsService implements driving.SettingsService over an in-memory value.
type SettingsService struct {
	Settings domain.Settings
	Err      error
	Calls    []string
}

// NewSettingsService returns a fake seeded with defaults and three iterations.
func NewSettingsService() *SettingsService {
	s := domain.DefaultSettings()
	s.Revision.MaxIterations = 3
	return &SettingsService{Settings: s}
}

func (m *SettingsService) Get() (*domain.Settings, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.Settings
	return &s, nil
}

func (m *SettingsService) SetMaxIterations(n int) error {
	m.Calls = append(m.Calls, "max_iterations")
	if m.Err != nil {
		return m.Err
	}
	m.Settings.Revision.MaxIterations = n
	return nil
}

func (m *SettingsService) SetEditPolicy(policy domain.EditPolicy) error {
	m.Calls = append(m.Calls, "edit_policy")
	if m.Err != nil {
		return m.Err
	}
	m.Settings.Revision.EditPolicy = policy
	return nil
}

func (m *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model string) error {
	m.Calls = append(m.Calls, "embedding")
	if m.Err != nil {
		return m.Err
	}
	m.Settings.Embedding.Provider = provider
	m.Settings.Embedding.Model = model
	return nil
}

func (m *SettingsService) SetLLMProvider(provider domain.AIProvider, model string) error {
	m.Calls = append(m.Calls, "llm")
	if m.Err != nil {
		return m.Err
	}
	m.Settings.LLM.Provider = provider
	m.Settings.LLM.Model = model
	return nil
}

func (m *SettingsService) SetIndexBackend(backend domain.IndexBackend, dsn string) error {
	m.Calls = append(m.Calls, "index")
	if m.Err != nil {
		return m.Err
	}
	m.Settings.Index.Backend = backend
	m.Settings.Index.DSN = dsn
	return nil
}

func (m *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}
