package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

var (
	_ driving.ChapterService  = (*mockChapterService)(nil)
	_ driving.RevisionService = (*mockRevisionService)(nil)
	_ driving.SearchService   = (*mockSearchService)(nil)
	_ driving.SettingsService = (*mockSettingsService)(nil)
)

func strPtr(s string) *string { return &s }

func testChapter() domain.Chapter {
	return domain.Chapter{
		ID:            "ch-1",
		Title:         "Down the Rabbit-Hole",
		SourceRef:     "https://example.com/alice/1",
		Status:        domain.ChapterFinalized,
		HeadVersionID: "v-3",
	}
}

func testLineage() []domain.Version {
	return []domain.Version{
		{ID: "v-1", ChapterID: "ch-1", Sequence: 1, Stage: domain.StageRaw, Content: "Alice was beginning to get very tired."},
		{
			ID: "v-2", ChapterID: "ch-1", Sequence: 2, Stage: domain.StageCritiqued, Iteration: 1,
			ParentID: strPtr("v-1"), Critique: strPtr("The opening drags."),
			Decision: &domain.Decision{Kind: domain.DecisionAccept}, Content: "Alice tired of the riverbank.",
		},
		{ID: "v-3", ChapterID: "ch-1", Sequence: 3, Stage: domain.StageFinal, Iteration: 1, ParentID: strPtr("v-2"), Content: "Alice tired of the riverbank."},
	}
}

// mockChapterService serves one chapter and its lineage.
type mockChapterService struct {
	chapters []domain.Chapter
	versions []domain.Version
	feedback []domain.FeedbackRecord
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
	if len(m.versions) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.versions[len(m.versions)-1], nil
}

func (m *mockChapterService) Lineage(_ context.Context, _ string) ([]domain.Version, error) {
	return m.versions, m.err
}

func (m *mockChapterService) History(_ context.Context, _ string) ([]domain.Version, error) {
	return m.versions, m.err
}

func (m *mockChapterService) Version(_ context.Context, id string) (*domain.Version, error) {
	for i := range m.versions {
		if m.versions[i].ID == id {
			return &m.versions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockChapterService) Feedback(_ context.Context, _ string) ([]domain.FeedbackRecord, error) {
	return m.feedback, m.err
}

// mockRevisionService records requests and returns canned results.
type mockRevisionService struct {
	mu       sync.Mutex
	started  []driving.StartRequest
	resumed  []string
	failRefs map[string]error
}

func (m *mockRevisionService) result(ref, title string) *driving.RunResult {
	if title == "" {
		title = ref
	}
	head := testLineage()[2]
	return &driving.RunResult{
		Chapter: domain.Chapter{ID: "ch-" + ref, Title: title, SourceRef: ref, Status: domain.ChapterFinalized},
		Head:    &head,
		Cycles:  1,
	}
}

func (m *mockRevisionService) Start(_ context.Context, req driving.StartRequest) (*driving.RunResult, error) {
	m.mu.Lock()
	m.started = append(m.started, req)
	m.mu.Unlock()
	if err := m.failRefs[req.SourceRef]; err != nil {
		return nil, err
	}
	return m.result(req.SourceRef, req.Title), nil
}

func (m *mockRevisionService) Resume(_ context.Context, chapterID string) (*driving.RunResult, error) {
	m.mu.Lock()
	m.resumed = append(m.resumed, chapterID)
	m.mu.Unlock()
	return m.result(chapterID, "Resumed"), nil
}

func (m *mockRevisionService) RunBatch(ctx context.Context, reqs []driving.StartRequest) []driving.BatchResult {
	out := make([]driving.BatchResult, len(reqs))
	for i, req := range reqs {
		res, err := m.Start(ctx, req)
		out[i] = driving.BatchResult{Request: req, Result: res, Err: err}
	}
	return out
}

// mockSearchService returns the lineage head for every query.
type mockSearchService struct {
	unavailable bool
	lastQuery   string
	lastOpts    domain.SearchOptions
	reconciled  int
	size        int
	err         error
}

func (m *mockSearchService) Search(
	_ context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return []domain.SearchResult{
		{Version: testLineage()[2], ChapterTitle: "Down the Rabbit-Hole", Score: 0.87},
	}, nil
}

func (m *mockSearchService) Reconcile(_ context.Context) (int, error) {
	return m.reconciled, m.err
}

func (m *mockSearchService) IndexSize(_ context.Context) (int, error) {
	return m.size, nil
}

func (m *mockSearchService) Available() bool {
	return !m.unavailable
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings domain.Settings
}

func newMockSettingsService() *mockSettingsService {
	s := domain.DefaultSettings()
	s.Revision.MaxIterations = 3
	return &mockSettingsService{settings: s}
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) SetMaxIterations(n int) error {
	if n <= 0 {
		return domain.ErrInvalidConfig
	}
	m.settings.Revision.MaxIterations = n
	return nil
}

func (m *mockSettingsService) SetEditPolicy(p domain.EditPolicy) error {
	if !p.IsValid() {
		return domain.ErrInvalidConfig
	}
	m.settings.Revision.EditPolicy = p
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model string) error {
	m.settings.Embedding.Provider = p
	m.settings.Embedding.Model = model
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model string) error {
	m.settings.LLM.Provider = p
	m.settings.LLM.Model = model
	return nil
}

func (m *mockSettingsService) SetIndexBackend(b domain.IndexBackend, dsn string) error {
	if !b.IsValid() {
		return domain.ErrInvalidConfig
	}
	m.settings.Index.Backend = b
	m.settings.Index.DSN = dsn
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// testServices are the fakes installed by setupTestServices.
type testServices struct {
	chapters *mockChapterService
	revision *mockRevisionService
	search   *mockSearchService
	settings *mockSettingsService
}

// setupTestServices installs fakes and returns a func restoring the globals.
func setupTestServices() func() {
	_, cleanup := setupTestServicesWith()
	return cleanup
}

func setupTestServicesWith() (*testServices, func()) {
	ts := &testServices{
		chapters: &mockChapterService{chapters: []domain.Chapter{testChapter()}, versions: testLineage()},
		revision: &mockRevisionService{},
		search:   &mockSearchService{},
		settings: newMockSettingsService(),
	}
	SetServices(&Services{
		Chapters: ts.chapters,
		Revision: ts.revision,
		Search:   ts.search,
		Settings: ts.settings,
	})
	return ts, func() {
		SetServices(nil)
		resetFlags()
	}
}

// resetFlags restores command flags that persist between executions.
func resetFlags() {
	searchLimit = 0
	activeGate = nil
	searchJSON = false
	searchChapter = ""
	searchStages = nil
	feedbackJSON = false
	runTitle = ""
	gateFlag = "auto"
	configDirFlag = ""
	verboseFlag = false
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	return executeWithInput("", args...)
}

// executeWithInput runs the root command reading stdin from input.
func executeWithInput(input string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
