package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure VersionStore implements the interface.
var _ driven.VersionStore = (*VersionStore)(nil)

// VersionStore is an in-memory implementation of driven.VersionStore.
// A single lock serialises all writes.
type VersionStore struct {
	mu        sync.RWMutex
	chapters  map[string]domain.Chapter
	order     []string
	versions  map[string]domain.Version
	byChapter map[string][]string
	decisions map[string]domain.Decision
	log       []string
	now       func() time.Time
}

// NewVersionStore creates a new in-memory version store.
func NewVersionStore() *VersionStore {
	return &VersionStore{
		chapters:  make(map[string]domain.Chapter),
		versions:  make(map[string]domain.Version),
		byChapter: make(map[string][]string),
		decisions: make(map[string]domain.Decision),
		now:       time.Now,
	}
}

// CreateChapter stores a new chapter.
func (s *VersionStore) CreateChapter(_ context.Context, chapter *domain.Chapter) error {
	if chapter == nil || chapter.ID == "" {
		return fmt.Errorf("%w: chapter requires an ID", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chapters[chapter.ID]; ok {
		return fmt.Errorf("%w: chapter %s exists", domain.ErrConflict, chapter.ID)
	}
	c := *chapter
	if c.Status == "" {
		c.Status = domain.ChapterActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.chapters[c.ID] = c
	s.order = append(s.order, c.ID)
	*chapter = c
	return nil
}

// GetChapter retrieves a chapter by ID.
func (s *VersionStore) GetChapter(_ context.Context, id string) (*domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chapters[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// ListChapters returns all chapters in creation order.
func (s *VersionStore) ListChapters(_ context.Context) ([]domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Chapter, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.chapters[id])
	}
	return result, nil
}

// SetChapterStatus records a chapter's pipeline status.
func (s *VersionStore) SetChapterStatus(_ context.Context, id string, status domain.ChapterStatus, reason string) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chapters[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Status = status
	c.StatusReason = reason
	s.chapters[id] = c
	return nil
}

// SetChapterSource records the title and snapshot found by acquisition.
func (s *VersionStore) SetChapterSource(_ context.Context, id, title, snapshotRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chapters[id]
	if !ok {
		return domain.ErrNotFound
	}
	if title != "" {
		c.Title = title
	}
	if snapshotRef != "" {
		c.SnapshotRef = snapshotRef
	}
	s.chapters[id] = c
	return nil
}

// Put commits a new version and advances the chapter head.
func (s *VersionStore) Put(_ context.Context, version *domain.Version) (string, error) {
	if version == nil {
		return "", fmt.Errorf("%w: nil version", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	chapter, ok := s.chapters[version.ChapterID]
	if !ok {
		return "", fmt.Errorf("%w: chapter %s", domain.ErrNotFound, version.ChapterID)
	}

	var parent *domain.Version
	if version.ParentID != nil {
		if p, ok := s.versions[*version.ParentID]; ok {
			parent = &p
		}
	}
	if err := domain.ValidateAppend(s.lineageState(chapter), parent, version); err != nil {
		return "", err
	}

	v := *version
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if _, exists := s.versions[v.ID]; exists {
		return "", fmt.Errorf("%w: version %s exists", domain.ErrConflict, v.ID)
	}
	v.Sequence = len(s.byChapter[v.ChapterID]) + 1
	v.CreatedAt = s.now()
	v.Decision = nil

	s.versions[v.ID] = v
	s.byChapter[v.ChapterID] = append(s.byChapter[v.ChapterID], v.ID)
	s.log = append(s.log, v.ID)
	chapter.HeadVersionID = v.ID
	s.chapters[chapter.ID] = chapter

	version.ID = v.ID
	version.Sequence = v.Sequence
	version.CreatedAt = v.CreatedAt
	return v.ID, nil
}

// Get retrieves a version by ID.
func (s *VersionStore) Get(_ context.Context, versionID string) (*domain.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.hydrate(versionID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

// Lineage returns the chain from RAW to the current head.
func (s *VersionStore) Lineage(_ context.Context, chapterID string) ([]domain.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chapter, ok := s.chapters[chapterID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	var chain []domain.Version
	id := chapter.HeadVersionID
	for id != "" {
		v, ok := s.hydrate(id)
		if !ok {
			return nil, fmt.Errorf("lineage of %s: missing version %s", chapterID, id)
		}
		chain = append(chain, v)
		id = v.Parent()
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Head returns the chapter's current head version.
func (s *VersionStore) Head(_ context.Context, chapterID string) (*domain.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chapter, ok := s.chapters[chapterID]
	if !ok || chapter.HeadVersionID == "" {
		return nil, domain.ErrNotFound
	}
	v, _ := s.hydrate(chapter.HeadVersionID)
	return &v, nil
}

// History returns every committed version in sequence order.
func (s *VersionStore) History(_ context.Context, chapterID string) ([]domain.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.chapters[chapterID]; !ok {
		return nil, domain.ErrNotFound
	}
	ids := s.byChapter[chapterID]
	result := make([]domain.Version, 0, len(ids))
	for _, id := range ids {
		v, _ := s.hydrate(id)
		result = append(result, v)
	}
	return result, nil
}

// RecordDecision records a decision on the head version.
func (s *VersionStore) RecordDecision(_ context.Context, versionID string, decision domain.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.hydrate(versionID)
	if !ok {
		return domain.ErrNotFound
	}
	chapter := s.chapters[v.ChapterID]
	if err := domain.ValidateDecisionTarget(chapter.HeadVersionID, &v, decision); err != nil {
		return err
	}

	newHead := chapter.HeadVersionID
	if decision.Kind == domain.DecisionReject {
		target, err := domain.RewindTarget(&v, func(id string) (*domain.Version, error) {
			p, ok := s.versions[id]
			if !ok {
				return nil, domain.ErrNotFound
			}
			return &p, nil
		})
		if err != nil {
			return err
		}
		newHead = target
	}

	if decision.DecidedAt.IsZero() {
		decision.DecidedAt = s.now()
	}
	s.decisions[versionID] = decision
	chapter.HeadVersionID = newHead
	s.chapters[chapter.ID] = chapter
	return nil
}

// ListVersions returns versions across chapters matching the filter, in commit order.
func (s *VersionStore) ListVersions(_ context.Context, filter domain.VersionFilter) ([]domain.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Version
	for _, id := range s.log {
		v, _ := s.hydrate(id)
		if filter.Matches(v.ChapterID, v.Stage) {
			result = append(result, v)
		}
	}
	return result, nil
}

// lineageState summarises a chapter. Caller must hold the lock.
func (s *VersionStore) lineageState(chapter domain.Chapter) domain.LineageState {
	state := domain.LineageState{HeadID: chapter.HeadVersionID}
	for _, id := range s.byChapter[chapter.ID] {
		switch s.versions[id].Stage {
		case domain.StageRaw:
			state.HasRaw = true
		case domain.StageFinal:
			state.HasFinal = true
		}
	}
	return state
}

// hydrate returns a copy of the version with its decision attached.
// Caller must hold the lock.
func (s *VersionStore) hydrate(id string) (domain.Version, bool) {
	v, ok := s.versions[id]
	if !ok {
		return domain.Version{}, false
	}
	if d, ok := s.decisions[id]; ok {
		v.Decision = &d
	}
	return v, true
}
