package driven

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// VersionStore persists chapters and their append-only version history.
//
// Implementations must serialise writes per chapter and must reject, with
// domain.ErrConflict and without any partial write, every Put that would:
//   - reference a parent that does not exist or belongs to another chapter
//   - use a parent other than the chapter's current head (forking the lineage)
//   - add a second RAW or a second FINAL version
//   - append anything after a FINAL version
//   - decrease the iteration index along the lineage
type VersionStore interface {
	// CreateChapter stores a new chapter. Returns domain.ErrConflict if the ID exists.
	CreateChapter(ctx context.Context, chapter *domain.Chapter) error

	// GetChapter retrieves a chapter by ID.
	GetChapter(ctx context.Context, id string) (*domain.Chapter, error)

	// ListChapters returns all chapters, oldest first.
	ListChapters(ctx context.Context) ([]domain.Chapter, error)

	// SetChapterStatus records a chapter's pipeline status.
	SetChapterStatus(ctx context.Context, id string, status domain.ChapterStatus, reason string) error

	// SetChapterSource records the title and snapshot found by acquisition.
	// Empty values leave the stored field unchanged.
	SetChapterSource(ctx context.Context, id, title, snapshotRef string) error

	// Put commits a new version and advances the chapter head to it.
	// The store assigns ID (when empty), Sequence and CreatedAt.
	Put(ctx context.Context, version *domain.Version) (string, error)

	// Get retrieves a version by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, versionID string) (*domain.Version, error)

	// Lineage returns the chain from the RAW version to the current head.
	Lineage(ctx context.Context, chapterID string) ([]domain.Version, error)

	// Head returns the chapter's current, non-superseded head version.
	Head(ctx context.Context, chapterID string) (*domain.Version, error)

	// History returns every version committed for the chapter in sequence
	// order, superseded ones included.
	History(ctx context.Context, chapterID string) ([]domain.Version, error)

	// RecordDecision records a decision gate's verdict on a version.
	// Each version can be decided once. A REJECT rewinds the chapter head to
	// the parent of the rejected GENERATED version in the same write.
	RecordDecision(ctx context.Context, versionID string, decision domain.Decision) error

	// ListVersions returns versions across all chapters matching the filter,
	// in commit order.
	ListVersions(ctx context.Context, filter domain.VersionFilter) ([]domain.Version, error)
}
