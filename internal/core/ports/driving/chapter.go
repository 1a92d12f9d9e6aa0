package driving

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// ChapterService provides read access to chapters and their versions.
type ChapterService interface {
	// List returns all chapters.
	List(ctx context.Context) ([]domain.Chapter, error)

	// Get retrieves a chapter by ID.
	Get(ctx context.Context, chapterID string) (*domain.Chapter, error)

	// Head returns the chapter's current head version.
	Head(ctx context.Context, chapterID string) (*domain.Version, error)

	// Lineage returns the audit trail from RAW to the head.
	Lineage(ctx context.Context, chapterID string) ([]domain.Version, error)

	// History returns every committed version, superseded ones included.
	History(ctx context.Context, chapterID string) ([]domain.Version, error)

	// Version retrieves a single version by ID.
	Version(ctx context.Context, versionID string) (*domain.Version, error)

	// Feedback returns the structured decision and critique records for a chapter.
	Feedback(ctx context.Context, chapterID string) ([]domain.FeedbackRecord, error)
}
