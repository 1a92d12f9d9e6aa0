package driving

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// RevisionService drives chapters through the generate, critique and decide loop.
type RevisionService interface {
	// Start acquires the source, creates the chapter and runs it to a
	// terminal outcome. The chapter is created before acquisition so a
	// failed fetch leaves a stalled chapter behind.
	Start(ctx context.Context, req StartRequest) (*RunResult, error)

	// Resume continues a chapter from its persisted head.
	Resume(ctx context.Context, chapterID string) (*RunResult, error)

	// RunBatch starts several chapters concurrently.
	// Results are returned in request order; one chapter's failure does not
	// cancel the others.
	RunBatch(ctx context.Context, reqs []StartRequest) []BatchResult
}

// StartRequest describes a new chapter.
type StartRequest struct {
	// SourceRef is the URL or path to acquire.
	SourceRef string

	// Title overrides the title discovered by the acquirer.
	Title string
}

// RunResult is the outcome of running a chapter.
type RunResult struct {
	// Chapter is the chapter as it stands after the run.
	Chapter domain.Chapter

	// Head is the chapter's head version, nil if none was committed.
	Head *domain.Version

	// Cycles is the number of generate→decide cycles the chapter has used.
	Cycles int
}

// BatchResult pairs a batch request with its outcome.
type BatchResult struct {
	Request StartRequest
	Result  *RunResult
	Err     error
}
