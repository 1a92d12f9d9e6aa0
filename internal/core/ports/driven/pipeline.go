package driven

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// GenerationMode selects how the generator transforms text.
type GenerationMode string

// Generation modes.
const (
	// ModeSpin rewrites the source into a new narrative style. Used on the first cycle.
	ModeSpin GenerationMode = "spin"

	// ModeRevise improves already transformed text. Used on later cycles.
	ModeRevise GenerationMode = "revise"
)

type iterationKey struct{}

// WithIteration returns a context carrying the revision cycle being generated.
// Generators that number their prompts read it with IterationFrom.
func WithIteration(ctx context.Context, cycle int) context.Context {
	return context.WithValue(ctx, iterationKey{}, cycle)
}

// IterationFrom returns the cycle stored by WithIteration, or 1 if absent.
func IterationFrom(ctx context.Context) int {
	if n, ok := ctx.Value(iterationKey{}).(int); ok && n > 0 {
		return n
	}
	return 1
}

// ContentAcquirer supplies raw chapter text for a source reference.
// Errors wrap domain.ErrAcquisition.
type ContentAcquirer interface {
	Acquire(ctx context.Context, sourceRef string) (*domain.Acquisition, error)
}

// Generator transforms chapter text. Errors wrap domain.ErrGeneration.
type Generator interface {
	Generate(ctx context.Context, text string, mode GenerationMode) (string, error)
}

// Critic returns free-text feedback on chapter text. Errors wrap domain.ErrCritique.
type Critic interface {
	Critique(ctx context.Context, text string) (string, error)
}

// DecisionRequest is what a decision gate is shown.
type DecisionRequest struct {
	// Version is the version awaiting a decision.
	Version domain.Version

	// Critique is the critique of the version's content, empty if unavailable.
	Critique string

	// ChapterTitle is shown for context.
	ChapterTitle string

	// Iteration and MaxIterations are shown for context.
	Iteration     int
	MaxIterations int
}

// DecisionGate produces accept/edit/reject decisions.
// It may block indefinitely and must return when ctx is cancelled.
type DecisionGate interface {
	Decide(ctx context.Context, req DecisionRequest) (domain.Decision, error)
}
