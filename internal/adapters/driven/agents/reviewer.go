package agents

import (
	"context"
	"fmt"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Reviewer implements the interface.
var _ driven.Critic = (*Reviewer)(nil)

// Reviewer produces a free-text critique of chapter text.
type Reviewer struct {
	agent
}

// NewReviewer creates a Reviewer. limiter may be nil.
func NewReviewer(llm driven.LLMService, prompts driven.PromptStore, limiter *RateLimiter) *Reviewer {
	return &Reviewer{agent: agent{
		name:    "reviewer",
		llm:     llm,
		prompts: prompts,
		limiter: limiter,
	}}
}

// Critique reviews text. Errors wrap domain.ErrCritique.
func (r *Reviewer) Critique(ctx context.Context, text string) (string, error) {
	prompt, err := r.render(driven.PromptCritique, text)
	if err != nil {
		return "", wrap(ctx, domain.ErrCritique, err)
	}

	out, err := r.complete(ctx, prompt)
	if err != nil {
		return "", wrap(ctx, domain.ErrCritique, err)
	}
	if out == "" {
		return "", fmt.Errorf("%w: %s returned no text", domain.ErrCritique, r.llm.ModelName())
	}
	return out, nil
}
