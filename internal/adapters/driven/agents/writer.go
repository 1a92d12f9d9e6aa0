package agents

import (
	"context"
	"fmt"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.Generator = (*Writer)(nil)

// Writer rewrites chapter text with the spin prompt on the first cycle and
// the revise prompt afterwards. The cycle number is taken from the context.
type Writer struct {
	agent
}

// NewWriter creates a Writer. limiter may be nil.
func NewWriter(llm driven.LLMService, prompts driven.PromptStore, limiter *RateLimiter) *Writer {
	return &Writer{agent: agent{
		name:    "writer",
		llm:     llm,
		prompts: prompts,
		limiter: limiter,
	}}
}

// Generate transforms text. Errors wrap domain.ErrGeneration.
func (w *Writer) Generate(ctx context.Context, text string, mode driven.GenerationMode) (string, error) {
	var name string
	switch mode {
	case driven.ModeSpin:
		name = driven.PromptSpin
	case driven.ModeRevise:
		name = driven.PromptRevise
	default:
		return "", fmt.Errorf("%w: unknown generation mode %q", domain.ErrGeneration, mode)
	}

	prompt, err := w.render(name, driven.IterationFrom(ctx), text)
	if err != nil {
		return "", wrap(ctx, domain.ErrGeneration, err)
	}

	out, err := w.complete(ctx, prompt)
	if err != nil {
		return "", wrap(ctx, domain.ErrGeneration, err)
	}
	if out == "" {
		return "", fmt.Errorf("%w: %s returned no text", domain.ErrGeneration, w.llm.ModelName())
	}
	return out, nil
}
