package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// agent holds what the Writer and Reviewer share.
type agent struct {
	name    string
	llm     driven.LLMService
	prompts driven.PromptStore
	limiter *RateLimiter
}

// render loads a prompt template and fills it.
func (a *agent) render(prompt string, args ...any) (string, error) {
	tmpl, err := a.prompts.Load(prompt)
	if err != nil {
		return "", fmt.Errorf("load %s prompt: %w", prompt, err)
	}
	return fmt.Sprintf(tmpl, args...), nil
}

// complete sends prompt to the LLM under the rate limiter.
// A rate limit response pauses every caller sharing the limiter.
func (a *agent) complete(ctx context.Context, prompt string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}

	logger.Debug("%s: prompting %s (%d chars)", a.name, a.llm.ModelName(), len(prompt))
	out, err := a.llm.Generate(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			logger.Warn("%s: %s rate limited, backing off", a.name, a.llm.ModelName())
			a.limiter.RecordRateLimitError(0)
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// wrap tags err with sentinel unless it is a cancellation.
func wrap(ctx context.Context, sentinel, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
