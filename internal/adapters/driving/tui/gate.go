package tui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/views/review"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Gate asks a reviewer for a decision through a full-screen review program.
// Only one review runs at a time; concurrent callers wait their turn.
type Gate struct {
	mu     sync.Mutex
	styles *styles.Styles
	opts   []tea.ProgramOption
}

var _ driven.DecisionGate = (*Gate)(nil)

// NewGate creates a gate. Extra program options are appended to the defaults.
func NewGate(opts ...tea.ProgramOption) *Gate {
	return &Gate{
		styles: styles.DefaultStyles(),
		opts:   opts,
	}
}

// Decide shows the version and its critique and blocks until the reviewer
// accepts, edits or rejects it.
func (g *Gate) Decide(ctx context.Context, req driven.DecisionRequest) (domain.Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.Decision{}, err
	}

	model := review.New(g.styles, nil, req)
	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, g.opts...)
	p := tea.NewProgram(model, opts...)

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return domain.Decision{}, ctx.Err()
		}
		return domain.Decision{}, fmt.Errorf("running review: %w", err)
	}

	if d, ok := model.Decision(); ok {
		return d, nil
	}
	if ctx.Err() != nil {
		return domain.Decision{}, ctx.Err()
	}
	return domain.Decision{}, ErrReviewAborted
}
