package gate

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Auto implements the interface.
var _ driven.DecisionGate = Auto{}

// Auto accepts every version it is shown.
type Auto struct{}

// Decide returns ACCEPT unless ctx is done.
func (Auto) Decide(ctx context.Context, _ driven.DecisionRequest) (domain.Decision, error) {
	if err := ctx.Err(); err != nil {
		return domain.Decision{}, err
	}
	return domain.Accept(), nil
}
