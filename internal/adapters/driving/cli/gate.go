package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/custodia-labs/folio/internal/adapters/driven/gate"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Gate names accepted by --gate.
const (
	gateAuto    = "auto"
	gateTUI     = "tui"
	gateConsole = "console"
	gateAccept  = "accept"
	gateScript  = "script:"
)

// isTerminal reports whether r is an interactive terminal.
var isTerminal = func(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// selectGate builds the decision gate named by the --gate flag.
// auto picks the full-screen gate on a terminal and the console gate otherwise.
func selectGate(name string, in io.Reader, out io.Writer) (driven.DecisionGate, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "" || name == gateAuto:
		if isTerminal(in) {
			return tui.NewGate(), nil
		}
		return gate.NewConsole(in, out), nil
	case name == gateTUI:
		return tui.NewGate(), nil
	case name == gateConsole:
		return gate.NewConsole(in, out), nil
	case name == gateAccept:
		return gate.Auto{}, nil
	case strings.HasPrefix(name, gateScript):
		path := strings.TrimPrefix(name, gateScript)
		if path == "" {
			return nil, fmt.Errorf("%w: --gate script: needs a path", domain.ErrInvalidConfig)
		}
		return gate.LoadScript(path)
	default:
		return nil, fmt.Errorf("%w: unknown gate %q", domain.ErrInvalidConfig, name)
	}
}
