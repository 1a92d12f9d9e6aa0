// Package status provides the one-line status bar shown under each view.
package status

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/styles"
)

// State selects the bar's label and key hints.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateError     State = "error"
	StateHelp      State = "help"
	StateResults   State = "results"
	StateReviewing State = "reviewing"
	StateEditing   State = "editing"
)

// Bar shows a state label on the left and key hints on the right.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	help        help.Model
	state       State
	message     string
	resultCount int
	width       int
}

// NewBar creates a status bar. Nil dependencies fall back to defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	h := help.New()
	h.ShortSeparator = " | "
	h.Styles.ShortKey = s.Muted
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted

	return &Bar{
		styles: s,
		keymap: km,
		help:   h,
		state:  StateReady,
		width:  80,
	}
}

// Init implements the component contract.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update is a no-op; views drive the bar through its setters.
func (s *Bar) Update(tea.Msg) (*Bar, tea.Cmd) {
	return s, nil
}

// View renders the bar across its full width.
func (s *Bar) View() string {
	left := s.label()
	right := s.help.ShortHelpView(s.bindings())
	frame := s.styles.StatusBar.GetHorizontalFrameSize()
	gap := max(s.width-frame-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return s.styles.StatusBar.Width(s.width).Render(
		lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.NewStyle().Width(gap).Render(""), right),
	)
}

func (s *Bar) label() string {
	switch s.state {
	case StateSearching:
		return s.styles.Muted.Render("Searching...")
	case StateError:
		if s.message == "" {
			return s.styles.Error.Render("Error")
		}
		return s.styles.Error.Render("Error: " + s.message)
	case StateHelp:
		return s.styles.Normal.Render("Help")
	case StateReviewing, StateEditing:
		if s.message == "" {
			return s.styles.Normal.Render("Awaiting decision")
		}
		return s.styles.Normal.Render(s.message)
	}

	switch s.resultCount {
	case 0:
		return s.styles.Muted.Render("Ready")
	case 1:
		return s.styles.Normal.Render("1 result")
	default:
		return s.styles.Normal.Render(fmt.Sprintf("%d results", s.resultCount))
	}
}

func (s *Bar) bindings() []key.Binding {
	switch {
	case s.state == StateReviewing:
		return s.keymap.ReviewHelp()
	case s.state == StateEditing:
		return s.keymap.EditHelp()
	case s.state == StateResults && s.resultCount > 0:
		return s.keymap.ResultsHelp()
	default:
		return s.keymap.ShortHelp()
	}
}

// SetState sets the state.
func (s *Bar) SetState(state State) { s.state = state }

// State returns the state.
func (s *Bar) State() State { return s.state }

// SetMessage sets the text shown for error and review states.
func (s *Bar) SetMessage(message string) { s.message = message }

// Message returns the message.
func (s *Bar) Message() string { return s.message }

// SetResultCount sets the number of search results shown.
func (s *Bar) SetResultCount(count int) { s.resultCount = count }

// ResultCount returns the result count.
func (s *Bar) ResultCount() int { return s.resultCount }

// SetWidth sets the rendered width.
func (s *Bar) SetWidth(width int) { s.width = width }

// Width returns the rendered width.
func (s *Bar) Width() int { return s.width }

// Clear returns the bar to StateReady with no message or results.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.resultCount = 0
}
