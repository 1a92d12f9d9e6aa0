// Package review provides the decision view shown while a chapter waits on
// a reviewer. It runs as its own Bubbletea program and quits once the
// reviewer accepts, rejects or submits an edit.
package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// headerLines is the space reserved above the viewport.
const headerLines = 4

// Model is the review view.
type Model struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar

	req      driven.DecisionRequest
	viewport viewport.Model
	editor   textarea.Model
	editing  bool
	notice   string

	decision *domain.Decision
	aborted  bool

	width  int
	height int
}

var _ tea.Model = (*Model)(nil)

// New creates a review view for one decision request.
func New(s *styles.Styles, km *keymap.KeyMap, req driven.DecisionRequest) *Model {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	editor := textarea.New()
	editor.Placeholder = "Rewrite the chapter..."
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.MaxHeight = 0

	m := &Model{
		styles:    s,
		keymap:    km,
		statusbar: status.NewBar(s, km),
		req:       req,
		viewport:  viewport.New(80, 20),
		editor:    editor,
	}
	m.statusbar.SetState(status.StateReviewing)
	m.statusbar.SetMessage(m.cycleLabel())
	m.viewport.SetContent(m.body())
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.SetWindowTitle("folio - review " + m.title())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetDimensions(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.aborted = true
			return m, tea.Quit
		}
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleReviewKey(msg)
	}

	if m.editing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), m.keymap.Accept):
		return m.decide(domain.Accept())
	case keymap.Matches(msg.String(), m.keymap.Reject):
		return m.decide(domain.Reject())
	case keymap.Matches(msg.String(), m.keymap.Edit):
		m.editing = true
		m.notice = ""
		m.editor.SetValue(m.req.Version.Content)
		m.statusbar.SetState(status.StateEditing)
		return m, m.editor.Focus()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), m.keymap.Submit):
		d := domain.Edit(m.editor.Value())
		if err := d.Validate(); err != nil {
			m.notice = "An edit cannot be empty. Use [r] to reject instead."
			return m, nil
		}
		return m.decide(d)
	case msg.Type == tea.KeyEsc:
		m.editing = false
		m.notice = ""
		m.editor.Blur()
		m.statusbar.SetState(status.StateReviewing)
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *Model) decide(d domain.Decision) (tea.Model, tea.Cmd) {
	m.decision = &d
	return m, tea.Sequence(
		func() tea.Msg { return messages.DecisionMade{Decision: d} },
		tea.Quit,
	)
}

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{
		m.styles.Title.Render(m.title()),
		m.styles.Stage(m.req.Version.Stage) + "  " + m.styles.Muted.Render(m.cycleLabel()),
		"",
	}

	if m.editing {
		sections = append(sections, m.editor.View())
	} else {
		sections = append(sections, m.viewport.View())
	}
	if m.notice != "" {
		sections = append(sections, m.styles.Warning.Render(m.notice))
	}
	sections = append(sections, m.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) title() string {
	if m.req.ChapterTitle != "" {
		return m.req.ChapterTitle
	}
	return m.req.Version.ChapterID
}

func (m *Model) cycleLabel() string {
	if m.req.MaxIterations > 0 {
		return fmt.Sprintf("Cycle %d of %d", m.req.Iteration, m.req.MaxIterations)
	}
	return fmt.Sprintf("Cycle %d", m.req.Iteration)
}

// body is the critique followed by the version text, wrapped to the viewport.
func (m *Model) body() string {
	width := max(m.viewport.Width-2, 20)
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	if m.req.Critique != "" {
		b.WriteString(m.styles.Subtitle.Render("Critique"))
		b.WriteString("\n")
		b.WriteString(m.styles.Critique.Render(wrap.Render(m.req.Critique)))
		b.WriteString("\n\n")
	} else {
		b.WriteString(m.styles.Muted.Render("No critique available."))
		b.WriteString("\n\n")
	}
	b.WriteString(wrap.Render(m.req.Version.Content))
	return b.String()
}

// SetDimensions resizes the viewport and editor.
func (m *Model) SetDimensions(width, height int) {
	m.width = width
	m.height = height
	bodyHeight := max(height-headerLines-2, 3)

	m.viewport.Width = width
	m.viewport.Height = bodyHeight
	m.viewport.SetContent(m.body())

	m.editor.SetWidth(width)
	m.editor.SetHeight(bodyHeight)
	m.statusbar.SetWidth(width)
}

// Decision returns the reviewer's decision once one was made.
func (m *Model) Decision() (domain.Decision, bool) {
	if m.decision == nil {
		return domain.Decision{}, false
	}
	return *m.decision, true
}

// Aborted reports whether the reviewer quit without deciding.
func (m *Model) Aborted() bool {
	return m.aborted
}

// Editing reports whether the editor is open.
func (m *Model) Editing() bool {
	return m.editing
}
