// Package version provides the single version view for the TUI.
package version

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/folio/internal/core/domain"
)

// View shows a version's metadata, critique and content.
type View struct {
	styles *styles.Styles

	version      *domain.Version
	chapterTitle string
	back         messages.ViewType
	lines        []string
	scrollOffset int
	width        int
	height       int
}

// NewView creates a new version view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		back:   messages.ViewLineage,
		width:  80,
		height: 24,
	}
}

// SetVersion displays a version. Esc returns to back.
func (v *View) SetVersion(ver domain.Version, chapterTitle string, back messages.ViewType) {
	v.version = &ver
	v.chapterTitle = chapterTitle
	v.back = back
	v.scrollOffset = 0
	v.wrap()
}

// Init implements the view contract.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the version view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(0, v.scrollOffset-v.visibleLines())
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.maxScrollOffset(), v.scrollOffset+v.visibleLines())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	}
	return v, nil
}

// wrap soft-wraps the critique and content to the view width.
func (v *View) wrap() {
	v.lines = nil
	if v.version == nil {
		return
	}
	width := max(v.width-4, 20)
	wrapper := lipgloss.NewStyle().Width(width)

	if c := v.version.CritiqueText(); c != "" {
		v.lines = append(v.lines, v.styles.Subtitle.Render("Critique"))
		for _, line := range strings.Split(wrapper.Render(c), "\n") {
			v.lines = append(v.lines, v.styles.Critique.Render(line))
		}
		v.lines = append(v.lines, "")
	}
	if v.version.Decision != nil && v.version.Decision.Kind == domain.DecisionEdit {
		v.lines = append(v.lines, v.styles.Muted.Render("Edited by reviewer; the edit is the next version."), "")
	}
	v.lines = append(v.lines, strings.Split(wrapper.Render(v.version.Content), "\n")...)
}

func (v *View) visibleLines() int {
	return max(v.height-8, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the version.
func (v *View) View() string {
	var b strings.Builder

	if v.version == nil {
		b.WriteString(v.styles.Muted.Render("No version selected."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	title := v.chapterTitle
	if title == "" {
		title = v.version.ChapterID
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(v.renderMeta())
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	visible := v.visibleLines()
	end := min(v.scrollOffset+visible, len(v.lines))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.lines[i])
		b.WriteString("\n")
	}
	if len(v.lines) > visible {
		percentage := 0
		if v.maxScrollOffset() > 0 {
			percentage = v.scrollOffset * 100 / v.maxScrollOffset()
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			percentage, v.scrollOffset+1, end, len(v.lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderMeta() string {
	ver := v.version
	parts := []string{
		v.styles.Stage(ver.Stage),
		v.styles.Muted.Render(fmt.Sprintf("#%d", ver.Sequence)),
		v.styles.Muted.Render(fmt.Sprintf("iteration %d", ver.Iteration)),
	}
	if ver.Decision != nil {
		parts = append(parts, v.styles.Normal.Render(ver.Decision.Kind.String()))
	}
	if p := ver.Parent(); p != "" {
		parts = append(parts, v.styles.Muted.Render("parent "+shortID(p)))
	}
	parts = append(parts, v.styles.Muted.Render(ver.CreatedAt.Format("2006-01-02 15:04")))
	return strings.Join(parts, "  ")
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.wrap()
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

// Version returns the version being shown.
func (v *View) Version() *domain.Version {
	return v.version
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}
