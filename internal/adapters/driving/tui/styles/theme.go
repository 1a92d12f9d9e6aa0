// Package styles holds the TUI palette and the lipgloss styles built from it.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// Theme is the colour palette. Stages maps each version stage to its badge colour.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
	Panel      lipgloss.Color

	Stages map[domain.Stage]lipgloss.Color
}

// DefaultTheme is a dark palette with warm accents.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    "#D08770",
		Secondary:  "#88C0D0",
		Background: "#2E3440",
		Foreground: "#ECEFF4",
		Muted:      "#7B8394",
		Success:    "#A3BE8C",
		Warning:    "#EBCB8B",
		Error:      "#BF616A",
		Border:     "#4C566A",
		Panel:      "#242933",
		Stages: map[domain.Stage]lipgloss.Color{
			domain.StageRaw:         "#7B8394",
			domain.StageGenerated:   "#81A1C1",
			domain.StageCritiqued:   "#EBCB8B",
			domain.StageHumanEdited: "#B48EAD",
			domain.StageFinal:       "#A3BE8C",
		},
	}
}

// Styles are the rendered styles shared by every view.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Help     lipgloss.Style

	// InputField and Border draw rounded frames.
	InputField lipgloss.Style
	Border     lipgloss.Style

	StatusBar lipgloss.Style

	// Critique sets reviewer feedback apart with a left rule.
	Critique lipgloss.Style
}

// NewStyles builds styles from theme, or from DefaultTheme when theme is nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	frame := lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(theme.Border)

	return &Styles{
		theme:      theme,
		Title:      fg(theme.Primary).Bold(true),
		Subtitle:   fg(theme.Secondary).Bold(true),
		Normal:     fg(theme.Foreground),
		Muted:      fg(theme.Muted),
		Selected:   fg(theme.Background).Background(theme.Primary).Bold(true),
		Error:      fg(theme.Error),
		Success:    fg(theme.Success),
		Warning:    fg(theme.Warning),
		Help:       fg(theme.Muted).Italic(true),
		InputField: frame.Padding(0, 1),
		Border:     frame,
		StatusBar:  fg(theme.Muted).Background(theme.Panel).Padding(0, 1),
		Critique: fg(theme.Warning).Italic(true).
			BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).
			BorderForeground(theme.Warning).PaddingLeft(1),
	}
}

// DefaultStyles returns NewStyles(DefaultTheme()).
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Stage renders a stage name as a coloured badge. Unknown stages are muted.
func (s *Styles) Stage(stage domain.Stage) string {
	colour, ok := s.theme.Stages[stage]
	if !ok {
		colour = s.theme.Muted
	}
	return lipgloss.NewStyle().Bold(true).Foreground(colour).Render(stage.String())
}
