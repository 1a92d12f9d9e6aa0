// Package menu is the landing view. Each entry has a single-key shortcut.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. An entry with Quit set exits instead of switching view.
type Item struct {
	Label    string
	Hint     string
	Shortcut string
	View     messages.ViewType
	Quit     bool
}

var defaultItems = []Item{
	{Label: "Chapters", Hint: "browse chapters and their versions", Shortcut: "c", View: messages.ViewChapters},
	{Label: "Search", Hint: "find passages across every stage", Shortcut: "/", View: messages.ViewSearch},
	{Label: "Settings", Hint: "iteration limit, providers and index", Shortcut: "s", View: messages.ViewSettings},
	{Label: "Help", Hint: "key bindings", Shortcut: "?", View: messages.ViewHelp},
	{Label: "Quit", Shortcut: "q", Quit: true},
}

// View is the main menu.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu. Nil dependencies fall back to defaults.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles: s,
		keymap: km,
		items:  append([]Item(nil), defaultItems...),
		width:  80,
		height: 24,
	}
}

// Init implements the view contract. The menu has no startup work.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor or activates an entry.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, v.keymap.Up):
			v.selected = max(v.selected-1, 0)
			return v, nil
		case keymap.Matches(k, v.keymap.Down):
			v.selected = min(v.selected+1, len(v.items)-1)
			return v, nil
		case keymap.Matches(k, v.keymap.Select):
			return v, v.activate(v.items[v.selected])
		}
		for _, item := range v.items {
			if item.Shortcut == k {
				return v, v.activate(item)
			}
		}
	}
	return v, nil
}

func (v *View) activate(item Item) tea.Cmd {
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Folio"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Chapter revisions"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		label := fmt.Sprintf("[%s] %-9s", item.Shortcut, item.Label)
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		if item.Hint != "" {
			b.WriteString(" " + v.styles.Muted.Render(item.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Select"))
	return b.String()
}

// SetDimensions records the terminal size and marks the view ready.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the cursor index.
func (v *View) Selected() int {
	return v.selected
}
