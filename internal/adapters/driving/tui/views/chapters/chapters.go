// Package chapters provides the chapter list view for the TUI.
package chapters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

// ErrNoChapterService indicates that no chapter service was provided.
var ErrNoChapterService = errors.New("chapter service not available")

// View is the chapter list view.
type View struct {
	styles         *styles.Styles
	chapterService driving.ChapterService
	ctx            context.Context

	chapters     []domain.Chapter
	selected     int
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new chapters view.
func NewView(s *styles.Styles, chapterService driving.ChapterService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:         s,
		chapterService: chapterService,
		ctx:            context.Background(),
		width:          80,
		height:         24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the chapter list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.err = nil
	return v.loadChapters()
}

func (v *View) loadChapters() tea.Cmd {
	svc, ctx := v.chapterService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.ChaptersLoaded{Err: ErrNoChapterService}
		}
		chapters, err := svc.List(ctx)
		return messages.ChaptersLoaded{Chapters: chapters, Err: err}
	}
}

// Update handles messages for the chapters view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ChaptersLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.chapters = msg.Chapters
		if v.selected >= len(v.chapters) {
			v.selected = 0
			v.scrollOffset = 0
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.chapters)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if ch := v.SelectedChapter(); ch != nil {
			chapter := *ch
			return v, func() tea.Msg {
				return messages.ChapterSelected{Chapter: chapter}
			}
		}
	case "r":
		return v, v.Init()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	available := v.height - 8
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the chapter list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Chapters (%d)", len(v.chapters))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading chapters..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.chapters) == 0:
		b.WriteString(v.styles.Muted.Render("No chapters yet. Start one with 'folio run <source>'."))
	default:
		visible := v.visibleItemCount()
		for i := v.scrollOffset; i < len(v.chapters) && i < v.scrollOffset+visible; i++ {
			b.WriteString(v.renderChapter(i, &v.chapters[i]))
			b.WriteString("\n")
		}
		if len(v.chapters) > visible {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
				v.scrollOffset+1,
				min(v.scrollOffset+visible, len(v.chapters)),
				len(v.chapters))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] versions  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderChapter(index int, ch *domain.Chapter) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	title := ch.Title
	if title == "" {
		title = ch.ID
	}
	maxTitleLen := v.width - 40
	if maxTitleLen < 10 {
		maxTitleLen = 10
	}
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen-3]) + "..."
	}

	created := ch.CreatedAt.Format("2006-01-02 15:04")
	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %-10s %s", indicator, maxTitleLen, title, ch.Status, created))
	}

	return v.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxTitleLen, title)) +
		v.statusStyle(ch.Status) +
		v.styles.Muted.Render(" "+created)
}

func (v *View) statusStyle(status domain.ChapterStatus) string {
	label := fmt.Sprintf("%-10s", status)
	switch status {
	case domain.ChapterFinalized:
		return v.styles.Success.Render(label)
	case domain.ChapterStalled:
		return v.styles.Error.Render(label)
	case domain.ChapterExhausted:
		return v.styles.Warning.Render(label)
	case domain.ChapterActive:
		return v.styles.Normal.Render(label)
	default:
		return v.styles.Muted.Render(label)
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Chapters returns the loaded chapters.
func (v *View) Chapters() []domain.Chapter {
	return v.chapters
}

// SelectedChapter returns the highlighted chapter, or nil.
func (v *View) SelectedChapter() *domain.Chapter {
	if v.selected < 0 || v.selected >= len(v.chapters) {
		return nil
	}
	return &v.chapters[v.selected]
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
