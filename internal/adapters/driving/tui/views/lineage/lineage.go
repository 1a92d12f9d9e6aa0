// Package lineage provides the per-chapter version list for the TUI.
//
// The view shows the audit trail from RAW to the chapter head. Pressing h
// switches to the full history, where versions abandoned by a REJECT are
// marked as superseded.
package lineage

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

// View lists the versions of one chapter.
type View struct {
	styles         *styles.Styles
	chapterService driving.ChapterService
	ctx            context.Context

	chapter    *domain.Chapter
	versions   []domain.Version
	onLineage  map[string]bool
	history    bool
	selected   int
	width      int
	height     int
	err        error
	loading    bool
	scrollBase int
}

// NewView creates a new lineage view.
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

// SetChapter switches to a chapter and loads its lineage.
func (v *View) SetChapter(ch domain.Chapter) tea.Cmd {
	v.chapter = &ch
	v.versions = nil
	v.onLineage = nil
	v.history = false
	v.selected = 0
	v.scrollBase = 0
	v.err = nil
	return v.load()
}

func (v *View) load() tea.Cmd {
	if v.chapter == nil {
		return nil
	}
	v.loading = true
	svc, ctx, id, history := v.chapterService, v.ctx, v.chapter.ID, v.history
	return func() tea.Msg {
		if svc == nil {
			return messages.VersionsLoaded{ChapterID: id, History: history, Err: ErrNoChapterService}
		}
		var (
			versions []domain.Version
			err      error
		)
		if history {
			versions, err = svc.History(ctx, id)
		} else {
			versions, err = svc.Lineage(ctx, id)
		}
		return messages.VersionsLoaded{ChapterID: id, History: history, Versions: versions, Err: err}
	}
}

// Init implements the view contract.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the lineage view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.VersionsLoaded:
		if v.chapter == nil || msg.ChapterID != v.chapter.ID || msg.History != v.history {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.versions = msg.Versions
		if !msg.History {
			v.onLineage = make(map[string]bool, len(msg.Versions))
			for i := range msg.Versions {
				v.onLineage[msg.Versions[i].ID] = true
			}
		}
		if v.selected >= len(v.versions) {
			v.selected = 0
			v.scrollBase = 0
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
		if v.selected < len(v.versions)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "h":
		v.history = !v.history
		v.selected = 0
		v.scrollBase = 0
		return v, v.load()
	case "r":
		return v, v.load()
	case "enter":
		if ver := v.SelectedVersion(); ver != nil {
			selected := *ver
			title := ""
			if v.chapter != nil {
				title = v.chapter.Title
			}
			return v, func() tea.Msg {
				return messages.VersionSelected{Version: selected, ChapterTitle: title, Back: messages.ViewLineage}
			}
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewChapters}
		}
	}
	return v, nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollBase {
		v.scrollBase = v.selected
	} else if v.selected >= v.scrollBase+visible {
		v.scrollBase = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	available := v.height - 10
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the version list.
func (v *View) View() string {
	var b strings.Builder

	title := "Versions"
	if v.chapter != nil {
		title = v.chapter.Title
		if title == "" {
			title = v.chapter.ID
		}
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")

	mode := "Lineage"
	if v.history {
		mode = "History"
	}
	sub := fmt.Sprintf("%s (%d)", mode, len(v.versions))
	if v.chapter != nil {
		sub += "  " + v.chapter.Status.String()
		if v.chapter.StatusReason != "" {
			sub += ": " + v.chapter.StatusReason
		}
	}
	b.WriteString(v.styles.Subtitle.Render(sub))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading versions..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.versions) == 0:
		b.WriteString(v.styles.Muted.Render("No versions committed."))
	default:
		visible := v.visibleItemCount()
		for i := v.scrollBase; i < len(v.versions) && i < v.scrollBase+visible; i++ {
			b.WriteString(v.renderVersion(i, &v.versions[i]))
			b.WriteString("\n")
		}
		if len(v.versions) > visible {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
				v.scrollBase+1,
				min(v.scrollBase+visible, len(v.versions)),
				len(v.versions))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] view  [h] lineage/history  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderVersion(index int, ver *domain.Version) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	decision := "-"
	if ver.Decision != nil {
		decision = ver.Decision.Kind.String()
	}
	notes := make([]string, 0, 3)
	if ver.Critique != nil {
		notes = append(notes, "critiqued")
	}
	if v.chapter != nil && ver.ID == v.chapter.HeadVersionID {
		notes = append(notes, "head")
	}
	if v.history && v.onLineage != nil && !v.onLineage[ver.ID] {
		notes = append(notes, "superseded")
	}

	rest := fmt.Sprintf(" it %-2d %-7s %s", ver.Iteration, decision, ver.CreatedAt.Format("2006-01-02 15:04"))
	if len(notes) > 0 {
		rest += "  (" + strings.Join(notes, ", ") + ")"
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s#%-3d %-13s%s", indicator, ver.Sequence, ver.Stage, rest))
	}
	pad := strings.Repeat(" ", max(0, 13-len(ver.Stage)))
	return v.styles.Normal.Render(fmt.Sprintf("%s#%-3d ", indicator, ver.Sequence)) +
		v.styles.Stage(ver.Stage) + pad +
		v.styles.Muted.Render(rest)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Versions returns the loaded versions.
func (v *View) Versions() []domain.Version {
	return v.versions
}

// SelectedVersion returns the highlighted version, or nil.
func (v *View) SelectedVersion() *domain.Version {
	if v.selected < 0 || v.selected >= len(v.versions) {
		return nil
	}
	return &v.versions[v.selected]
}

// ShowingHistory reports whether the full history is shown.
func (v *View) ShowingHistory() bool {
	return v.history
}

// Chapter returns the chapter being shown.
func (v *View) Chapter() *domain.Chapter {
	return v.chapter
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
