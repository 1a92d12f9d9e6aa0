package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/views/chapters"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/views/lineage"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/views/version"
	"github.com/custodia-labs/folio/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles

	menuView     *menu.View
	chaptersView *chapters.View
	lineageView  *lineage.View
	versionView  *version.View
	searchView   *search.View
	settingsView *settings.View

	// selectedChapter tracks the chapter whose lineage is open.
	selectedChapter *domain.Chapter

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		menuView:     menu.NewView(s, nil),
		chaptersView: chapters.NewView(s, ports.Chapters),
		lineageView:  lineage.NewView(s, ports.Chapters),
		versionView:  version.NewView(s),
		searchView:   search.NewView(s, nil, ports.Search),
		settingsView: settings.NewView(s, ports.Settings),
		currentView:  messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and every view that calls a service.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chaptersView.WithContext(ctx)
	a.lineageView.WithContext(ctx)
	a.searchView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.SetWindowTitle("folio")
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewChapters:
			return a, a.chaptersView.Init()
		case messages.ViewSearch:
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewSettings:
			a.settingsView.Reset()
			return a, a.settingsView.Init()
		case messages.ViewMenu, messages.ViewHelp, messages.ViewLineage, messages.ViewVersion:
			// No initialisation needed.
		}
		return a, nil

	case messages.ChapterSelected:
		ch := msg.Chapter
		a.selectedChapter = &ch
		a.currentView = messages.ViewLineage
		return a, a.lineageView.SetChapter(ch)

	case messages.VersionSelected:
		a.versionView.SetVersion(msg.Version, msg.ChapterTitle, msg.Back)
		a.currentView = messages.ViewVersion
		return a, nil

	case messages.ChaptersLoaded:
		a.chaptersView, cmd = a.chaptersView.Update(msg)
		return a, cmd

	case messages.VersionsLoaded:
		a.lineageView, cmd = a.lineageView.Update(msg)
		return a, cmd

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewChapters:
			a.chaptersView, cmd = a.chaptersView.Update(msg)
		case messages.ViewMenu, messages.ViewHelp, messages.ViewLineage,
			messages.ViewVersion, messages.ViewSettings:
			// Shown through Err only.
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward passes a message to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChapters:
		a.chaptersView, cmd = a.chaptersView.Update(msg)
	case messages.ViewLineage:
		a.lineageView, cmd = a.lineageView.Update(msg)
	case messages.ViewVersion:
		a.versionView, cmd = a.versionView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChapters:
		return a.chaptersView.View()
	case messages.ViewLineage:
		return a.lineageView.View()
	case messages.ViewVersion:
		return a.versionView.View()
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  /           Search
  q           Quit

Chapters:
  enter       Open lineage
  r           Reload

Lineage:
  h           Toggle full history
  enter       Open version

Search:
  (type)      Describe the passage
  tab         Cycle stage filter
  enter       Submit search / open result
  n, /        New search

Settings:
  enter       Edit section
  +/-         Change iteration limit

` + a.styles.Muted.Render("[esc] back to menu")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// SelectedChapter returns the chapter whose lineage was last opened.
func (a *App) SelectedChapter() *domain.Chapter {
	return a.selectedChapter
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chaptersView.SetDimensions(width, height)
	a.lineageView.SetDimensions(width, height)
	a.versionView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
