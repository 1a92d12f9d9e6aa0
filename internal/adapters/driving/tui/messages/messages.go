// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/folio/internal/core/domain"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.SearchResult
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewHelp is the help/keybindings view.
	ViewHelp
	// ViewChapters lists chapters.
	ViewChapters
	// ViewLineage lists the versions of one chapter.
	ViewLineage
	// ViewVersion shows a single version.
	ViewVersion
	// ViewSettings is the settings configuration view.
	ViewSettings
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewHelp:
		return "help"
	case ViewChapters:
		return "chapters"
	case ViewLineage:
		return "lineage"
	case ViewVersion:
		return "version"
	case ViewSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// ChaptersLoaded carries the list of chapters from the service.
type ChaptersLoaded struct {
	Chapters []domain.Chapter
	Err      error
}

// ChapterSelected signals a chapter was chosen for the lineage view.
type ChapterSelected struct {
	Chapter domain.Chapter
}

// VersionsLoaded carries a chapter's lineage or full history.
type VersionsLoaded struct {
	ChapterID string
	History   bool
	Versions  []domain.Version
	Err       error
}

// VersionSelected signals a version was chosen for display.
// Back is the view esc returns to.
type VersionSelected struct {
	Version      domain.Version
	ChapterTitle string
	Back         ViewType
}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.Settings
	Err      error
}

// SettingsSaved signals settings were saved.
type SettingsSaved struct {
	Err error
}

// DecisionMade is emitted by the review view when the reviewer decides.
type DecisionMade struct {
	Decision domain.Decision
}
