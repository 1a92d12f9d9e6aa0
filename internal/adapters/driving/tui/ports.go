// Package tui provides an interactive terminal user interface for folio.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chapters provides read access to chapters and versions.
	Chapters driving.ChapterService

	// Search provides semantic search over versions.
	Search driving.SearchService

	// Settings manages application settings. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	chapters driving.ChapterService,
	search driving.SearchService,
	settings driving.SettingsService,
) *Ports {
	return &Ports{
		Chapters: chapters,
		Search:   search,
		Settings: settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chapters == nil {
		return ErrMissingChapterService
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
