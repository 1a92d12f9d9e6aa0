package mcp

import (
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides semantic search over versions.
	Search driving.SearchService

	// Chapters provides read access to chapters and their versions.
	Chapters driving.ChapterService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Chapters == nil {
		return ErrMissingChapterService
	}
	return nil
}
