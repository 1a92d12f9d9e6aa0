// Package mcp provides an MCP (Model Context Protocol) server adapter for Folio.
// It lets AI assistants search chapter versions and read their lineage.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingChapterService is returned when the chapter service is not provided.
var ErrMissingChapterService = errors.New("mcp: chapter service is required")
