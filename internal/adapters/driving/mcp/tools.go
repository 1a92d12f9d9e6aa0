package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// defaultSearchLimit is used when the caller gives no limit.
const defaultSearchLimit = 10

// SearchInput is the input schema for the search_versions tool.
type SearchInput struct {
	Query     string   `json:"query" jsonschema:"a description of the passage to find"`
	Limit     int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	ChapterID string   `json:"chapter_id,omitempty" jsonschema:"restrict results to one chapter"`
	Stages    []string `json:"stages,omitempty" jsonschema:"restrict results to these stages (RAW, GENERATED, CRITIQUED, HUMAN_EDITED, FINAL)"`
}

// SearchOutput is the output schema for the search_versions tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	VersionID    string  `json:"version_id"`
	ChapterID    string  `json:"chapter_id"`
	ChapterTitle string  `json:"chapter_title"`
	Stage        string  `json:"stage"`
	Sequence     int     `json:"sequence"`
	Score        float64 `json:"score"`
	Content      string  `json:"content"`
}

// LineageInput is the input schema for the get_lineage tool.
type LineageInput struct {
	ChapterID string `json:"chapter_id" jsonschema:"the chapter to trace"`
	History   bool   `json:"history,omitempty" jsonschema:"include superseded versions"`
}

// LineageOutput is the output schema for the get_lineage tool.
type LineageOutput struct {
	ChapterID string          `json:"chapter_id"`
	Title     string          `json:"title"`
	Status    string          `json:"status"`
	Versions  []VersionOutput `json:"versions"`
}

// VersionInput is the input schema for the get_version tool.
type VersionInput struct {
	VersionID string `json:"version_id" jsonschema:"the version to fetch"`
}

// VersionOutput describes one version.
type VersionOutput struct {
	ID        string    `json:"id"`
	ChapterID string    `json:"chapter_id"`
	Sequence  int       `json:"sequence"`
	Stage     string    `json:"stage"`
	ParentID  string    `json:"parent_id,omitempty"`
	Iteration int       `json:"iteration"`
	Critique  string    `json:"critique,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Content   string    `json:"content,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_versions",
		Description: "Find chapter versions whose meaning matches a description",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_lineage",
		Description: "List a chapter's versions from RAW to its current head",
	}, s.handleLineage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_version",
		Description: "Fetch one version with its content, critique and decision",
	}, s.handleVersion)
}

// handleSearch handles the search_versions tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	opts := domain.SearchOptions{Limit: limit, ChapterID: input.ChapterID}
	for _, name := range input.Stages {
		stage, err := domain.ParseStage(name)
		if err != nil {
			return nil, SearchOutput{}, err
		}
		opts.Stages = append(opts.Stages, stage)
	}

	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		v := results[i].Version
		output.Results[i] = SearchResultOutput{
			VersionID:    v.ID,
			ChapterID:    v.ChapterID,
			ChapterTitle: results[i].ChapterTitle,
			Stage:        v.Stage.String(),
			Sequence:     v.Sequence,
			Score:        results[i].Score,
			Content:      v.Content,
		}
	}

	return nil, output, nil
}

// handleLineage handles the get_lineage tool invocation.
func (s *Server) handleLineage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LineageInput,
) (*mcp.CallToolResult, LineageOutput, error) {
	chapterID := strings.TrimSpace(input.ChapterID)
	if chapterID == "" {
		return nil, LineageOutput{}, fmt.Errorf("%w: chapter_id is required", domain.ErrInvalidInput)
	}

	chapter, err := s.ports.Chapters.Get(ctx, chapterID)
	if err != nil {
		return nil, LineageOutput{}, err
	}

	list := s.ports.Chapters.Lineage
	if input.History {
		list = s.ports.Chapters.History
	}
	versions, err := list(ctx, chapterID)
	if err != nil {
		return nil, LineageOutput{}, err
	}

	output := LineageOutput{
		ChapterID: chapter.ID,
		Title:     chapter.Title,
		Status:    chapter.Status.String(),
		Versions:  make([]VersionOutput, len(versions)),
	}
	for i := range versions {
		output.Versions[i] = toVersionOutput(&versions[i], false)
	}
	return nil, output, nil
}

// handleVersion handles the get_version tool invocation.
func (s *Server) handleVersion(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input VersionInput,
) (*mcp.CallToolResult, VersionOutput, error) {
	versionID := strings.TrimSpace(input.VersionID)
	if versionID == "" {
		return nil, VersionOutput{}, fmt.Errorf("%w: version_id is required", domain.ErrInvalidInput)
	}

	v, err := s.ports.Chapters.Version(ctx, versionID)
	if err != nil {
		return nil, VersionOutput{}, err
	}
	return nil, toVersionOutput(v, true), nil
}

func toVersionOutput(v *domain.Version, withContent bool) VersionOutput {
	out := VersionOutput{
		ID:        v.ID,
		ChapterID: v.ChapterID,
		Sequence:  v.Sequence,
		Stage:     v.Stage.String(),
		ParentID:  v.Parent(),
		Iteration: v.Iteration,
		Critique:  v.CritiqueText(),
		CreatedAt: v.CreatedAt,
	}
	if v.Decision != nil {
		out.Decision = v.Decision.Kind.String()
	}
	if withContent {
		out.Content = v.Content
	}
	return out
}
