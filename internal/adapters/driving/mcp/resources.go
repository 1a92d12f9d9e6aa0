package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Folio resources.
	uriScheme = "folio://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "chapters",
		Name:        "chapters",
		Description: "All chapters with their status and head version",
		MIMEType:    "application/json",
	}, s.handleChaptersResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "chapters/{chapterId}/lineage",
		Name:        "chapter-lineage",
		Description: "Versions of a chapter from RAW to its head",
		MIMEType:    "application/json",
	}, s.handleLineageResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "versions/{versionId}",
		Name:        "version-content",
		Description: "Text of a specific version",
		MIMEType:    "text/plain",
	}, s.handleVersionResource)
}

// handleChaptersResource returns every chapter.
func (s *Server) handleChaptersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	chapters, err := s.ports.Chapters.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}

	type chapterInfo struct {
		ID            string    `json:"id"`
		Title         string    `json:"title"`
		SourceRef     string    `json:"source_ref"`
		Status        string    `json:"status"`
		StatusReason  string    `json:"status_reason,omitempty"`
		HeadVersionID string    `json:"head_version_id,omitempty"`
		CreatedAt     time.Time `json:"created_at"`
	}

	infos := make([]chapterInfo, len(chapters))
	for i := range chapters {
		ch := &chapters[i]
		infos[i] = chapterInfo{
			ID:            ch.ID,
			Title:         ch.Title,
			SourceRef:     ch.SourceRef,
			Status:        ch.Status.String(),
			StatusReason:  ch.StatusReason,
			HeadVersionID: ch.HeadVersionID,
			CreatedAt:     ch.CreatedAt,
		}
	}

	return jsonResult(req.Params.URI, infos, "chapters")
}

// handleLineageResource returns the lineage of one chapter.
func (s *Server) handleLineageResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	chapterID := extractChapterID(req.Params.URI)
	if chapterID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	versions, err := s.ports.Chapters.Lineage(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("reading lineage: %w", err)
	}

	out := make([]VersionOutput, len(versions))
	for i := range versions {
		out[i] = toVersionOutput(&versions[i], false)
	}
	return jsonResult(req.Params.URI, out, "lineage")
}

// handleVersionResource returns the text of one version.
func (s *Server) handleVersionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	versionID := extractVersionID(req.Params.URI)
	if versionID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	v, err := s.ports.Chapters.Version(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("getting version: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     v.Content,
		}},
	}, nil
}

func jsonResult(uri string, v any, what string) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", what, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractChapterID extracts the chapter ID from a URI like folio://chapters/{chapterId}/lineage.
func extractChapterID(uri string) string {
	const prefix = uriScheme + "chapters/"
	const suffix = "/lineage"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractVersionID extracts the version ID from a URI like folio://versions/{versionId}.
func extractVersionID(uri string) string {
	const prefix = uriScheme + "versions/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
