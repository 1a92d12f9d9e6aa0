package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func TestExtractChapterID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid lineage URI", uri: "folio://chapters/ch-123/lineage", expected: "ch-123"},
		{name: "invalid prefix", uri: "file://chapters/ch-123/lineage", expected: ""},
		{name: "missing lineage suffix", uri: "folio://chapters/ch-123", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractChapterID(tt.uri))
		})
	}
}

func TestExtractVersionID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid version URI", uri: "folio://versions/v-456", expected: "v-456"},
		{name: "invalid prefix", uri: "file://versions/v-456", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractVersionID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleChaptersResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns chapters", func(t *testing.T) {
		server := newTestServer(t, &mockSearchService{}, &mockChapterService{
			chapters: []domain.Chapter{aliceChapter()},
		})

		result, err := server.handleChaptersResource(ctx, makeReadResourceRequest("folio://chapters"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &decoded))
		require.Len(t, decoded, 1)
		assert.Equal(t, "ch-1", decoded[0]["id"])
		assert.Equal(t, "finalized", decoded[0]["status"])
		assert.Equal(t, "v-3", decoded[0]["head_version_id"])
	})

	t.Run("empty store returns empty list", func(t *testing.T) {
		server := newTestServer(t, &mockSearchService{}, &mockChapterService{})

		result, err := server.handleChaptersResource(ctx, makeReadResourceRequest("folio://chapters"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("service error", func(t *testing.T) {
		server := newTestServer(t, &mockSearchService{}, &mockChapterService{err: errors.New("db locked")})

		_, err := server.handleChaptersResource(ctx, makeReadResourceRequest("folio://chapters"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "db locked")
	})
}

func TestServer_handleLineageResource(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &mockSearchService{}, &mockChapterService{lineage: aliceLineage()})

	result, err := server.handleLineageResource(ctx, makeReadResourceRequest("folio://chapters/ch-1/lineage"))

	require.NoError(t, err)
	var decoded []VersionOutput
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "FINAL", decoded[2].Stage)

	_, err = server.handleLineageResource(ctx, makeReadResourceRequest("folio://chapters/ch-1"))
	require.Error(t, err)
}

func TestServer_handleVersionResource(t *testing.T) {
	ctx := context.Background()
	v := aliceLineage()[0]
	server := newTestServer(t, &mockSearchService{}, &mockChapterService{version: &v})

	result, err := server.handleVersionResource(ctx, makeReadResourceRequest("folio://versions/v-1"))

	require.NoError(t, err)
	assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	assert.Equal(t, v.Content, result.Contents[0].Text)

	_, err = server.handleVersionResource(ctx, makeReadResourceRequest("folio://other/v-1"))
	require.Error(t, err)
}
