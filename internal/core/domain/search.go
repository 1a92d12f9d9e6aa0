package domain

import "time"

// SearchOptions configures a semantic query.
type SearchOptions struct {
	// Limit is the maximum number of results (k).
	// Zero uses the configured similarity_top_k.
	Limit int

	// ChapterID restricts results to one chapter.
	ChapterID string

	// Stages restricts results to the given stages.
	Stages []Stage
}

// Filter returns the version filter these options describe.
func (o SearchOptions) Filter() VersionFilter {
	return VersionFilter{ChapterID: o.ChapterID, Stages: o.Stages}
}

// SemanticHit is a single semantic index match.
type SemanticHit struct {
	// VersionID is the matched version.
	VersionID string

	// Similarity is the cosine similarity to the query.
	Similarity float64

	// CreatedAt is the matched version's creation time (tie breaker).
	CreatedAt time.Time
}

// SearchResult is a semantic hit hydrated with its version.
type SearchResult struct {
	// Version is the matched version.
	Version Version

	// ChapterTitle is the owning chapter's title.
	ChapterTitle string

	// Score is the similarity score.
	Score float64
}
