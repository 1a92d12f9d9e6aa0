package domain

import (
	"strings"
	"time"
)

// Stage tags how a version's text came to exist.
type Stage string

// Version stages.
const (
	// StageRaw is the acquired source text. Exactly one per chapter.
	StageRaw Stage = "RAW"

	// StageGenerated is text produced by the generation service.
	StageGenerated Stage = "GENERATED"

	// StageCritiqued is generated (or edited) text paired with a critique.
	StageCritiqued Stage = "CRITIQUED"

	// StageHumanEdited is text corrected through a decision gate.
	StageHumanEdited Stage = "HUMAN_EDITED"

	// StageFinal is the accepted end of a lineage. At most one per chapter.
	StageFinal Stage = "FINAL"
)

// IsValid returns true if the stage is recognised.
func (s Stage) IsValid() bool {
	switch s {
	case StageRaw, StageGenerated, StageCritiqued, StageHumanEdited, StageFinal:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// ParseStage parses a stage name case-insensitively.
func ParseStage(s string) (Stage, error) {
	stage := Stage(strings.ToUpper(strings.TrimSpace(s)))
	if !stage.IsValid() {
		return "", ErrInvalidInput
	}
	return stage, nil
}

// AllStages returns every stage in pipeline order.
func AllStages() []Stage {
	return []Stage{StageRaw, StageGenerated, StageCritiqued, StageHumanEdited, StageFinal}
}

// Version is an immutable snapshot of a chapter's text.
// Corrections are always new versions, never in-place edits.
type Version struct {
	// ID is the unique identifier for the version.
	ID string

	// ChapterID links back to the owning Chapter.
	ChapterID string

	// Sequence is assigned by the store, monotonically increasing per chapter.
	Sequence int

	// Stage describes how this text came to exist.
	Stage Stage

	// Content is the text body.
	Content string

	// ParentID is the previous version in the lineage. Nil only for RAW.
	ParentID *string

	// Iteration is the generate→decide cycle that produced this version.
	// RAW is 0.
	Iteration int

	// Critique is the critique text, present when Stage is CRITIQUED.
	Critique *string

	// Decision is the decision gate's verdict on this version, if any.
	Decision *Decision

	// CreatedAt is when the version was committed.
	CreatedAt time.Time

	// EmbeddingRef identifies this version's entry in the semantic index.
	EmbeddingRef string
}

// Parent returns the parent version ID or empty string for RAW.
func (v *Version) Parent() string {
	if v == nil || v.ParentID == nil {
		return ""
	}
	return *v.ParentID
}

// CritiqueText returns the critique or empty string.
func (v *Version) CritiqueText() string {
	if v == nil || v.Critique == nil {
		return ""
	}
	return *v.Critique
}

// VersionFilter restricts lookups to a chapter and/or a set of stages.
type VersionFilter struct {
	// ChapterID restricts to one chapter. Empty matches all chapters.
	ChapterID string

	// Stages restricts to the given stages. Empty matches all stages.
	Stages []Stage
}

// Matches reports whether a version with the given chapter and stage passes the filter.
func (f VersionFilter) Matches(chapterID string, stage Stage) bool {
	if f.ChapterID != "" && f.ChapterID != chapterID {
		return false
	}
	if len(f.Stages) == 0 {
		return true
	}
	for _, s := range f.Stages {
		if s == stage {
			return true
		}
	}
	return false
}
