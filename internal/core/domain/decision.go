package domain

import (
	"strings"
	"time"
)

// DecisionKind is the verdict of a decision gate.
type DecisionKind string

// Decision kinds.
const (
	// DecisionAccept promotes the version to FINAL.
	DecisionAccept DecisionKind = "ACCEPT"

	// DecisionEdit replaces the text with a human correction.
	DecisionEdit DecisionKind = "EDIT"

	// DecisionReject discards the generated text and regenerates from the
	// pre-generation head.
	DecisionReject DecisionKind = "REJECT"
)

// IsValid returns true if the kind is recognised.
func (k DecisionKind) IsValid() bool {
	switch k {
	case DecisionAccept, DecisionEdit, DecisionReject:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k DecisionKind) String() string {
	return string(k)
}

// ParseDecisionKind parses a decision name case-insensitively.
func ParseDecisionKind(s string) (DecisionKind, error) {
	kind := DecisionKind(strings.ToUpper(strings.TrimSpace(s)))
	if !kind.IsValid() {
		return "", ErrInvalidDecision
	}
	return kind, nil
}

// Decision is the outcome of a decision gate acting on a version.
type Decision struct {
	// Kind is the verdict.
	Kind DecisionKind

	// Content is the corrected text. Only meaningful for EDIT.
	Content string

	// DecidedAt is when the decision was recorded.
	DecidedAt time.Time
}

// Accept returns an ACCEPT decision.
func Accept() Decision {
	return Decision{Kind: DecisionAccept}
}

// Edit returns an EDIT decision carrying the corrected content.
func Edit(content string) Decision {
	return Decision{Kind: DecisionEdit, Content: content}
}

// Reject returns a REJECT decision.
func Reject() Decision {
	return Decision{Kind: DecisionReject}
}

// Validate checks the decision is well formed.
func (d Decision) Validate() error {
	if !d.Kind.IsValid() {
		return ErrInvalidDecision
	}
	if d.Kind == DecisionEdit && strings.TrimSpace(d.Content) == "" {
		return ErrInvalidDecision
	}
	return nil
}

// FeedbackRecord is one version's structured feedback signal.
// Records are read-only input for any later reward model.
type FeedbackRecord struct {
	VersionID  string       `json:"version_id"`
	ChapterID  string       `json:"chapter_id"`
	Stage      Stage        `json:"stage"`
	Iteration  int          `json:"iteration"`
	Critique   string       `json:"critique,omitempty"`
	Decision   DecisionKind `json:"decision,omitempty"`
	Edited     bool         `json:"edited"`
	Superseded bool         `json:"superseded"`
	CreatedAt  time.Time    `json:"created_at"`
}
