package domain

import (
	"fmt"
	"strings"
)

// LineageState summarises a chapter for append validation.
type LineageState struct {
	// HeadID is the chapter's current head, empty before RAW.
	HeadID string

	// HasRaw is true once a RAW version exists.
	HasRaw bool

	// HasFinal is true once a FINAL version exists.
	HasFinal bool
}

// ValidateAppend checks that v may be appended to a chapter in the given state.
// parent is the version named by v.ParentID, or nil if it does not exist.
// Shape errors wrap ErrInvalidInput; lineage violations wrap ErrConflict.
func ValidateAppend(state LineageState, parent, v *Version) error {
	if v == nil {
		return fmt.Errorf("%w: nil version", ErrInvalidInput)
	}
	if v.ChapterID == "" {
		return fmt.Errorf("%w: version has no chapter", ErrInvalidInput)
	}
	if !v.Stage.IsValid() {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, v.Stage)
	}
	if v.Iteration < 0 {
		return fmt.Errorf("%w: negative iteration", ErrInvalidInput)
	}
	if v.Stage == StageCritiqued && strings.TrimSpace(v.CritiqueText()) == "" {
		return fmt.Errorf("%w: critiqued version without critique", ErrInvalidInput)
	}
	if state.HasFinal {
		return fmt.Errorf("%w: chapter %s is final", ErrConflict, v.ChapterID)
	}

	if v.Stage == StageRaw {
		if state.HasRaw {
			return fmt.Errorf("%w: chapter %s already has a RAW version", ErrConflict, v.ChapterID)
		}
		if v.ParentID != nil {
			return fmt.Errorf("%w: RAW version cannot have a parent", ErrConflict)
		}
		if v.Iteration != 0 {
			return fmt.Errorf("%w: RAW version must have iteration 0", ErrInvalidInput)
		}
		return nil
	}

	if v.ParentID == nil {
		return fmt.Errorf("%w: %s version requires a parent", ErrConflict, v.Stage)
	}
	if parent == nil {
		return fmt.Errorf("%w: parent %s does not exist", ErrConflict, *v.ParentID)
	}
	if parent.ChapterID != v.ChapterID {
		return fmt.Errorf("%w: parent %s belongs to another chapter", ErrConflict, parent.ID)
	}
	if parent.ID != state.HeadID {
		return fmt.Errorf("%w: parent %s is not the chapter head", ErrConflict, parent.ID)
	}
	if v.Iteration < parent.Iteration {
		return fmt.Errorf("%w: iteration %d precedes parent iteration %d", ErrConflict, v.Iteration, parent.Iteration)
	}
	return nil
}

// ValidateDecisionTarget checks that a decision may be recorded on v.
// Only the current head can be decided, once, and never RAW or FINAL.
func ValidateDecisionTarget(headID string, v *Version, d Decision) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if v.Decision != nil {
		return fmt.Errorf("%w: version %s already decided", ErrConflict, v.ID)
	}
	if v.Stage == StageRaw || v.Stage == StageFinal {
		return fmt.Errorf("%w: %s versions cannot be decided", ErrConflict, v.Stage)
	}
	if v.ID != headID {
		return fmt.Errorf("%w: version %s is not the chapter head", ErrConflict, v.ID)
	}
	return nil
}

// RewindTarget returns the head a REJECT of the decided version rewinds to:
// the parent of the nearest GENERATED version at or above it.
// lookup resolves a version by ID.
func RewindTarget(decided *Version, lookup func(id string) (*Version, error)) (string, error) {
	cur := decided
	for cur != nil {
		if cur.Stage == StageGenerated {
			if cur.ParentID == nil {
				return "", fmt.Errorf("%w: generated version %s has no parent", ErrConflict, cur.ID)
			}
			return *cur.ParentID, nil
		}
		if cur.ParentID == nil {
			break
		}
		next, err := lookup(*cur.ParentID)
		if err != nil {
			return "", err
		}
		cur = next
	}
	return "", fmt.Errorf("%w: no generated version to reject above %s", ErrConflict, decided.ID)
}
