package domain

import "time"

// ChapterStatus describes where a chapter's revision pipeline stands.
type ChapterStatus string

// Chapter statuses.
const (
	// ChapterActive is a chapter whose lineage is still open.
	ChapterActive ChapterStatus = "active"

	// ChapterFinalized is a chapter whose lineage ends at a FINAL version.
	ChapterFinalized ChapterStatus = "finalized"

	// ChapterStalled is a chapter halted by an acquisition or generation failure.
	// Its last good state stays queryable and it may be resumed.
	ChapterStalled ChapterStatus = "stalled"

	// ChapterExhausted is a chapter that used every allowed cycle.
	ChapterExhausted ChapterStatus = "exhausted"
)

// IsValid returns true if the status is recognised.
func (s ChapterStatus) IsValid() bool {
	switch s {
	case ChapterActive, ChapterFinalized, ChapterStalled, ChapterExhausted:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further cycles will run without intervention.
func (s ChapterStatus) IsTerminal() bool {
	return s == ChapterFinalized || s == ChapterExhausted
}

// String returns the string representation.
func (s ChapterStatus) String() string {
	return string(s)
}

// Chapter is the logical unit being refined.
// It owns all of its Versions transitively.
type Chapter struct {
	// ID is the unique identifier for the chapter.
	ID string

	// Title is the human-readable title.
	Title string

	// SourceRef is where the raw content came from (URL, file path).
	SourceRef string

	// SnapshotRef points at a stored copy of the source as fetched.
	// Empty when the acquirer produced none.
	SnapshotRef string

	// HeadVersionID is the current, non-superseded head of the lineage.
	// Empty until the RAW version is committed.
	HeadVersionID string

	// Status is the pipeline status.
	Status ChapterStatus

	// StatusReason explains a stalled or exhausted status.
	StatusReason string

	// CreatedAt is when the chapter was created.
	CreatedAt time.Time
}

// Acquisition is the output of a content acquirer.
type Acquisition struct {
	// RawText is the chapter text as fetched.
	RawText string

	// Title is a title discovered in the source, if any.
	Title string

	// SnapshotRef points at a stored copy of the source, if any.
	SnapshotRef string
}
