package tui

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("tui: search service is required")

// ErrMissingChapterService is returned when the chapter service is not provided.
var ErrMissingChapterService = errors.New("tui: chapter service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")

// ErrReviewAborted is returned by the gate when the reviewer quits without deciding.
var ErrReviewAborted = errors.New("tui: review aborted")
