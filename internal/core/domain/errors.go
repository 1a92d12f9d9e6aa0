package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested chapter or version does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a version store invariant would be violated.
	// The store is left untouched when this is returned.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the loaded configuration is unusable.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Pipeline Errors.

	// ErrAcquisition indicates the source content could not be fetched or parsed.
	// Fatal for the chapter; no version is committed.
	ErrAcquisition = errors.New("acquisition failed")

	// ErrGeneration indicates the generation service failed.
	// Retried up to the configured bound before the chapter stalls.
	ErrGeneration = errors.New("generation failed")

	// ErrCritique indicates the critique service failed.
	// Non-fatal: the cycle continues without a critique.
	ErrCritique = errors.New("critique failed")

	// ErrInvalidDecision indicates a decision gate returned an unusable decision.
	ErrInvalidDecision = errors.New("invalid decision")

	// ErrStalled indicates a chapter halted on an external failure.
	ErrStalled = errors.New("chapter stalled")

	// ErrIterationsExhausted indicates a chapter used every allowed cycle
	// without reaching a final version.
	ErrIterationsExhausted = errors.New("max iterations exhausted")

	// ErrChapterFinalized indicates a chapter already has a FINAL version.
	ErrChapterFinalized = errors.New("chapter already finalized")

	// Service Errors.

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Generation and critique are impossible without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic indexing and search are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)
