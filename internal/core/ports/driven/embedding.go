// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService turns version text into vectors for the semantic index.
// It is optional: without one, versions are still committed but not
// searchable until `folio index repair` runs against a reachable service.
type EmbeddingService interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in order. Reconcile uses it
	// to repair the index with few requests.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector size of the model, or 0 until known.
	// Vector indexes only compare vectors of equal size.
	Dimensions() int

	ModelName() string

	// Ping makes a lightweight request to check the service is reachable.
	Ping(ctx context.Context) error

	Close() error
}
