// Package gemini provides an embedding service adapter using the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/generativelanguage/v1beta"

	"github.com/custodia-labs/folio/internal/adapters/driven/aierr"
	llmgemini "github.com/custodia-labs/folio/internal/adapters/driven/llm/gemini"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "text-embedding-004"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 768

	// maxBatch is the API limit on requests per batchEmbedContents call.
	maxBatch = 100
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint. Used by tests.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-004).
	Model string

	// Timeout bounds each request (default: 60s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (default: 768).
	Dimensions int
}

// EmbeddingService generates embeddings using the Gemini API.
type EmbeddingService struct {
	svc        *generativelanguage.Service
	model      string
	timeout    time.Duration
	dimensions int
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	svc, err := llmgemini.NewService(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return &EmbeddingService{
		svc:        svc,
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	model := llmgemini.ModelResource(s.model)
	resp, err := s.svc.Models.EmbedContent(model, s.request(model, text)).Context(ctx).Do()
	if err != nil {
		return nil, aierr.FromGoogle(err, domain.ErrEmbeddingUnavailable)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, errors.New("gemini: no embedding returned")
	}
	return toFloat32(resp.Embedding.Values), nil
}

// EmbedBatch generates embeddings for multiple texts, chunked to the API limit.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := llmgemini.ModelResource(s.model)
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))

		req := &generativelanguage.BatchEmbedContentsRequest{}
		for _, text := range texts[start:end] {
			req.Requests = append(req.Requests, s.request(model, text))
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		resp, err := s.svc.Models.BatchEmbedContents(model, req).Context(callCtx).Do()
		cancel()
		if err != nil {
			return nil, aierr.FromGoogle(err, domain.ErrEmbeddingUnavailable)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini: got %d embeddings for %d inputs", len(resp.Embeddings), end-start)
		}
		for _, e := range resp.Embeddings {
			if e == nil {
				return nil, errors.New("gemini: missing embedding in batch")
			}
			out = append(out, toFloat32(e.Values))
		}
	}
	return out, nil
}

func (s *EmbeddingService) request(model, text string) *generativelanguage.EmbedContentRequest {
	return &generativelanguage.EmbedContentRequest{
		Model: model,
		Content: &generativelanguage.Content{
			Parts: []*generativelanguage.Part{{Text: text}},
		},
	}
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping fetches the model metadata, which validates the key without inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.svc.Models.Get(llmgemini.ModelResource(s.model)).Context(ctx).Do(); err != nil {
		return aierr.FromGoogle(err, domain.ErrEmbeddingUnavailable)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
