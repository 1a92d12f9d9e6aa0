// Package gemini provides an LLM service adapter using the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"

	"github.com/custodia-labs/folio/internal/adapters/driven/aierr"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint. Used by tests.
	BaseURL string

	// Model is the LLM model to use (default: gemini-1.5-flash).
	Model string

	// Timeout bounds each request (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using the Gemini API.
type LLMService struct {
	svc     *generativelanguage.Service
	model   string
	timeout time.Duration
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	svc, err := NewService(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return &LLMService{
		svc:     svc,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// NewService creates a generativelanguage client authenticated by API key.
// baseURL may be empty for the public endpoint.
func NewService(ctx context.Context, apiKey, baseURL string) (*generativelanguage.Service, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(baseURL, "/")+"/"))
	}
	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create service: %w", err)
	}
	return svc, nil
}

// ModelResource returns the "models/<name>" resource path for a model.
func ModelResource(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role:  "user",
			Parts: []*generativelanguage.Part{{Text: prompt}},
		}},
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 || len(opts.StopWords) > 0 {
		req.GenerationConfig = &generativelanguage.GenerationConfig{
			MaxOutputTokens: int64(opts.MaxTokens),
			Temperature:     opts.Temperature,
			StopSequences:   opts.StopWords,
		}
	}

	resp, err := s.svc.Models.GenerateContent(ModelResource(s.model), req).Context(ctx).Do()
	if err != nil {
		return "", aierr.FromGoogle(err, domain.ErrLLMUnavailable)
	}

	text := responseText(resp)
	if text == "" {
		return "", errors.New("gemini: no text content returned")
	}
	return text, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *generativelanguage.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping fetches the model metadata, which validates the key without inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.svc.Models.Get(ModelResource(s.model)).Context(ctx).Do(); err != nil {
		return aierr.FromGoogle(err, domain.ErrLLMUnavailable)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
