// Package ollama provides an LLM service adapter using Ollama.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/custodia-labs/folio/internal/adapters/driven/aierr"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 300 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 300s).
	// Local models rewrite whole chapters slowly.
	Timeout time.Duration
}

// LLMService provides LLM operations using Ollama.
type LLMService struct {
	client *api.Client
	model  string
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	client, err := newClient(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &LLMService{
		client: client,
		model:  cfg.Model,
	}, nil
}

// newClient builds an api.Client for the given base URL.
func newClient(baseURL string, timeout time.Duration) (*api.Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ollama: invalid base URL %q", baseURL)
	}
	return api.NewClient(u, &http.Client{Timeout: timeout}), nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   s.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: buildOptions(opts),
	}

	var out strings.Builder
	err := s.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		_, err := out.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", aierr.FromOllama(err, domain.ErrLLMUnavailable)
	}
	if out.Len() == 0 {
		return "", errors.New("ollama: empty response")
	}
	return out.String(), nil
}

// buildOptions maps generation options onto Ollama model parameters.
func buildOptions(opts driven.GenerateOptions) map[string]any {
	options := map[string]any{}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if len(opts.StopWords) > 0 {
		options["stop"] = opts.StopWords
	}
	if len(options) == 0 {
		return nil
	}
	return options
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the server is up and the model has been pulled.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.Heartbeat(ctx); err != nil {
		return aierr.FromOllama(err, domain.ErrLLMUnavailable)
	}
	if _, err := s.client.Show(ctx, &api.ShowRequest{Model: s.model}); err != nil {
		var serr api.StatusError
		if errors.As(err, &serr) && serr.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: ollama model %q not pulled", domain.ErrLLMUnavailable, s.model)
		}
		return aierr.FromOllama(err, domain.ErrLLMUnavailable)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
