package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyMaxIterations      = "revision.max_iterations"
	keyRetryLimit         = "revision.generation_retry_limit"
	keyRetryBackoff       = "revision.retry_backoff"
	keyEditPolicy         = "revision.edit_policy"
	keyMaxConcurrent      = "revision.max_concurrent_chapters"
	keySimilarityTopK     = "search.similarity_top_k"
	keyLLMProvider        = "llm.provider"
	keyLLMModel           = "llm.model"
	keyLLMBaseURL         = "llm.base_url"
	keyLLMRequestsPerSec  = "llm.requests_per_second"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyIndexBackend       = "index.backend"
	keyIndexDSN           = "index.dsn"
	keyAcquireSnapshotDir = "acquire.snapshot_dir"
	keyAcquireTimeout     = "acquire.timeout"
	defaultOllamaURL      = "http://localhost:11434"
	envLLMAPIKey          = "FOLIO_LLM_API_KEY"
	envEmbeddingAPIKey    = "FOLIO_EMBEDDING_API_KEY"
	envOpenAIAPIKey       = "OPENAI_API_KEY"
	envAnthropicAPIKey    = "ANTHROPIC_API_KEY"
	envGeminiAPIKey       = "GEMINI_API_KEY"
	envLegacyGoogleAPIKey = "GOOGLE_API_KEY"
)

// SettingsService reads and updates application settings through a ConfigStore.
// API keys never come from the config file; they are read from the environment.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current settings, filling unset values with defaults.
// The result is not validated; use Load for that.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	backoff, err := s.getDuration(keyRetryBackoff, defaults.Revision.RetryBackoff)
	if err != nil {
		return nil, err
	}
	timeout, err := s.getDuration(keyAcquireTimeout, defaults.Acquire.Timeout)
	if err != nil {
		return nil, err
	}
	rps, err := s.getFloat(keyLLMRequestsPerSec, defaults.LLM.RequestsPerSecond)
	if err != nil {
		return nil, err
	}

	settings := &domain.Settings{
		Revision: domain.RevisionSettings{
			MaxIterations:         s.configStore.GetInt(keyMaxIterations),
			GenerationRetryLimit:  s.getIntOrDefault(keyRetryLimit, defaults.Revision.GenerationRetryLimit),
			RetryBackoff:          backoff,
			EditPolicy:            domain.EditPolicy(s.getString(keyEditPolicy, string(defaults.Revision.EditPolicy))),
			MaxConcurrentChapters: s.getIntOrDefault(keyMaxConcurrent, defaults.Revision.MaxConcurrentChapters),
		},
		Search: domain.SearchSettings{
			SimilarityTopK: s.getIntOrDefault(keySimilarityTopK, defaults.Search.SimilarityTopK),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			RequestsPerSecond: rps,
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
		},
		Index: domain.IndexSettings{
			Backend: domain.IndexBackend(s.getString(keyIndexBackend, string(defaults.Index.Backend))),
			DSN:     s.configStore.GetString(keyIndexDSN),
		},
		Acquire: domain.AcquireSettings{
			SnapshotDir: s.configStore.GetString(keyAcquireSnapshotDir),
			Timeout:     timeout,
		},
	}

	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])
	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	if settings.LLM.Provider.IsLocal() && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = defaultOllamaURL
	}
	if settings.Embedding.Provider.IsLocal() && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = defaultOllamaURL
	}
	settings.LLM.APIKey = s.apiKey(envLLMAPIKey, settings.LLM.Provider)
	settings.Embedding.APIKey = s.apiKey(envEmbeddingAPIKey, settings.Embedding.Provider)

	return settings, nil
}

// Load returns validated settings.
func (s *SettingsService) Load() (domain.Settings, error) {
	settings, err := s.Get()
	if err != nil {
		return domain.Settings{}, err
	}
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return *settings, nil
}

// SetMaxIterations updates revision.max_iterations.
func (s *SettingsService) SetMaxIterations(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: max_iterations must be > 0", domain.ErrInvalidConfig)
	}
	return s.configStore.Set(keyMaxIterations, n)
}

// SetEditPolicy updates revision.edit_policy.
func (s *SettingsService) SetEditPolicy(policy domain.EditPolicy) error {
	if !policy.IsValid() {
		return fmt.Errorf("%w: unknown edit policy %q", domain.ErrInvalidConfig, policy)
	}
	return s.configStore.Set(keyEditPolicy, string(policy))
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model string) error {
	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidConfig, provider)
	}
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	if err := s.configStore.Set(keyEmbedProvider, provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider %s", domain.ErrInvalidConfig, provider)
	}
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	if err := s.configStore.Set(keyLLMProvider, provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	return nil
}

// SetIndexBackend selects the vector index backend.
func (s *SettingsService) SetIndexBackend(backend domain.IndexBackend, dsn string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidConfig, backend)
	}
	if backend.NeedsDSN() && dsn == "" {
		return fmt.Errorf("%w: the %s backend requires a DSN", domain.ErrInvalidConfig, backend)
	}
	if err := s.configStore.Set(keyIndexBackend, string(backend)); err != nil {
		return fmt.Errorf("save index backend: %w", err)
	}
	if !backend.NeedsDSN() {
		if err := s.configStore.Delete(keyIndexDSN); err != nil {
			return fmt.Errorf("clear index dsn: %w", err)
		}
		return nil
	}
	if err := s.configStore.Set(keyIndexDSN, dsn); err != nil {
		return fmt.Errorf("save index dsn: %w", err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// apiKey resolves a key from the folio-specific variable, then the
// provider's conventional one.
func (s *SettingsService) apiKey(primary string, provider domain.AIProvider) string {
	if v := s.getenv(primary); v != "" {
		return v
	}
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(envOpenAIAPIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(envAnthropicAPIKey)
	case domain.AIProviderGemini:
		if v := s.getenv(envGeminiAPIKey); v != "" {
			return v
		}
		return s.getenv(envLegacyGoogleAPIKey)
	default:
		return ""
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getIntOrDefault distinguishes an explicit zero from an unset key.
func (s *SettingsService) getIntOrDefault(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal, nil
	}
	switch v := val.(type) {
	case string:
		if v == "" {
			return defaultVal, nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, key, err)
		}
		return d, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a duration", domain.ErrInvalidConfig, key)
	}
}

func (s *SettingsService) getFloat(key string, defaultVal float64) (float64, error) {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal, nil
	}
	switch v := val.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidConfig, key)
	}
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return domain.AIProvider(val)
}
