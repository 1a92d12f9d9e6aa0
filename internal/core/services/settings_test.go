package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/folio/internal/core/domain"
)

func newTestSettingsService(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)
	service.getenv = func(key string) string { return env[key] }
	return service, store
}

func TestNewSettingsService(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, 0, settings.Revision.MaxIterations)
	assert.Equal(t, defaults.Revision.GenerationRetryLimit, settings.Revision.GenerationRetryLimit)
	assert.Equal(t, defaults.Revision.RetryBackoff, settings.Revision.RetryBackoff)
	assert.Equal(t, defaults.Revision.EditPolicy, settings.Revision.EditPolicy)
	assert.Equal(t, defaults.Search.SimilarityTopK, settings.Search.SimilarityTopK)
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.LLM.Model, settings.LLM.Model)
	assert.Equal(t, defaultOllamaURL, settings.LLM.BaseURL)
	assert.Equal(t, defaults.Embedding.Model, settings.Embedding.Model)
	assert.Equal(t, domain.IndexBackendSQLite, settings.Index.Backend)
	assert.Equal(t, 30*time.Second, settings.Acquire.Timeout)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{
		"GEMINI_API_KEY": "gem-key",
		"OPENAI_API_KEY": "sk-test",
	})
	_ = store.Set("revision.max_iterations", int64(4))
	_ = store.Set("revision.generation_retry_limit", int64(0))
	_ = store.Set("revision.retry_backoff", "500ms")
	_ = store.Set("revision.edit_policy", "critique")
	_ = store.Set("search.similarity_top_k", int64(8))
	_ = store.Set("llm.provider", "gemini")
	_ = store.Set("llm.requests_per_second", 0.5)
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("index.backend", "bolt")
	_ = store.Set("acquire.timeout", "1m")

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, 4, settings.Revision.MaxIterations)
	assert.Equal(t, 0, settings.Revision.GenerationRetryLimit, "explicit zero is kept")
	assert.Equal(t, 500*time.Millisecond, settings.Revision.RetryBackoff)
	assert.Equal(t, domain.EditPolicyCritique, settings.Revision.EditPolicy)
	assert.Equal(t, 8, settings.Search.SimilarityTopK)
	assert.Equal(t, domain.AIProviderGemini, settings.LLM.Provider)
	assert.Equal(t, "gemini-1.5-flash", settings.LLM.Model)
	assert.Empty(t, settings.LLM.BaseURL)
	assert.Equal(t, "gem-key", settings.LLM.APIKey)
	assert.InDelta(t, 0.5, settings.LLM.RequestsPerSecond, 1e-9)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Equal(t, domain.IndexBackendBolt, settings.Index.Backend)
	assert.Equal(t, time.Minute, settings.Acquire.Timeout)
}

func TestSettingsService_Get_FolioKeysWin(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{
		"FOLIO_LLM_API_KEY": "folio-key",
		"ANTHROPIC_API_KEY": "ant-key",
	})
	_ = store.Set("llm.provider", "anthropic")

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "folio-key", settings.LLM.APIKey)
}

func TestSettingsService_Get_InvalidDuration(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("revision.retry_backoff", "soon")

	_, err := service.Get()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSettingsService_Load_RequiresMaxIterations(t *testing.T) {
	service, store := newTestSettingsService(nil)

	_, err := service.Load()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	require.NoError(t, store.Set("revision.max_iterations", int64(2)))
	settings, err := service.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, settings.Revision.MaxIterations)
}

func TestSettingsService_Load_RejectsUnknownProvider(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("revision.max_iterations", int64(2))
	_ = store.Set("llm.provider", "cohere")

	_, err := service.Load()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSettingsService_SetMaxIterations(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	assert.ErrorIs(t, service.SetMaxIterations(0), domain.ErrInvalidConfig)
	require.NoError(t, service.SetMaxIterations(5))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, settings.Revision.MaxIterations)
}

func TestSettingsService_SetEditPolicy(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	assert.ErrorIs(t, service.SetEditPolicy("skip"), domain.ErrInvalidConfig)
	require.NoError(t, service.SetEditPolicy(domain.EditPolicyCritique))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.EditPolicyCritique, settings.Revision.EditPolicy)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	tests := []struct {
		name      string
		provider  domain.AIProvider
		model     string
		wantModel string
		wantErr   bool
	}{
		{"ollama default model", domain.AIProviderOllama, "", "nomic-embed-text", false},
		{"gemini default model", domain.AIProviderGemini, "", "text-embedding-004", false},
		{"openai explicit model", domain.AIProviderOpenAI, "text-embedding-3-large", "text-embedding-3-large", false},
		{"anthropic unsupported", domain.AIProviderAnthropic, "", "", true},
		{"unknown", domain.AIProvider("cohere"), "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestSettingsService(nil)
			err := service.SetEmbeddingProvider(tt.provider, tt.model)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)

			settings, err := service.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.Embedding.Provider)
			assert.Equal(t, tt.wantModel, settings.Embedding.Model)
		})
	}
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderAnthropic, ""))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)

	assert.ErrorIs(t, service.SetLLMProvider("nope", ""), domain.ErrInvalidConfig)
}

func TestSettingsService_SetIndexBackend(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	assert.ErrorIs(t, service.SetIndexBackend("faiss", ""), domain.ErrInvalidConfig)
	assert.ErrorIs(t, service.SetIndexBackend(domain.IndexBackendPostgres, ""), domain.ErrInvalidConfig)
	require.NoError(t, service.SetIndexBackend(domain.IndexBackendPostgres, "postgres://localhost/folio"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.IndexBackendPostgres, settings.Index.Backend)
	assert.Equal(t, "postgres://localhost/folio", settings.Index.DSN)

	require.NoError(t, service.SetIndexBackend(domain.IndexBackendBolt, ""))
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.IndexBackendBolt, settings.Index.Backend)
	assert.Empty(t, settings.Index.DSN, "switching away from postgres drops the DSN")

	assert.ErrorIs(t, service.SetIndexBackend(domain.IndexBackendQdrant, ""), domain.ErrInvalidConfig)
	require.NoError(t, service.SetIndexBackend(domain.IndexBackendQdrant, "localhost:6334"))
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6334", settings.Index.DSN)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service, _ := newTestSettingsService(nil)
	assert.Equal(t, domain.DefaultSettings(), service.GetDefaults())
}
