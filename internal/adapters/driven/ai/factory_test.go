package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	result := &InitResult{}
	// Should not panic
	result.Close()
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    domain.EmbeddingSettings
		wantErr     bool
		errContains string
		wantModel   string
	}{
		{
			name:      "ollama",
			settings:  domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
			wantModel: "nomic-embed-text",
		},
		{
			name:      "openai",
			settings:  domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"},
			wantModel: "text-embedding-3-small",
		},
		{
			name:      "gemini",
			settings:  domain.EmbeddingSettings{Provider: domain.AIProviderGemini, APIKey: "k", Model: "text-embedding-004"},
			wantModel: "text-embedding-004",
		},
		{
			name:        "cloud provider without key",
			settings:    domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantErr:     true,
			errContains: "API key not set",
		},
		{
			name:        "anthropic",
			settings:    domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantErr:     true,
			errContains: "anthropic does not support embeddings",
		},
		{
			name:        "unknown",
			settings:    domain.EmbeddingSettings{Provider: "mystery"},
			wantErr:     true,
			errContains: "unsupported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			defer svc.Close()
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestCreateEmbeddingService_KnownDimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(context.Background(), domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "all-minilm",
	})

	require.NoError(t, err)
	assert.Equal(t, 384, svc.Dimensions())
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.LLMSettings
		wantErr  bool
	}{
		{name: "ollama", settings: domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"}},
		{name: "openai", settings: domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o-mini"}},
		{name: "anthropic", settings: domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k", Model: "claude"}},
		{name: "gemini", settings: domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "k", Model: "gemini-1.5-flash"}},
		{name: "missing key", settings: domain.LLMSettings{Provider: domain.AIProviderGemini}, wantErr: true},
		{name: "unknown", settings: domain.LLMSettings{Provider: "mystery"}, wantErr: true},
		{name: "bad ollama url", settings: domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: "::"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			defer svc.Close()
			assert.Equal(t, tt.settings.Model, svc.ModelName())
		})
	}
}

func TestCreateAndValidateLLMService_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := CreateAndValidateLLMService(context.Background(), domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "bad",
		BaseURL:  srv.URL,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "folio settings")
}

func TestCreateAndValidateLLMService_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	svc, err := CreateAndValidateLLMService(context.Background(), domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "good",
		BaseURL:  srv.URL,
	})

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestInit_EmbeddingFailureIsWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	settings := domain.DefaultSettings()
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", BaseURL: srv.URL}
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}

	result, err := Init(context.Background(), settings)

	require.NoError(t, err)
	defer result.Close()
	assert.NotNil(t, result.LLMService)
	assert.Nil(t, result.EmbeddingService)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "API key not set")
}

func TestInit_LLMFailureIsFatal(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderAnthropic}

	_, err := Init(context.Background(), settings)

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
