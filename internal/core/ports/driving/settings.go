package driving

import "github.com/custodia-labs/folio/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.Settings, error)

	// SetMaxIterations updates revision.max_iterations.
	SetMaxIterations(n int) error

	// SetEditPolicy updates revision.edit_policy.
	SetEditPolicy(policy domain.EditPolicy) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model string) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model string) error

	// SetIndexBackend selects the vector index backend.
	SetIndexBackend(backend domain.IndexBackend, dsn string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
