package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EditPolicy decides what happens to a human-edited version before the next cycle.
type EditPolicy string

// Edit policies.
const (
	// EditPolicyRegenerate sends edited text straight back to generation.
	EditPolicyRegenerate EditPolicy = "regenerate"

	// EditPolicyCritique critiques edited text before the next generation.
	EditPolicyCritique EditPolicy = "critique"
)

// IsValid returns true if the policy is recognised.
func (p EditPolicy) IsValid() bool {
	return p == EditPolicyRegenerate || p == EditPolicyCritique
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Index backends.
const (
	// IndexBackendSQLite stores vectors next to versions in the SQLite database.
	IndexBackendSQLite IndexBackend = "sqlite"

	// IndexBackendMemory keeps vectors in process memory (not persisted).
	IndexBackendMemory IndexBackend = "memory"

	// IndexBackendBolt stores vectors in a bbolt file.
	IndexBackendBolt IndexBackend = "bolt"

	// IndexBackendPostgres stores vectors in PostgreSQL with pgvector.
	IndexBackendPostgres IndexBackend = "postgres"

	// IndexBackendQdrant stores vectors in a Qdrant server, one collection per vector size.
	IndexBackendQdrant IndexBackend = "qdrant"
)

// AllIndexBackends returns every backend in menu order.
func AllIndexBackends() []IndexBackend {
	return []IndexBackend{
		IndexBackendSQLite, IndexBackendMemory, IndexBackendBolt,
		IndexBackendPostgres, IndexBackendQdrant,
	}
}

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendSQLite, IndexBackendMemory, IndexBackendBolt, IndexBackendPostgres, IndexBackendQdrant:
		return true
	default:
		return false
	}
}

// NeedsDSN reports whether the backend is a server reached through index.dsn.
func (b IndexBackend) NeedsDSN() bool {
	return b == IndexBackendPostgres || b == IndexBackendQdrant
}

// RevisionSettings bounds the iteration controller.
type RevisionSettings struct {
	// MaxIterations is the maximum number of generate→decide cycles.
	// Required; there is no unlimited default.
	MaxIterations int

	// GenerationRetryLimit is how many times a failed generation is retried.
	GenerationRetryLimit int

	// RetryBackoff is the initial backoff between generation retries.
	// It doubles on each retry.
	RetryBackoff time.Duration

	// EditPolicy decides whether edits are critiqued before regenerating.
	EditPolicy EditPolicy

	// MaxConcurrentChapters bounds batch runs.
	MaxConcurrentChapters int
}

// SearchSettings holds semantic search configuration.
type SearchSettings struct {
	// SimilarityTopK is the default k used by query callers.
	SimilarityTopK int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// RequestsPerSecond throttles calls to the provider.
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Backend selects the implementation.
	Backend IndexBackend

	// DSN locates the server for the postgres and qdrant backends.
	DSN string
}

// AcquireSettings holds content acquisition configuration.
type AcquireSettings struct {
	// SnapshotDir is where fetched source pages are stored.
	SnapshotDir string

	// Timeout bounds a single fetch.
	Timeout time.Duration
}

// Settings is the process-wide configuration.
// It is loaded once at start and treated as immutable thereafter.
type Settings struct {
	Revision  RevisionSettings
	Search    SearchSettings
	LLM       LLMSettings
	Embedding EmbeddingSettings
	Index     IndexSettings
	Acquire   AcquireSettings

	// DataDir is where the database and index files live.
	DataDir string
}

// DefaultSettings returns settings with sensible defaults.
// MaxIterations is deliberately left at zero: it must be configured.
func DefaultSettings() Settings {
	return Settings{
		Revision: RevisionSettings{
			GenerationRetryLimit:  3,
			RetryBackoff:          2 * time.Second,
			EditPolicy:            EditPolicyRegenerate,
			MaxConcurrentChapters: 4,
		},
		Search: SearchSettings{
			SimilarityTopK: 5,
		},
		LLM: LLMSettings{
			Provider:          AIProviderOllama,
			Model:             DefaultLLMModels()[AIProviderOllama],
			RequestsPerSecond: 1,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		Index: IndexSettings{
			Backend: IndexBackendSQLite,
		},
		Acquire: AcquireSettings{
			Timeout: 30 * time.Second,
		},
	}
}

// Validate checks the settings can drive the revision pipeline.
func (s Settings) Validate() error {
	if s.Revision.MaxIterations <= 0 {
		return fmt.Errorf("%w: revision.max_iterations must be set and > 0", ErrInvalidConfig)
	}
	if s.Revision.GenerationRetryLimit < 0 {
		return fmt.Errorf("%w: revision.generation_retry_limit must be >= 0", ErrInvalidConfig)
	}
	if s.Revision.RetryBackoff < 0 {
		return fmt.Errorf("%w: revision.retry_backoff must be >= 0", ErrInvalidConfig)
	}
	if !s.Revision.EditPolicy.IsValid() {
		return fmt.Errorf("%w: unknown revision.edit_policy %q", ErrInvalidConfig, s.Revision.EditPolicy)
	}
	if s.Revision.MaxConcurrentChapters <= 0 {
		return fmt.Errorf("%w: revision.max_concurrent_chapters must be > 0", ErrInvalidConfig)
	}
	if s.Search.SimilarityTopK <= 0 {
		return fmt.Errorf("%w: search.similarity_top_k must be > 0", ErrInvalidConfig)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm.provider %q", ErrInvalidConfig, s.LLM.Provider)
	}
	if !s.Embedding.Provider.IsValid() || s.Embedding.Provider == AIProviderAnthropic {
		return fmt.Errorf("%w: %q cannot provide embeddings", ErrInvalidConfig, s.Embedding.Provider)
	}
	if !s.Index.Backend.IsValid() {
		return fmt.Errorf("%w: unknown index.backend %q", ErrInvalidConfig, s.Index.Backend)
	}
	if s.Index.Backend.NeedsDSN() && s.Index.DSN == "" {
		return fmt.Errorf("%w: index.dsn is required for the %s backend", ErrInvalidConfig, s.Index.Backend)
	}
	return nil
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
	}
}
