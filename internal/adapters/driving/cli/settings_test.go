package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Short key", input: "abc123", expected: "****"},
		{name: "Exactly 8 chars", input: "12345678", expected: "****"},
		{name: "Long key", input: "sk-1234567890abcdef", expected: "sk-1...cdef"},
		{name: "Empty key", input: "", expected: "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestDescribeKey(t *testing.T) {
	assert.Equal(t, "(not set in environment)", describeKey(""))
	assert.Equal(t, "sk-1...cdef", describeKey("sk-1234567890abcdef"))
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{name: "empty uses default", input: "", maxVal: 3, defaultVal: 2, expected: 2},
		{name: "valid", input: "3", maxVal: 3, defaultVal: 1, expected: 3},
		{name: "zero", input: "0", maxVal: 3, defaultVal: 1, expected: 1},
		{name: "too large", input: "4", maxVal: 3, defaultVal: 1, expected: 1},
		{name: "not a number", input: "two", maxVal: 3, defaultVal: 1, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseChoice(tt.input, tt.maxVal, tt.defaultVal))
		})
	}
}

func TestMaskDSN(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		expected string
	}{
		{name: "empty", dsn: "", expected: "(not set)"},
		{
			name:     "password hidden",
			dsn:      "postgres://folio:hunter2@db:5432/folio",
			expected: "postgres://folio:****@db:5432/folio",
		},
		{name: "no password", dsn: "postgres://folio@db/folio", expected: "postgres://folio@db/folio"},
		{name: "keyword form", dsn: "host=db user=folio", expected: "host=db user=folio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskDSN(tt.dsn))
		})
	}
}

func TestSettingsShow(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "Max iterations: 3")
	assert.Contains(t, out, "Edit policy: regenerate")
	assert.Contains(t, out, "Backend: sqlite")
}

func TestSettingsShow_MaxIterationsUnset(t *testing.T) {
	ts, cleanup := setupTestServicesWith()
	defer cleanup()
	ts.settings.settings.Revision.MaxIterations = 0

	out, err := execute("settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Max iterations: (not set)")
	assert.Contains(t, out, "Warning:")
}

func TestSettingsIterations(t *testing.T) {
	ts, cleanup := setupTestServicesWith()
	defer cleanup()

	out, err := execute("settings", "iterations", "5")

	require.NoError(t, err)
	assert.Contains(t, out, "Max iterations set to: 5")
	assert.Equal(t, 5, ts.settings.settings.Revision.MaxIterations)
}

func TestSettingsIterations_Invalid(t *testing.T) {
	tests := []struct {
		name string
		arg  string
	}{
		{name: "not a number", arg: "many"},
		{name: "zero", arg: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestServices()
			defer cleanup()

			_, err := execute("settings", "iterations", tt.arg)

			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestSettingsEditPolicy(t *testing.T) {
	ts, cleanup := setupTestServicesWith()
	defer cleanup()

	out, err := execute("settings", "edit-policy", "Critique")

	require.NoError(t, err)
	assert.Contains(t, out, "Edit policy set to: critique")
	assert.Equal(t, domain.EditPolicyCritique, ts.settings.settings.Revision.EditPolicy)

	_, err = execute("settings", "edit-policy", "ignore")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSettingsIndex(t *testing.T) {
	ts, cleanup := setupTestServicesWith()
	defer cleanup()

	out, err := executeWithInput("3\n", "settings", "index")

	require.NoError(t, err)
	assert.Contains(t, out, "Index backend set to: bolt")
	assert.Contains(t, out, "folio index repair")
	assert.Equal(t, domain.IndexBackendBolt, ts.settings.settings.Index.Backend)
}

func TestSettingsIndex_PostgresNeedsDSN(t *testing.T) {
	ts, cleanup := setupTestServicesWith()
	defer cleanup()

	_, err := executeWithInput("4\n\n", "settings", "index")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN is required")

	dsn := "postgres://folio:pw@localhost/folio"
	_, err = executeWithInput("4\n"+dsn+"\n", "settings", "index")
	require.NoError(t, err)
	assert.Equal(t, domain.IndexBackendPostgres, ts.settings.settings.Index.Backend)
	assert.Equal(t, dsn, ts.settings.settings.Index.DSN)
}

func TestSettingsIndex_Qdrant(t *testing.T) {
	ts, cleanup := setupTestServicesWith()
	defer cleanup()

	out, err := executeWithInput("5\nlocalhost:6334\n", "settings", "index")

	require.NoError(t, err)
	assert.Contains(t, out, "Qdrant address")
	assert.Equal(t, domain.IndexBackendQdrant, ts.settings.settings.Index.Backend)
	assert.Equal(t, "localhost:6334", ts.settings.settings.Index.DSN)
}

func TestSettingsLLM(t *testing.T) {
	ts, cleanup := setupTestServicesWith()
	defer cleanup()

	out, err := executeWithInput("2\n\n", "settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, ts.settings.settings.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", ts.settings.settings.LLM.Model)
	assert.Contains(t, out, "FOLIO_LLM_API_KEY")
}

func TestSettingsEmbedding(t *testing.T) {
	ts, cleanup := setupTestServicesWith()
	defer cleanup()

	_, err := executeWithInput("1\nmxbai-embed-large\n", "settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.settings.Embedding.Provider)
	assert.Equal(t, "mxbai-embed-large", ts.settings.settings.Embedding.Model)
}

func TestSettingsWizard(t *testing.T) {
	ts, cleanup := setupTestServicesWith()
	defer cleanup()

	// iterations, policy, llm provider, llm model, embedding provider, embedding model
	input := "4\n2\n1\n\n1\n\n"
	out, err := executeWithInput(input, "settings", "wizard")

	require.NoError(t, err)
	assert.Contains(t, out, "Configuration Complete!")
	assert.Equal(t, 4, ts.settings.settings.Revision.MaxIterations)
	assert.Equal(t, domain.EditPolicyCritique, ts.settings.settings.Revision.EditPolicy)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.settings.LLM.Provider)
	assert.Equal(t, "nomic-embed-text", ts.settings.settings.Embedding.Model)
}

func TestSettings_NoService(t *testing.T) {
	SetServices(nil)

	_, err := execute("settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}
