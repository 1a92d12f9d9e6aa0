package settings

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/tuitest"
	"github.com/custodia-labs/folio/internal/core/domain"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T) (*View, *tuitest.SettingsService) {
	t.Helper()
	svc := tuitest.NewSettingsService()
	v := NewView(nil, svc)
	v.SetDimensions(100, 40)
	v, _ = v.Update(v.Init()())
	require.NotNil(t, v.settings)
	return v, svc
}

// press sends keys and runs the save command triggered by enter.
func press(v *View, keys ...string) *View {
	for _, k := range keys {
		var cmd tea.Cmd
		v, cmd = v.Update(key(k))
		if cmd == nil || k != "enter" {
			continue
		}
		if msg, ok := cmd().(messages.SettingsSaved); ok {
			v, cmd = v.Update(msg)
			if cmd != nil {
				v, _ = v.Update(cmd())
			}
		}
	}
	return v
}

func TestView_LoadingAndNoService(t *testing.T) {
	v := NewView(nil, nil)
	assert.Contains(t, v.View(), "Loading settings...")

	v, _ = v.Update(v.Init()())
	assert.Contains(t, v.View(), "settings service not available")
}

func TestView_Overview(t *testing.T) {
	v, _ := loaded(t)

	out := v.View()

	assert.Contains(t, out, "Max iterations:")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "regenerate")
	assert.Contains(t, out, "ollama (llama3.2)")
	assert.Contains(t, out, "sqlite")
	assert.Contains(t, out, "Configuration is valid")
}

func TestView_OverviewWarnsWhenIterationsUnset(t *testing.T) {
	svc := tuitest.NewSettingsService()
	svc.Settings.Revision.MaxIterations = 0
	v := NewView(nil, svc)
	v, _ = v.Update(v.Init()())

	out := v.View()

	assert.Contains(t, out, "not set")
	assert.Contains(t, out, "Warning:")
}

func TestSetMaxIterations(t *testing.T) {
	v, svc := loaded(t)

	v = press(v, "enter", "+", "+", "-", "enter")

	assert.Equal(t, 4, svc.Settings.Revision.MaxIterations)
	assert.Equal(t, SectionOverview, v.Section())
	assert.Contains(t, v.View(), "Saved.")
}

func TestSetMaxIterations_FloorsAtOne(t *testing.T) {
	v, svc := loaded(t)

	v = press(v, "enter", "-", "-", "-", "-", "enter")

	assert.Equal(t, 1, svc.Settings.Revision.MaxIterations)
}

func TestSetEditPolicy(t *testing.T) {
	v, svc := loaded(t)

	v = press(v, "down", "enter", "down", "enter")

	assert.Equal(t, domain.EditPolicyCritique, svc.Settings.Revision.EditPolicy)
	assert.Equal(t, []string{"edit_policy"}, svc.Calls)
}

func TestSetLLMProvider_UsesDefaultModel(t *testing.T) {
	v, svc := loaded(t)

	v = press(v, "j", "j", "enter")
	assert.Equal(t, SectionLLM, v.Section())
	assert.Contains(t, v.View(), "key from environment")
	v = press(v, "j", "enter")

	assert.Equal(t, domain.AIProviderOpenAI, svc.Settings.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", svc.Settings.LLM.Model)
}

func TestSetEmbeddingProvider(t *testing.T) {
	v, svc := loaded(t)

	v = press(v, "j", "j", "j", "enter", "j", "j", "enter")

	assert.Equal(t, domain.AIProviderGemini, svc.Settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-004", svc.Settings.Embedding.Model)
}

func TestSetIndexBackend_Postgres(t *testing.T) {
	v, svc := loaded(t)

	v = press(v, "j", "j", "j", "j", "enter", "j", "j", "j", "enter")
	require.True(t, v.dsnFocused)
	for _, r := range "postgres://x" {
		v = press(v, string(r))
	}
	v = press(v, "enter")

	assert.Equal(t, domain.IndexBackendPostgres, svc.Settings.Index.Backend)
	assert.Equal(t, "postgres://x", svc.Settings.Index.DSN)
	assert.False(t, v.dsnFocused)
}

func TestSetIndexBackend_Qdrant(t *testing.T) {
	v, svc := loaded(t)

	v = press(v, "j", "j", "j", "j", "enter", "j", "j", "j", "j", "enter")
	require.True(t, v.dsnFocused)
	for _, r := range "qdrant:6334" {
		v = press(v, string(r))
	}
	v = press(v, "enter")

	assert.Equal(t, domain.IndexBackendQdrant, svc.Settings.Index.Backend)
	assert.Equal(t, "qdrant:6334", svc.Settings.Index.DSN)
}

func TestSetIndexBackend_Bolt(t *testing.T) {
	v, svc := loaded(t)

	press(v, "j", "j", "j", "j", "enter", "j", "enter")

	assert.Equal(t, domain.IndexBackendBolt, svc.Settings.Index.Backend)
	assert.Empty(t, svc.Settings.Index.DSN)
}

func TestSaveError(t *testing.T) {
	v, svc := loaded(t)
	svc.Err = errors.New("config not writable")

	v = press(v, "enter", "enter")

	assert.Contains(t, v.View(), "config not writable")
	assert.Equal(t, SectionIterations, v.Section())
}

func TestEsc(t *testing.T) {
	v, _ := loaded(t)

	v = press(v, "down", "enter", "esc")
	assert.Equal(t, SectionOverview, v.Section())
	assert.Equal(t, 1, v.selected, "returns to the section's row")

	_, cmd := v.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestReset(t *testing.T) {
	v, _ := loaded(t)
	v = press(v, "enter")

	v.Reset()

	assert.Equal(t, SectionOverview, v.Section())
	assert.Equal(t, 0, v.selected)
}
