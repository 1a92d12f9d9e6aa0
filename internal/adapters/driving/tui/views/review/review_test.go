package review

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

func request() driven.DecisionRequest {
	return driven.DecisionRequest{
		Version: domain.Version{
			ID:        "v2",
			ChapterID: "c1",
			Stage:     domain.StageGenerated,
			Content:   "The Queen had only one way of settling all difficulties.",
		},
		Critique:      "Tighten the opening sentence.",
		ChapterTitle:  "The Queen's Croquet-Ground",
		Iteration:     2,
		MaxIterations: 5,
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m *Model, msg tea.Msg) (*Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	rm, ok := next.(*Model)
	require.True(t, ok)
	return rm, cmd
}

func newModel(t *testing.T) *Model {
	t.Helper()
	m := New(nil, nil, request())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestView_ShowsContext(t *testing.T) {
	m := newModel(t)

	out := m.View()

	assert.Contains(t, out, "The Queen's Croquet-Ground")
	assert.Contains(t, out, "GENERATED")
	assert.Contains(t, out, "Cycle 2 of 5")
	assert.Contains(t, out, "Tighten the opening sentence.")
	assert.Contains(t, out, "settling all difficulties")
	assert.Contains(t, out, "accept")
}

func TestView_NoCritique(t *testing.T) {
	req := request()
	req.Critique = ""
	req.ChapterTitle = ""
	req.MaxIterations = 0
	m := New(nil, nil, req)

	out := m.View()

	assert.Contains(t, out, "No critique available.")
	assert.Contains(t, out, "c1")
	assert.Contains(t, out, "Cycle 2")
}

func TestAccept(t *testing.T) {
	m := newModel(t)

	m, cmd := update(t, m, runes("a"))

	require.NotNil(t, cmd)
	d, ok := m.Decision()
	require.True(t, ok)
	assert.Equal(t, domain.DecisionAccept, d.Kind)
}

func TestReject(t *testing.T) {
	m := newModel(t)

	m, _ = update(t, m, runes("r"))

	d, ok := m.Decision()
	require.True(t, ok)
	assert.Equal(t, domain.DecisionReject, d.Kind)
}

func TestEdit_SubmitsEditedText(t *testing.T) {
	m := newModel(t)

	m, _ = update(t, m, runes("e"))
	require.True(t, m.Editing())
	assert.Equal(t, request().Version.Content, m.editor.Value())

	m.editor.SetValue("Off with their heads!")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	require.NotNil(t, cmd)
	d, ok := m.Decision()
	require.True(t, ok)
	assert.Equal(t, domain.DecisionEdit, d.Kind)
	assert.Equal(t, "Off with their heads!", d.Content)
}

func TestEdit_KeysGoToEditor(t *testing.T) {
	m := newModel(t)
	m, _ = update(t, m, runes("e"))
	m.editor.SetValue("")

	m, _ = update(t, m, runes("a"))

	_, decided := m.Decision()
	assert.False(t, decided, "a is typed, not an accept")
	assert.Equal(t, "a", m.editor.Value())
}

func TestEdit_EmptyIsRefused(t *testing.T) {
	m := newModel(t)
	m, _ = update(t, m, runes("e"))
	m.editor.SetValue("   ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Nil(t, cmd)
	_, decided := m.Decision()
	assert.False(t, decided)
	assert.Contains(t, m.View(), "An edit cannot be empty")
}

func TestEdit_EscReturnsToReview(t *testing.T) {
	m := newModel(t)
	m, _ = update(t, m, runes("e"))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.Editing())
	_, decided := m.Decision()
	assert.False(t, decided)
}

func TestCtrlCAborts(t *testing.T) {
	m := newModel(t)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.True(t, m.Aborted())
	_, decided := m.Decision()
	assert.False(t, decided)
}
