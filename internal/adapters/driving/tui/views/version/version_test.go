package version

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/folio/internal/core/domain"
)

func sampleVersion(lines int) domain.Version {
	var content []string
	for i := 1; i <= lines; i++ {
		content = append(content, fmt.Sprintf("line %d", i))
	}
	critique := "The pacing drags in the middle."
	parent := "0f1e2d3c-aaaa-bbbb-cccc-000000000000"
	edit := domain.Edit("reviewer text")
	return domain.Version{
		ID:        "v2",
		ChapterID: "c1",
		Sequence:  2,
		Stage:     domain.StageCritiqued,
		Iteration: 1,
		Content:   strings.Join(content, "\n"),
		ParentID:  &parent,
		Critique:  &critique,
		Decision:  &edit,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	}
}

func TestView_Empty(t *testing.T) {
	v := NewView(nil)

	assert.Contains(t, v.View(), "No version selected.")
}

func TestView_RendersMetadataCritiqueAndContent(t *testing.T) {
	v := NewView(nil)
	v.SetDimensions(100, 60)
	v.SetVersion(sampleVersion(3), "Who Stole the Tarts?", messages.ViewSearch)

	out := v.View()

	assert.Contains(t, out, "Who Stole the Tarts?")
	assert.Contains(t, out, "CRITIQUED")
	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "iteration 1")
	assert.Contains(t, out, "EDIT")
	assert.Contains(t, out, "parent 0f1e2d3c")
	assert.Contains(t, out, "The pacing drags")
	assert.Contains(t, out, "Edited by reviewer")
	assert.Contains(t, out, "line 3")
}

func TestView_Scrolling(t *testing.T) {
	v := NewView(nil)
	v.SetDimensions(80, 20)
	v.SetVersion(sampleVersion(50), "", messages.ViewLineage)

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.ScrollOffset())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	assert.Equal(t, v.maxScrollOffset(), v.ScrollOffset())
	assert.Contains(t, v.View(), "line 50")
	assert.Contains(t, v.View(), "[100%]")

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, v.maxScrollOffset()-v.visibleLines(), v.ScrollOffset())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	assert.Equal(t, 0, v.ScrollOffset())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.ScrollOffset())
}

func TestView_ShrinkClampsScroll(t *testing.T) {
	v := NewView(nil)
	v.SetDimensions(80, 20)
	v.SetVersion(sampleVersion(30), "", messages.ViewLineage)
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyEnd})

	v.SetDimensions(80, 200)

	assert.Equal(t, 0, v.ScrollOffset())
}

func TestView_EscReturnsToOrigin(t *testing.T) {
	v := NewView(nil)
	v.SetVersion(sampleVersion(1), "", messages.ViewSearch)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSearch}, cmd())
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "12345678", shortID("1234567890"))
}
