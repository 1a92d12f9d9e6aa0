package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Keys(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"quit", km.Quit, []string{"q", "ctrl+c"}},
		{"back", km.Back, []string{"esc"}},
		{"up", km.Up, []string{"up", "k"}},
		{"down", km.Down, []string{"down", "j"}},
		{"history", km.History, []string{"h"}},
		{"accept", km.Accept, []string{"a"}},
		{"edit", km.Edit, []string{"e"}},
		{"reject", km.Reject, []string{"r"}},
		{"submit", km.Submit, []string{"ctrl+s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.keys {
				assert.Contains(t, tt.binding.Keys(), k)
			}
			assert.NotEmpty(t, tt.binding.Help().Key)
		})
	}
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ShortHelp()

	assert.Len(t, bindings, 2)
	assert.Equal(t, km.Quit, bindings[0])
	assert.Equal(t, km.Help, bindings[1])
}

func TestReviewHelp(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, []key.Binding{km.Accept, km.Edit, km.Reject}, km.ReviewHelp())
	assert.Equal(t, []key.Binding{km.Submit, km.Cancel}, km.EditHelp())
}

func TestFullHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.FullHelp()

	assert.Len(t, bindings, 3)
	assert.Len(t, bindings[2], 2)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("q", km.Quit))
	assert.True(t, Matches("k", km.Up))
	assert.True(t, Matches("a", km.Accept))
	assert.False(t, Matches("x", km.Quit))
	assert.False(t, Matches("down", km.Up))
}
