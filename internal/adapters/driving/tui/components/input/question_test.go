package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuestionInput(t *testing.T) {
	q := NewQuestionInput(nil)

	require.NotNil(t, q)
	assert.True(t, q.Focused())
	assert.Empty(t, q.Value())
	assert.NotNil(t, q.Init())
}

func TestQuestionInput_Typing(t *testing.T) {
	q := NewQuestionInput(nil)

	q, _ = q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("descale?")})

	assert.Equal(t, "descale?", q.Value())
}

func TestQuestionInput_ValueIsTrimmed(t *testing.T) {
	q := NewQuestionInput(nil)
	q.SetValue("   how do I descale?  ")

	assert.Equal(t, "how do I descale?", q.Value())
}

func TestQuestionInput_FocusAndReset(t *testing.T) {
	q := NewQuestionInput(nil)
	q.SetValue("x")

	q.Blur()
	assert.False(t, q.Focused())
	q.Focus()
	assert.True(t, q.Focused())

	q.Reset()
	assert.Empty(t, q.Value())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetWidth(100)
	assert.Equal(t, 100, q.Width())
	assert.Equal(t, 88, q.textinput.Width)

	q.SetWidth(10)
	assert.Equal(t, minWidth, q.textinput.Width)
}

func TestQuestionInput_View(t *testing.T) {
	q := NewQuestionInput(nil)
	q.SetValue("filter")

	assert.Contains(t, q.View(), "Ask")
	assert.Contains(t, q.View(), "filter")
}
