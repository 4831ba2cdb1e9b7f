package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("tab", km.Switch))
	assert.True(t, Matches("enter", km.Submit))
	assert.True(t, Matches("enter", km.Activate))
	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.True(t, Matches("pgdown", km.Down))
	assert.False(t, Matches("q", km.Quit))
}

func TestKeyMap_Help(t *testing.T) {
	km := DefaultKeyMap()

	ask := km.AskHelp()
	assert.Len(t, ask, 4)
	assert.Equal(t, "ask", ask[0].Help().Desc)

	manuals := km.ManualsHelp()
	assert.Len(t, manuals, 4)
	assert.Equal(t, "use manual", manuals[0].Help().Desc)
}

func TestMatches_UnknownKey(t *testing.T) {
	assert.False(t, Matches("x", DefaultKeyMap().Refresh))
}
