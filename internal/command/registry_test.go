package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredCommands(t *testing.T) {
	for _, name := range []string{
		"ping", "x", "help",
		"play", "skip", "pause", "resume", "stop", "leave", "queue", "nowplaying",
		"rep", "save", "decay",
	} {
		cmd, ok := Get(name)
		require.True(t, ok, "command %q not registered", name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestAliasesResolveToSameCommand(t *testing.T) {
	for alias, name := range map[string]string{
		"p":          "play",
		"q":          "queue",
		"np":         "nowplaying",
		"next":       "skip",
		"disconnect": "leave",
		"reputation": "rep",
		"commands":   "help",
	} {
		cmd, ok := Get(alias)
		require.True(t, ok, "alias %q not registered", alias)
		assert.Equal(t, name, cmd.Name(), "alias %q", alias)
	}
}

func TestAdminGating(t *testing.T) {
	for name, wantAdmin := range map[string]bool{
		"save":  true,
		"decay": true,
		"x":     false,
		"play":  false,
	} {
		cmd, ok := Get(name)
		require.True(t, ok)
		assert.Equal(t, wantAdmin, cmd.RequireAdmin(), "command %q", name)
	}
}

func TestAllDeduplicatesAliases(t *testing.T) {
	seen := map[string]bool{}
	for _, cmd := range All() {
		require.False(t, seen[cmd.Name()], "command %q listed twice", cmd.Name())
		seen[cmd.Name()] = true
	}
	assert.True(t, seen["x"])
}
