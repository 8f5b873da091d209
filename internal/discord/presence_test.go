package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func presenceTestBot(t *testing.T) *Bot {
	t.Helper()
	// The session is never opened; status updates fail over the missing
	// gateway but rotation state must still advance.
	dg, err := discordgo.New("Bot test-token")
	require.NoError(t, err)
	return &Bot{dg: dg}
}

func TestPresenceRotationStateIsPerBot(t *testing.T) {
	b1 := presenceTestBot(t)
	b2 := presenceTestBot(t)

	b1.rotatePresence()
	b1.rotatePresence()

	assert.Equal(t, uint32(2), b1.presenceIndex.Load())
	assert.Equal(t, uint32(0), b2.presenceIndex.Load(), "rotation must not leak across instances")
}

func TestPresenceRotationWrapsAround(t *testing.T) {
	b := presenceTestBot(t)
	b.setInitialPresence()

	for i := 0; i < len(presenceStatuses)+1; i++ {
		b.rotatePresence()
	}

	i := b.presenceIndex.Load()
	assert.Equal(t, presenceStatuses[1], presenceStatuses[int(i)%len(presenceStatuses)])
}
