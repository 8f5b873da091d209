package discord

import "log"

// presenceStatuses are the "watching ..." lines the bot cycles
// through. The first entry is the startup status.
var presenceStatuses = []string{
	"Servers",
	"the playback queue",
	"reputation scores",
	"for slackers",
}

// setInitialPresence puts the bot online with the first status.
func (b *Bot) setInitialPresence() {
	b.presenceIndex.Store(0)
	if err := b.dg.UpdateWatchStatus(0, presenceStatuses[0]); err != nil {
		log.Printf("[WARN] Failed to set presence: %v", err)
	}
}

// rotatePresence advances to the next status in the cycle.
func (b *Bot) rotatePresence() {
	i := b.presenceIndex.Add(1)
	status := presenceStatuses[int(i)%len(presenceStatuses)]
	if err := b.dg.UpdateWatchStatus(0, status); err != nil {
		log.Printf("[WARN] Failed to rotate presence: %v", err)
		return
	}
	log.Printf("[INFO] Presence rotated to: watching %s", status)
}
