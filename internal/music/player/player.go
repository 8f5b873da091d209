// Package player owns per-guild playback state. All mutation happens on
// the Coordinator's single work loop; completion signals from the audio
// backend are marshaled back onto that loop before they touch the queue.
package player

import (
	"errors"
	"log"

	"github.com/google/uuid"

	"xerobot/internal/music/resolver"
)

type Status string

const (
	StatusIdle       Status = "Idle"
	StatusConnecting Status = "Connecting"
	StatusPlaying    Status = "Playing"
	StatusPaused     Status = "Paused"
)

var (
	ErrNothingPlaying = errors.New("nothing is currently playing")
	ErrNotPaused      = errors.New("playback is not paused")
	ErrAlreadyPaused  = errors.New("playback is already paused")
	ErrShuttingDown   = errors.New("player is shutting down")
)

// Controls carries the signals for one playback attempt. Stop is closed
// exactly once to force the backend to return; Pause toggles.
type Controls struct {
	Stop  chan struct{}
	Pause chan bool

	stopped bool
}

func newControls() *Controls {
	return &Controls{
		Stop:  make(chan struct{}),
		Pause: make(chan bool, 1),
	}
}

// stopOnce closes Stop at most once. Loop-only, so a plain flag is fine.
func (c *Controls) stopOnce() {
	if !c.stopped {
		c.stopped = true
		close(c.Stop)
	}
}

// setPaused replaces any pending toggle so pause/resume issued in quick
// succession never deadlocks on a full channel. Loop-only.
func (c *Controls) setPaused(v bool) {
	select {
	case <-c.Pause:
	default:
	}
	select {
	case c.Pause <- v:
	default:
	}
}

// VoiceDialer joins voice channels. Joining is a network call and is
// never performed on the work loop.
type VoiceDialer interface {
	Join(guildID, channelID string) (VoiceConn, error)
}

// VoiceConn is the owned connection to the audio transport. Exactly one
// exists per guild and only its GuildPlayer issues commands on it.
type VoiceConn interface {
	ChannelID() string
	Move(channelID string) error
	// Play streams the track until it ends or ctrl.Stop is closed.
	Play(track resolver.Track, ctrl *Controls) error
	Disconnect() error
}

// pendingTrack is a queue slot reserved at enqueue time. The slot keeps
// its FIFO position while the resolver call is still in flight; the
// track is filled in when resolution completes.
type pendingTrack struct {
	id          string
	requestedBy string
	channel     string // requester's voice channel
	track       *resolver.Track
}

// GuildPlayer holds one guild's queue, now-playing slot and voice
// handle. Methods must only be called from the Coordinator loop.
type GuildPlayer struct {
	guildID    string
	status     Status
	queue      []*pendingTrack
	nowPlaying *resolver.Track

	playToken string // identifies the current playback attempt
	controls  *Controls

	voice          VoiceConn
	connecting     bool
	pendingChannel string
}

func newGuildPlayer(guildID string) *GuildPlayer {
	return &GuildPlayer{
		guildID: guildID,
		status:  StatusIdle,
	}
}

// reserve appends a placeholder slot and returns its id. FIFO order is
// fixed here, at command submission time, not when resolution finishes.
func (g *GuildPlayer) reserve(requestedBy, channelID string) (id string, position int) {
	slot := &pendingTrack{
		id:          uuid.NewString(),
		requestedBy: requestedBy,
		channel:     channelID,
	}
	g.queue = append(g.queue, slot)
	return slot.id, len(g.queue)
}

// fill attaches a resolved track to its reserved slot. Returns false if
// the slot is gone (queue cleared by stop/leave in the meantime).
func (g *GuildPlayer) fill(id string, track resolver.Track) bool {
	for _, slot := range g.queue {
		if slot.id == id {
			track.RequestedBy = slot.requestedBy
			slot.track = &track
			return true
		}
	}
	return false
}

// abandon drops a reserved slot after a failed resolution.
func (g *GuildPlayer) abandon(id string) {
	for i, slot := range g.queue {
		if slot.id == id {
			g.queue = append(g.queue[:i], g.queue[i+1:]...)
			return
		}
	}
}

// resolvedQueue snapshots the resolved tracks in queue order. Slots
// still waiting on the resolver are not reported.
func (g *GuildPlayer) resolvedQueue() []resolver.Track {
	out := make([]resolver.Track, 0, len(g.queue))
	for _, slot := range g.queue {
		if slot.track != nil {
			out = append(out, *slot.track)
		}
	}
	return out
}

// headReady reports whether the queue head is resolved and playable.
func (g *GuildPlayer) headReady() bool {
	return len(g.queue) > 0 && g.queue[0].track != nil
}

// invalidate discards the current playback token so a late completion
// signal for the stopped track is recognized as stale.
func (g *GuildPlayer) invalidate() {
	g.playToken = ""
	g.nowPlaying = nil
	if g.controls != nil {
		g.controls.stopOnce()
		g.controls = nil
	}
}

// clearQueue drops every queued slot, including unresolved ones; their
// in-flight resolver calls will find no slot to fill and be discarded.
func (g *GuildPlayer) clearQueue() {
	g.queue = nil
}

// advance handles one completion signal. A stale token means the track
// was already stopped explicitly and the signal is a no-op.
func (g *GuildPlayer) advance(token string) bool {
	if token != g.playToken {
		log.Printf("[INFO] [%s] Stale completion signal ignored", g.guildID)
		return false
	}
	g.playToken = ""
	g.nowPlaying = nil
	g.controls = nil
	return true
}

// startNext pops the queue head and prepares playback. Returns the
// controls and track for the caller to hand to the audio backend; nil
// when there is nothing ready to play, in which case the guild went
// Idle.
func (g *GuildPlayer) startNext() (*Controls, resolver.Track, string, bool) {
	if !g.headReady() || g.voice == nil {
		if g.playToken == "" && !g.connecting {
			g.status = StatusIdle
		}
		return nil, resolver.Track{}, "", false
	}

	slot := g.queue[0]
	g.queue = g.queue[1:]

	g.nowPlaying = slot.track
	g.playToken = uuid.NewString()
	g.controls = newControls()
	g.status = StatusPlaying

	return g.controls, *slot.track, g.playToken, true
}
