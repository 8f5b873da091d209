package player

import (
	"context"
	"errors"
	"log"
	"runtime/debug"
	"sync"

	"xerobot/internal/music/resolver"
)

// ErrRequestDiscarded is reported when a resolver call completes after
// the guild's queue was already cleared by stop or leave.
var ErrRequestDiscarded = errors.New("track request discarded")

// EnqueueResult reports what happened to an accepted track. Position 0
// means the track went straight to the now-playing slot; otherwise it
// is the 1-based position in the pending queue.
type EnqueueResult struct {
	Track    resolver.Track
	Position int
}

// Coordinator routes playback commands to the right GuildPlayer and
// serializes every queue mutation on one work loop. Commands for the
// same guild are processed in submission order; slow work (resolution,
// voice joins, the audio stream itself) runs on separate goroutines and
// rejoins the loop as a new unit of work.
type Coordinator struct {
	resolver resolver.Resolver
	dialer   VoiceDialer
	onFault  func() // emergency persistence hook, may be nil

	work   chan func()
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	guilds map[string]*GuildPlayer // loop-only
}

// NewCoordinator creates a Coordinator. onFault is invoked after a
// recovered panic in any unit of work and may be nil.
func NewCoordinator(res resolver.Resolver, dialer VoiceDialer, onFault func()) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		resolver: res,
		dialer:   dialer,
		onFault:  onFault,
		work:     make(chan func(), 128),
		ctx:      ctx,
		cancel:   cancel,
		guilds:   make(map[string]*GuildPlayer),
	}
}

// Run consumes the work queue until ctx is done. Exactly one Run must
// be active; it is the single execution context all state lives on.
func (c *Coordinator) Run(ctx context.Context) {
	c.wg.Add(1)
	defer c.wg.Done()
	defer c.quiesce()

	for {
		select {
		case <-ctx.Done():
			c.cancel()
			return
		case <-c.ctx.Done():
			return
		case unit := <-c.work:
			c.safeRun(unit)
		}
	}
}

// Close stops the loop and waits for it to drain.
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
}

// safeRun executes one unit of work, catching panics so a single bad
// handler cannot take down other guilds. A recovered fault triggers the
// emergency persistence hook and the unit is abandoned.
func (c *Coordinator) safeRun(unit func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERR] Recovered panic in playback work unit: %v\n%s", r, debug.Stack())
			if c.onFault != nil {
				c.onFault()
			}
		}
	}()
	unit()
}

// quiesce releases every guild's voice handle on shutdown.
func (c *Coordinator) quiesce() {
	for _, g := range c.guilds {
		g.clearQueue()
		g.invalidate()
		g.status = StatusIdle
		if g.voice != nil {
			if err := g.voice.Disconnect(); err != nil {
				log.Printf("[WARN] [%s] Voice disconnect on shutdown: %v", g.guildID, err)
			}
			g.voice = nil
		}
	}
}

// submit queues a unit of work without waiting for it.
func (c *Coordinator) submit(unit func()) {
	select {
	case c.work <- unit:
	case <-c.ctx.Done():
	}
}

// call queues a unit of work and blocks the calling goroutine until the
// loop has executed it. Callers are event-handler goroutines, never the
// loop itself.
func (c *Coordinator) call(unit func()) error {
	done := make(chan struct{})
	select {
	case c.work <- func() { defer close(done); unit() }:
	case <-c.ctx.Done():
		return ErrShuttingDown
	}
	select {
	case <-done:
		return nil
	case <-c.ctx.Done():
		return ErrShuttingDown
	}
}

// guild returns the GuildPlayer, creating it on first use. Loop-only.
func (c *Coordinator) guild(guildID string) *GuildPlayer {
	g, ok := c.guilds[guildID]
	if !ok {
		g = newGuildPlayer(guildID)
		c.guilds[guildID] = g
	}
	return g
}

// Enqueue resolves query and appends the track to the guild's queue,
// starting playback if the guild is idle. A queue slot is reserved
// before the resolver call so that concurrent enqueues keep the order
// the commands were issued in, not the order resolutions finish.
func (c *Coordinator) Enqueue(ctx context.Context, guildID, voiceChannelID, requestedBy, query string) (EnqueueResult, error) {
	var slotID string
	if err := c.call(func() {
		g := c.guild(guildID)
		slotID, _ = g.reserve(requestedBy, voiceChannelID)
	}); err != nil {
		return EnqueueResult{}, err
	}

	track, resolveErr := c.resolver.Resolve(ctx, query)

	var res EnqueueResult
	var cmdErr error
	err := c.call(func() {
		g := c.guild(guildID)
		if resolveErr != nil {
			g.abandon(slotID)
			// Dropping the head slot may expose an already-resolved
			// track behind it; re-arm in that track's requester
			// channel, not the failed one's.
			if g.headReady() {
				c.ensurePlayback(g, g.queue[0].channel)
			}
			cmdErr = resolveErr
			return
		}
		if !g.fill(slotID, track) {
			cmdErr = ErrRequestDiscarded
			return
		}
		c.ensurePlayback(g, voiceChannelID)

		res = EnqueueResult{Track: track}
		for i, slot := range g.queue {
			if slot.id == slotID {
				res.Position = i + 1
				break
			}
		}
	})
	if err != nil {
		return EnqueueResult{}, err
	}
	return res, cmdErr
}

// Skip forces the current track's audio to stop; the completion signal
// this triggers advances the queue exactly once.
func (c *Coordinator) Skip(guildID string) error {
	var cmdErr error
	if err := c.call(func() {
		g := c.guild(guildID)
		if g.playToken == "" {
			cmdErr = ErrNothingPlaying
			return
		}
		g.controls.stopOnce()
	}); err != nil {
		return err
	}
	return cmdErr
}

// Pause suspends playback. Valid only while Playing.
func (c *Coordinator) Pause(guildID string) error {
	var cmdErr error
	if err := c.call(func() {
		g := c.guild(guildID)
		switch g.status {
		case StatusPaused:
			cmdErr = ErrAlreadyPaused
		case StatusPlaying:
			g.status = StatusPaused
			g.controls.setPaused(true)
		default:
			cmdErr = ErrNothingPlaying
		}
	}); err != nil {
		return err
	}
	return cmdErr
}

// Resume continues playback. Valid only while Paused.
func (c *Coordinator) Resume(guildID string) error {
	var cmdErr error
	if err := c.call(func() {
		g := c.guild(guildID)
		if g.status != StatusPaused {
			cmdErr = ErrNotPaused
			return
		}
		g.status = StatusPlaying
		g.controls.setPaused(false)
	}); err != nil {
		return err
	}
	return cmdErr
}

// Stop clears the queue, stops the current track and goes Idle. The
// voice handle stays connected. The playback token is invalidated so
// the in-flight completion signal for the stopped track is a no-op.
func (c *Coordinator) Stop(guildID string) error {
	var cmdErr error
	if err := c.call(func() {
		g := c.guild(guildID)
		if g.playToken == "" && len(g.queue) == 0 {
			cmdErr = ErrNothingPlaying
			return
		}
		g.clearQueue()
		g.invalidate()
		g.status = StatusIdle
	}); err != nil {
		return err
	}
	return cmdErr
}

// Leave is Stop plus releasing the voice handle.
func (c *Coordinator) Leave(guildID string) error {
	return c.call(func() {
		g := c.guild(guildID)
		g.clearQueue()
		g.invalidate()
		g.status = StatusIdle
		g.connecting = false
		g.pendingChannel = ""
		if g.voice != nil {
			if err := g.voice.Disconnect(); err != nil {
				log.Printf("[WARN] [%s] Voice disconnect: %v", guildID, err)
			}
			g.voice = nil
		}
	})
}

// Queue returns a read-only snapshot of the resolved pending tracks.
func (c *Coordinator) Queue(guildID string) ([]resolver.Track, error) {
	var out []resolver.Track
	err := c.call(func() {
		out = c.guild(guildID).resolvedQueue()
	})
	return out, err
}

// NowPlaying returns the current track, if any.
func (c *Coordinator) NowPlaying(guildID string) (resolver.Track, bool, error) {
	var track resolver.Track
	var ok bool
	err := c.call(func() {
		g := c.guild(guildID)
		if g.nowPlaying != nil {
			track = *g.nowPlaying
			ok = true
		}
	})
	return track, ok, err
}

// StatusOf returns the guild's playback status.
func (c *Coordinator) StatusOf(guildID string) (Status, error) {
	var st Status
	err := c.call(func() {
		st = c.guild(guildID).status
	})
	return st, err
}

// ensurePlayback makes sure the guild has a voice connection in the
// requester's channel and starts the queue head if nothing is playing.
// Loop-only.
func (c *Coordinator) ensurePlayback(g *GuildPlayer, channelID string) {
	if g.voice != nil {
		if channelID != "" && g.voice.ChannelID() != channelID {
			if err := g.voice.Move(channelID); err != nil {
				log.Printf("[WARN] [%s] Failed to move voice channel: %v", g.guildID, err)
			}
		}
		c.maybeStart(g)
		return
	}

	if g.connecting {
		g.pendingChannel = channelID
		return
	}

	g.connecting = true
	g.pendingChannel = channelID
	g.status = StatusConnecting

	guildID := g.guildID
	go func() {
		conn, err := c.dialer.Join(guildID, channelID)
		c.submit(func() { c.attachVoice(c.guild(guildID), conn, err) })
	}()
}

// attachVoice rejoins the loop after an off-loop voice connect.
func (c *Coordinator) attachVoice(g *GuildPlayer, conn VoiceConn, err error) {
	if !g.connecting {
		// The guild left while the join was in flight.
		if err == nil && conn != nil {
			_ = conn.Disconnect()
		}
		return
	}
	g.connecting = false

	if err != nil {
		log.Printf("[ERR] [%s] Failed to join voice channel: %v", g.guildID, err)
		if g.playToken == "" {
			g.status = StatusIdle
		}
		return
	}

	g.voice = conn
	if g.pendingChannel != "" && conn.ChannelID() != g.pendingChannel {
		if merr := conn.Move(g.pendingChannel); merr != nil {
			log.Printf("[WARN] [%s] Failed to move voice channel: %v", g.guildID, merr)
		}
	}
	c.maybeStart(g)
}

// maybeStart begins playback of the queue head when nothing is playing.
// Each started track registers exactly one completion signal, tagged
// with this attempt's token. Loop-only.
func (c *Coordinator) maybeStart(g *GuildPlayer) {
	if g.playToken != "" {
		return // already playing or paused
	}

	ctrl, track, token, ok := g.startNext()
	if !ok {
		return
	}

	voice := g.voice
	guildID := g.guildID
	go func() {
		if err := voice.Play(track, ctrl); err != nil {
			log.Printf("[ERR] [%s] Playback of %q ended with error: %v", guildID, track.Title, err)
		}
		c.submit(func() {
			gp := c.guild(guildID)
			if gp.advance(token) {
				c.maybeStart(gp)
			}
		})
	}()
}
