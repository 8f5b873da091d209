package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"xerobot/internal/music/player"
)

func init() {
	Register(&PlayCommand{})
	Register(&SkipCommand{})
	Register(&PauseCommand{})
	Register(&ResumeCommand{})
	Register(&StopCommand{})
	Register(&LeaveCommand{})
	Register(&QueueCommand{})
	Register(&NowPlayingCommand{})
}

type PlayCommand struct{}

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Aliases() []string   { return []string{"p"} }
func (c *PlayCommand) Description() string { return "Queue a stream link for playback" }
func (c *PlayCommand) RequireAdmin() bool  { return false }

func (c *PlayCommand) Run(ctx *Context) error {
	if len(ctx.Args) == 0 {
		return ctx.Reply("🎵 Usage: play <stream link>")
	}
	query := strings.Join(ctx.Args, " ")

	channelID, err := ctx.Deps.Voice.FindUserVoiceState(ctx.GuildID(), ctx.UserID())
	if err != nil {
		return ctx.Reply("🎵 Join a voice channel first.")
	}

	res, err := ctx.Deps.Coordinator.Enqueue(ctx.Ctx, ctx.GuildID(), channelID, ctx.UserID(), query)
	if err != nil {
		if errors.Is(err, player.ErrRequestDiscarded) {
			return ctx.Reply("🎵 Request discarded, playback was stopped in the meantime.")
		}
		return ctx.Reply(fmt.Sprintf("❌ Failed to resolve track: %v", err))
	}

	if res.Position == 0 {
		return ctx.Reply(fmt.Sprintf("▶️ Now playing: **%s**", res.Track.Title))
	}
	return ctx.Reply(fmt.Sprintf("🎶 Queued **%s** at position %d", res.Track.Title, res.Position))
}

type SkipCommand struct{}

func (c *SkipCommand) Name() string        { return "skip" }
func (c *SkipCommand) Aliases() []string   { return []string{"next"} }
func (c *SkipCommand) Description() string { return "Skip to the next track" }
func (c *SkipCommand) RequireAdmin() bool  { return false }

func (c *SkipCommand) Run(ctx *Context) error {
	if err := ctx.Deps.Coordinator.Skip(ctx.GuildID()); err != nil {
		if errors.Is(err, player.ErrNothingPlaying) {
			return ctx.Reply("🎵 Nothing is playing.")
		}
		return err
	}
	return ctx.Reply("⏭ Skipped.")
}

type PauseCommand struct{}

func (c *PauseCommand) Name() string        { return "pause" }
func (c *PauseCommand) Aliases() []string   { return nil }
func (c *PauseCommand) Description() string { return "Pause playback" }
func (c *PauseCommand) RequireAdmin() bool  { return false }

func (c *PauseCommand) Run(ctx *Context) error {
	switch err := ctx.Deps.Coordinator.Pause(ctx.GuildID()); {
	case errors.Is(err, player.ErrAlreadyPaused):
		return ctx.Reply("⏸ Already paused.")
	case errors.Is(err, player.ErrNothingPlaying):
		return ctx.Reply("🎵 Nothing is playing.")
	case err != nil:
		return err
	}
	return ctx.Reply("⏸ Paused.")
}

type ResumeCommand struct{}

func (c *ResumeCommand) Name() string        { return "resume" }
func (c *ResumeCommand) Aliases() []string   { return nil }
func (c *ResumeCommand) Description() string { return "Resume paused playback" }
func (c *ResumeCommand) RequireAdmin() bool  { return false }

func (c *ResumeCommand) Run(ctx *Context) error {
	if err := ctx.Deps.Coordinator.Resume(ctx.GuildID()); err != nil {
		if errors.Is(err, player.ErrNotPaused) {
			return ctx.Reply("🎵 Playback is not paused.")
		}
		return err
	}
	return ctx.Reply("▶️ Resumed.")
}

type StopCommand struct{}

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Aliases() []string   { return nil }
func (c *StopCommand) Description() string { return "Stop playback and clear the queue" }
func (c *StopCommand) RequireAdmin() bool  { return false }

func (c *StopCommand) Run(ctx *Context) error {
	if err := ctx.Deps.Coordinator.Stop(ctx.GuildID()); err != nil {
		if errors.Is(err, player.ErrNothingPlaying) {
			return ctx.Reply("🎵 Nothing is playing.")
		}
		return err
	}
	return ctx.Reply("⏹ Playback stopped, queue cleared.")
}

type LeaveCommand struct{}

func (c *LeaveCommand) Name() string        { return "leave" }
func (c *LeaveCommand) Aliases() []string   { return []string{"disconnect"} }
func (c *LeaveCommand) Description() string { return "Leave the voice channel" }
func (c *LeaveCommand) RequireAdmin() bool  { return false }

func (c *LeaveCommand) Run(ctx *Context) error {
	if err := ctx.Deps.Coordinator.Leave(ctx.GuildID()); err != nil {
		return err
	}
	return ctx.Reply("👋 Left the voice channel.")
}

type QueueCommand struct{}

func (c *QueueCommand) Name() string        { return "queue" }
func (c *QueueCommand) Aliases() []string   { return []string{"q"} }
func (c *QueueCommand) Description() string { return "Show the pending queue" }
func (c *QueueCommand) RequireAdmin() bool  { return false }

func (c *QueueCommand) Run(ctx *Context) error {
	tracks, err := ctx.Deps.Coordinator.Queue(ctx.GuildID())
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return ctx.Reply("🎵 The queue is empty.")
	}

	var sb strings.Builder
	sb.WriteString("🎶 **Queue**\n")
	for i, t := range tracks {
		fmt.Fprintf(&sb, "%d. %s (requested by <@%s>)\n", i+1, t.Title, t.RequestedBy)
	}
	return ctx.Reply(sb.String())
}

type NowPlayingCommand struct{}

func (c *NowPlayingCommand) Name() string        { return "nowplaying" }
func (c *NowPlayingCommand) Aliases() []string   { return []string{"np"} }
func (c *NowPlayingCommand) Description() string { return "Show the current track" }
func (c *NowPlayingCommand) RequireAdmin() bool  { return false }

func (c *NowPlayingCommand) Run(ctx *Context) error {
	track, ok, err := ctx.Deps.Coordinator.NowPlaying(ctx.GuildID())
	if err != nil {
		return err
	}
	if !ok {
		return ctx.Reply("🎵 Nothing is playing.")
	}
	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "▶️ Now playing",
		Description: fmt.Sprintf("**%s**\nrequested by <@%s>", track.Title, track.RequestedBy),
		Color:       0x9f00d4,
	})
}
