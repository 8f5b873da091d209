// Package command is the thin dispatcher glue between chat messages and
// the core: it parses prefix commands, calls into the ledger and the
// playback coordinator, and renders one reply per invocation. No state
// lives here.
package command

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"xerobot/internal/music/player"
	"xerobot/internal/reputation"
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	RequireAdmin() bool
	Run(ctx *Context) error
}

// VoiceStateFinder locates the voice channel a user currently sits in.
type VoiceStateFinder interface {
	FindUserVoiceState(guildID, userID string) (channelID string, err error)
}

// Deps are the collaborators commands operate on.
type Deps struct {
	Ledger      *reputation.Ledger
	Coordinator *player.Coordinator
	Voice       VoiceStateFinder
}

type Context struct {
	Ctx     context.Context
	Session *discordgo.Session
	Message *discordgo.MessageCreate
	Args    []string
	Deps    *Deps
}

// GuildID returns the guild the invoking message came from.
func (c *Context) GuildID() string { return c.Message.GuildID }

// UserID returns the invoking user.
func (c *Context) UserID() string { return c.Message.Author.ID }

// Reply sends a plain text reply to the invoking channel.
func (c *Context) Reply(text string) error {
	_, err := c.Session.ChannelMessageSend(c.Message.ChannelID, text)
	return err
}

// ReplyEmbed sends an embed reply to the invoking channel.
func (c *Context) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := c.Session.ChannelMessageSendEmbed(c.Message.ChannelID, embed)
	return err
}

// ReplyEphemeral sends a reply that self-deletes after the given delay,
// and deletes the invoking message right away.
func (c *Context) ReplyEphemeral(text string, after time.Duration) error {
	_ = c.Session.ChannelMessageDelete(c.Message.ChannelID, c.Message.ID)

	msg, err := c.Session.ChannelMessageSend(c.Message.ChannelID, text)
	if err != nil {
		return err
	}
	time.AfterFunc(after, func() {
		_ = c.Session.ChannelMessageDelete(msg.ChannelID, msg.ID)
	})
	return nil
}

// IsAdmin reports whether the invoking member has administrator
// permission in the guild.
func (c *Context) IsAdmin() bool {
	perms, err := c.Session.UserChannelPermissions(c.UserID(), c.Message.ChannelID)
	if err != nil {
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}
