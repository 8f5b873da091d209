package command

import (
	"fmt"
	"time"
)

func init() {
	Register(&PingCommand{})
	Register(&RepCommand{})
	Register(&SaveCommand{})
	Register(&DecayCommand{})
}

type PingCommand struct{}

func (c *PingCommand) Name() string        { return "ping" }
func (c *PingCommand) Aliases() []string   { return nil }
func (c *PingCommand) Description() string { return "Check that the bot is awake" }
func (c *PingCommand) RequireAdmin() bool  { return false }

func (c *PingCommand) Run(ctx *Context) error {
	return ctx.ReplyEphemeral("I'm still awake and watching servers.", 3*time.Second)
}

type RepCommand struct{}

func (c *RepCommand) Name() string        { return "rep" }
func (c *RepCommand) Aliases() []string   { return []string{"reputation"} }
func (c *RepCommand) Description() string { return "Show a user's reputation score" }
func (c *RepCommand) RequireAdmin() bool  { return false }

func (c *RepCommand) Run(ctx *Context) error {
	userID := ctx.UserID()
	if len(ctx.Message.Mentions) > 0 {
		userID = ctx.Message.Mentions[0].ID
	}
	score := ctx.Deps.Ledger.Get(userID)
	return ctx.Reply(fmt.Sprintf("⭐ <@%s> has **%d** reputation.", userID, score))
}

type SaveCommand struct{}

func (c *SaveCommand) Name() string        { return "save" }
func (c *SaveCommand) Aliases() []string   { return nil }
func (c *SaveCommand) Description() string { return "Force an immediate ledger save" }
func (c *SaveCommand) RequireAdmin() bool  { return true }

func (c *SaveCommand) Run(ctx *Context) error {
	if err := ctx.Deps.Ledger.Flush(); err != nil {
		return ctx.Reply(fmt.Sprintf("❌ Save failed: %v", err))
	}
	return ctx.Reply("💾 Ledger saved.")
}

type DecayCommand struct{}

func (c *DecayCommand) Name() string        { return "decay" }
func (c *DecayCommand) Aliases() []string   { return nil }
func (c *DecayCommand) Description() string { return "Run a reputation decay sweep now" }
func (c *DecayCommand) RequireAdmin() bool  { return true }

func (c *DecayCommand) Run(ctx *Context) error {
	if ctx.Deps.Ledger.DecayPass(time.Now()) {
		return ctx.Reply("📉 Decay sweep applied.")
	}
	return ctx.Reply("📉 Decay sweep ran, nothing to change.")
}
