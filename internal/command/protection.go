package command

import "time"

func init() {
	Register(&XCommand{})
}

// XCommand answers with the protection banner. Like ping, the invoking
// message is removed and the reply cleans itself up.
type XCommand struct{}

func (c *XCommand) Name() string        { return "x" }
func (c *XCommand) Aliases() []string   { return nil }
func (c *XCommand) Description() string { return "Show the protection status" }
func (c *XCommand) RequireAdmin() bool  { return false }

func (c *XCommand) Run(ctx *Context) error {
	return ctx.ReplyEphemeral(
		"🛡️ **XERO Protection System**\n"+
			"DDoS Protection Activated ✅\n"+
			"All servers are safe and monitored.",
		3*time.Second,
	)
}
