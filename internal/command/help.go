package command

import (
	"fmt"
	"sort"
	"strings"
)

func init() {
	Register(&HelpCommand{})
}

type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"commands"} }
func (c *HelpCommand) Description() string { return "List available commands" }
func (c *HelpCommand) RequireAdmin() bool  { return false }

func (c *HelpCommand) Run(ctx *Context) error {
	cmds := All()
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })

	var sb strings.Builder
	sb.WriteString("📖 **Commands**\n")
	for _, cmd := range cmds {
		fmt.Fprintf(&sb, "`%s`", cmd.Name())
		if len(cmd.Aliases()) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(cmd.Aliases(), ", "))
		}
		fmt.Fprintf(&sb, " - %s", cmd.Description())
		if cmd.RequireAdmin() {
			sb.WriteString(" *(admin)*")
		}
		sb.WriteString("\n")
	}
	return ctx.Reply(sb.String())
}
