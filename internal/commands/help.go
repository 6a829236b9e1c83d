package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"proxen/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "proxen help" }
func (c *HelpCmd) Needs() Needs      { return 0 }

func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string) int {
	fmt.Fprint(env.Out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  proxen                                       Chat (one message per line)
  proxen chat [common flags]
  proxen say [common flags] <message...>       Send one message
  proxen setup [common flags] [--key <api-key>] --name <name>
  proxen tasks [common flags] [--all]
  proxen history [common flags] [--limit <n>]
  proxen reset [common flags] --yes
  proxen login [common flags]                  Google Tasks mirror
  proxen logout [common flags]
  proxen lists [common flags]
  proxen help
  proxen version

Chat commands:
  /tasks           Print open tasks
  /quit            Leave the chat

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  PROXEN_API_KEY   API key used instead of the stored one
`
