package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"proxen/internal/exitcode"
)

func init() {
	Register(&SayCmd{})
}

// SayCmd implements the say command.
type SayCmd struct{}

func (c *SayCmd) Name() string      { return "say" }
func (c *SayCmd) Aliases() []string { return nil }
func (c *SayCmd) Synopsis() string  { return "Send one message and print the reply" }
func (c *SayCmd) Usage() string     { return "proxen say [common flags] <message...>" }
func (c *SayCmd) Needs() Needs      { return NeedsStore | NeedsGateway }

func (c *SayCmd) RegisterFlags(fs *pflag.FlagSet) {
	// Everything after the first word is message text.
	fs.SetInterspersed(false)
}

func (c *SayCmd) Run(ctx context.Context, env *Env, args []string) int {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		fmt.Fprintln(env.Err, "error: message required")
		return exitcode.UserError
	}

	t, code := openTurns(ctx, env)
	if t == nil {
		return code
	}

	out := t.submit(ctx, message)
	return exitcode.FromError(out.Err)
}
