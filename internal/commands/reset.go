package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"proxen/internal/exitcode"
)

func init() {
	Register(&ResetCmd{})
}

// ResetCmd implements the reset command.
type ResetCmd struct {
	yes bool
}

func (c *ResetCmd) Name() string      { return "reset" }
func (c *ResetCmd) Aliases() []string { return nil }
func (c *ResetCmd) Synopsis() string  { return "Delete the API key, tasks and transcript" }
func (c *ResetCmd) Usage() string     { return "proxen reset [common flags] --yes" }
func (c *ResetCmd) Needs() Needs      { return NeedsStore }

func (c *ResetCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.yes, "yes", "y", false, "confirm the reset")
}

// SetYes sets the --yes flag (for testing).
func (c *ResetCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *ResetCmd) Run(ctx context.Context, env *Env, args []string) int {
	if !c.yes {
		fmt.Fprintln(env.Err, "error: reset deletes the API key, all tasks and the transcript; rerun with --yes")
		return exitcode.UserError
	}

	if err := env.Store.Reset(ctx); err != nil {
		fmt.Fprintf(env.Err, "error: failed to reset session: %v\n", err)
		return exitcode.BackendError
	}

	if !env.Config.Quiet {
		fmt.Fprintln(env.Out, "ok")
	}
	return exitcode.Success
}
