package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"proxen/internal/exitcode"
	"proxen/internal/output"
)

func init() {
	Register(&HistoryCmd{})
}

// HistoryCmd implements the history command.
type HistoryCmd struct {
	limit int
}

func (c *HistoryCmd) Name() string      { return "history" }
func (c *HistoryCmd) Aliases() []string { return nil }
func (c *HistoryCmd) Synopsis() string  { return "Print the conversation transcript" }
func (c *HistoryCmd) Usage() string     { return "proxen history [common flags] [--limit <n>]" }
func (c *HistoryCmd) Needs() Needs      { return NeedsStore }

func (c *HistoryCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&c.limit, "limit", "n", 0, "print only the last n entries")
}

// SetLimit sets the --limit flag (for testing).
func (c *HistoryCmd) SetLimit(n int) {
	c.limit = n
}

func (c *HistoryCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(env.Err, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.limit < 0 {
		fmt.Fprintln(env.Err, "error: --limit must be >= 0")
		return exitcode.UserError
	}

	snap, err := env.Store.Load(ctx)
	if err != nil {
		fmt.Fprintf(env.Err, "error: failed to load session: %v\n", err)
		return exitcode.BackendError
	}

	entries := snap.State.Transcript
	if c.limit > 0 {
		entries = snap.State.Recent(c.limit)
	}
	if len(entries) == 0 && !env.Config.Quiet {
		fmt.Fprintln(env.Out, "no messages yet")
	}

	loc := env.now().Location()
	for _, e := range entries {
		output.FormatEntry(env.Out, e, loc)
	}
	return exitcode.Success
}
