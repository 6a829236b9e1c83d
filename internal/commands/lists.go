package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"proxen/internal/exitcode"
	"proxen/internal/output"
)

func init() {
	Register(&ListsCmd{})
}

// ListsCmd implements the lists command. It shows which Google Tasks list
// names can be used as the mirror target.
type ListsCmd struct{}

func (c *ListsCmd) Name() string      { return "lists" }
func (c *ListsCmd) Aliases() []string { return nil }
func (c *ListsCmd) Synopsis() string  { return "Print Google Tasks lists (mirror targets)" }
func (c *ListsCmd) Usage() string     { return "proxen lists [common flags]" }
func (c *ListsCmd) Needs() Needs      { return NeedsTasks }

func (c *ListsCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ListsCmd) Run(ctx context.Context, env *Env, args []string) int {
	lists, err := env.Tasks.ListLists(ctx)
	if err != nil {
		fmt.Fprintf(env.Err, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	for _, list := range lists {
		output.FormatListName(env.Out, list)
	}
	return exitcode.Success
}
