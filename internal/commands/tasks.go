package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"proxen/internal/exitcode"
)

func init() {
	Register(&TasksCmd{})
}

// TasksCmd implements the tasks command.
type TasksCmd struct {
	all bool
}

func (c *TasksCmd) Name() string      { return "tasks" }
func (c *TasksCmd) Aliases() []string { return []string{"ls"} }
func (c *TasksCmd) Synopsis() string  { return "Print open tasks" }
func (c *TasksCmd) Usage() string     { return "proxen tasks [common flags] [--all]" }
func (c *TasksCmd) Needs() Needs      { return NeedsStore }

func (c *TasksCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.all, "all", "a", false, "include completed tasks")
}

// SetAll sets the --all flag (for testing).
func (c *TasksCmd) SetAll(all bool) {
	c.all = all
}

func (c *TasksCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(env.Err, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	snap, err := env.Store.Load(ctx)
	if err != nil {
		fmt.Fprintf(env.Err, "error: failed to load session: %v\n", err)
		return exitcode.BackendError
	}

	printTasks(env, snap.State, c.all)
	return exitcode.Success
}
