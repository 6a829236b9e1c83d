package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"proxen/internal/config"
	"proxen/internal/exitcode"
)

func init() {
	Register(&SetupCmd{})
}

// SetupCmd implements the setup command.
type SetupCmd struct {
	key  string
	name string
}

func (c *SetupCmd) Name() string      { return "setup" }
func (c *SetupCmd) Aliases() []string { return nil }
func (c *SetupCmd) Synopsis() string  { return "Store the API key and your name" }
func (c *SetupCmd) Usage() string {
	return "proxen setup [common flags] [--key <api-key>] --name <name>"
}
func (c *SetupCmd) Needs() Needs { return NeedsStore }

func (c *SetupCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.key, "key", "", "API key (default: $"+config.EnvAPIKey+")")
	fs.StringVar(&c.name, "name", "", "your name")
}

func (c *SetupCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(env.Err, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	snap, err := env.Store.Load(ctx)
	if err != nil {
		fmt.Fprintf(env.Err, "error: failed to load session: %v\n", err)
		return exitcode.BackendError
	}

	key := strings.TrimSpace(c.key)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(config.EnvAPIKey))
	}
	if key == "" {
		key = snap.Profile.APIKey
	}
	name := strings.TrimSpace(c.name)
	if name == "" {
		name = snap.Profile.UserName
	}

	if len(key) < config.MinAPIKeyLength {
		fmt.Fprintf(env.Err, "error: API key must be at least %d characters (use --key or $%s)\n", config.MinAPIKeyLength, config.EnvAPIKey)
		return exitcode.UserError
	}
	if name == "" {
		fmt.Fprintln(env.Err, "error: name is required (use --name)")
		return exitcode.UserError
	}

	snap.Profile.APIKey = key
	snap.Profile.UserName = name
	if err := env.Store.Save(ctx, snap); err != nil {
		fmt.Fprintf(env.Err, "error: failed to save session: %v\n", err)
		return exitcode.BackendError
	}

	if !env.Config.Quiet {
		fmt.Fprintln(env.Out, "ok")
	}
	return exitcode.Success
}
