// Package cli maps the command line onto the command registry.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"proxen/internal/commands"
	"proxen/internal/config"
	"proxen/internal/exitcode"
	"proxen/internal/logging"
	"proxen/internal/service"
)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	backends Backends
	in       io.Reader
	now      func() time.Time
}

// NewDispatcher creates a new dispatcher with the given registry and backends.
func NewDispatcher(registry *commands.Registry, backends Backends) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		backends: backends,
		in:       os.Stdin,
		now:      time.Now,
	}
}

// SetInput sets where interactive commands read from.
func (d *Dispatcher) SetInput(r io.Reader) {
	d.in = r
}

// SetClock sets the clock passed to commands.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	quiet     bool
	debug     bool
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// A leading flag belongs to the default command; any other first token
	// must name a command.
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if _, ok := d.registry.Find(args[0]); !ok {
			fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
			return exitcode.UserError
		}
	}

	code := exitcode.Success
	root := d.rootCommand(out, errOut, &code)
	root.SetArgs(append([]string{}, args...))

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	return code
}

// rootCommand builds the cobra tree for one Run. Each registered command
// becomes a subcommand; the root runs the default command.
func (d *Dispatcher) rootCommand(out, errOut io.Writer, code *int) *cobra.Command {
	var flags commonFlags

	root := &cobra.Command{
		Use:           config.AppName,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config", "", "override config directory")
	pf.BoolVar(&flags.quiet, "quiet", false, "suppress informational output")
	pf.BoolVar(&flags.debug, "debug", false, "print debug logs to stderr")

	run := func(cmd commands.Command) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			*code = d.dispatchCommand(c.Context(), cmd, flags, args, out, errOut)
			return nil
		}
	}

	if def, ok := d.registry.Default(); ok {
		root.RunE = run(def)
	}

	for _, cmd := range d.registry.All() {
		sub := &cobra.Command{
			Use:     cmd.Name(),
			Aliases: cmd.Aliases(),
			Short:   cmd.Synopsis(),
			Args:    cobra.ArbitraryArgs,
			RunE:    run(cmd),
		}
		cmd.RegisterFlags(sub.Flags())
		if cmd.Name() == "help" {
			root.SetHelpCommand(sub)
			continue
		}
		root.AddCommand(sub)
	}

	root.SetHelpFunc(func(c *cobra.Command, _ []string) {
		if cmd, ok := d.registry.Find(c.Name()); ok && c != root {
			fmt.Fprintf(out, "Usage:\n  %s\n", cmd.Usage())
			return
		}
		if help, ok := d.registry.Find("help"); ok {
			*code = d.dispatchCommand(c.Context(), help, flags, nil, out, errOut)
		}
	})
	return root
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, flags commonFlags, args []string, out, errOut io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.New(flags.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.AuthError
	}
	cfg.Quiet = flags.quiet
	cfg.Debug = flags.debug

	logger := logging.New(errOut, cfg.Debug)
	defer func() { _ = logger.Sync() }()

	env := &commands.Env{
		Config: cfg,
		Logger: logger,
		Now:    d.now,
		In:     d.in,
		Out:    out,
		Err:    errOut,
	}

	needs := cmd.Needs()
	if needs.Has(commands.NeedsStore) {
		store, err := d.backends.Store(cfg, logger)
		if err != nil {
			fmt.Fprintf(errOut, "error: failed to open session: %v\n", err)
			return exitcode.BackendError
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close session store", zap.Error(err))
			}
		}()
		env.Store = store
	}

	if needs.Has(commands.NeedsGateway) {
		env.Gateway = d.backends.Gateway(cfg, logger)
	}

	switch {
	case needs.Has(commands.NeedsTasks):
		svc, code := d.connectTasks(ctx, cfg, errOut)
		if svc == nil {
			return code
		}
		env.Tasks = svc
	case needs.Has(commands.NeedsGateway) && cfg.Settings.Mirror.Enabled:
		// The mirror is optional; a turn still runs without it.
		if d.backends.Tasks == nil {
			break
		}
		svc, err := d.backends.Tasks(ctx, cfg)
		if err != nil {
			fmt.Fprintf(errOut, "warning: mirror disabled: %v\n", err)
			break
		}
		env.Tasks = svc
	}

	logger.Debug("dispatch", zap.String("command", cmd.Name()), zap.Strings("args", args))
	return cmd.Run(ctx, env, args)
}

// connectTasks builds the Google Tasks service. It prints the error and
// returns a nil service when that fails.
func (d *Dispatcher) connectTasks(ctx context.Context, cfg *config.Config, errOut io.Writer) (service.Service, int) {
	if d.backends.Tasks == nil {
		// No factory: report missing auth files in user-friendly terms.
		if !cfg.HasOAuthClient() {
			fmt.Fprintf(errOut, "error: %s not found in %s\n", config.OAuthClientFile, cfg.Dir)
			return nil, exitcode.AuthError
		}
		if !cfg.HasToken() {
			fmt.Fprintf(errOut, "error: not logged in (run: %s login)\n", config.AppName)
			return nil, exitcode.AuthError
		}
		fmt.Fprintln(errOut, "error: google tasks backend not available")
		return nil, exitcode.BackendError
	}

	svc, err := d.backends.Tasks(ctx, cfg)
	if err != nil {
		if strings.Contains(err.Error(), "token") || strings.Contains(err.Error(), "auth") {
			fmt.Fprintf(errOut, "error: auth error: %s\n", err)
			return nil, exitcode.AuthError
		}
		fmt.Fprintf(errOut, "error: backend error: %s\n", err)
		return nil, exitcode.BackendError
	}
	return svc, exitcode.Success
}
