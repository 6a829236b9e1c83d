package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"proxen/internal/exitcode"
	"proxen/internal/gateway"
	"proxen/internal/output"
)

const (
	chatPrompt = "> "

	// resumeEntries is how many transcript entries chat replays on resume.
	resumeEntries = 6
)

func init() {
	Register(&ChatCmd{})
}

// ChatCmd implements the interactive chat command.
type ChatCmd struct{}

func (c *ChatCmd) Name() string      { return "chat" }
func (c *ChatCmd) Aliases() []string { return nil }
func (c *ChatCmd) Synopsis() string  { return "Talk to proxen (one turn per line)" }
func (c *ChatCmd) Usage() string     { return "proxen [chat] [common flags]" }
func (c *ChatCmd) Needs() Needs      { return NeedsStore | NeedsGateway }

func (c *ChatCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ChatCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(env.Err, "error: unexpected argument: %s (use: proxen say <message>)\n", args[0])
		return exitcode.UserError
	}

	t, code := openTurns(ctx, env)
	if t == nil {
		return code
	}

	if t.started() {
		for _, e := range t.state.Recent(resumeEntries) {
			output.FormatEntry(env.Out, e, env.now().Location())
		}
	} else {
		out := t.bootstrap(ctx)
		if gateway.KindOf(out.Err) == gateway.KindAuth {
			return exitcode.AuthError
		}
	}

	scanner := bufio.NewScanner(env.In)
	for {
		if ctx.Err() != nil {
			return exitcode.Success
		}
		if !env.Config.Quiet {
			fmt.Fprint(env.Out, chatPrompt)
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return exitcode.Success
		case "/tasks":
			printTasks(env, t.state, false)
			continue
		}

		out := t.submit(ctx, line)
		// A rejected key will be rejected again on every line.
		if gateway.KindOf(out.Err) == gateway.KindAuth {
			return exitcode.AuthError
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(env.Err, "error: failed to read input: %v\n", err)
		return exitcode.UserError
	}
	if !env.Config.Quiet {
		fmt.Fprintln(env.Out)
	}
	return exitcode.Success
}
