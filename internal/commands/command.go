// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"io"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"proxen/internal/config"
	"proxen/internal/conversation"
	"proxen/internal/service"
	"proxen/internal/session"
)

// Needs declares which backends a command uses. The dispatcher only opens
// what a command asks for.
type Needs uint8

const (
	// NeedsStore opens the session store.
	NeedsStore Needs = 1 << iota

	// NeedsGateway builds the model gateway. It also connects the task
	// mirror when the mirror is enabled in config.yaml.
	NeedsGateway

	// NeedsTasks connects to Google Tasks and fails if that is not possible.
	NeedsTasks
)

// Has reports whether n includes every bit of x.
func (n Needs) Has(x Needs) bool {
	return n&x == x
}

// Env is everything a command runs with.
type Env struct {
	// Config is always provided (config dir, paths, settings).
	Config *config.Config

	// Store is set when the command needs NeedsStore.
	Store session.Store

	// Gateway is set when the command needs NeedsGateway.
	Gateway conversation.Gateway

	// Tasks is set for NeedsTasks, and for NeedsGateway when the mirror is
	// enabled and reachable.
	Tasks service.Service

	Logger *zap.Logger
	Now    func() time.Time

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Needs returns the backends the command uses.
	Needs() Needs

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command with the positional arguments left after
	// flag parsing, and returns the exit code.
	Run(ctx context.Context, env *Env, args []string) int
}

func (e *Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
