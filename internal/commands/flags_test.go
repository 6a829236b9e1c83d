package commands_test

import (
	"io"

	"github.com/spf13/pflag"

	"proxen/internal/commands"
)

// flagSet returns a flag set with cmd's flags registered.
func flagSet(cmd commands.Command) *pflag.FlagSet {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.RegisterFlags(fs)
	return fs
}
