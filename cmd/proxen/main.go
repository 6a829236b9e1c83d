// Package main is the entry point for the proxen CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"proxen/internal/cli"
	"proxen/internal/commands"
)

func main() {
	// Cancel on interrupt so an in-flight turn stops at its next wait.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, cli.DefaultBackends())
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	cancel()
	os.Exit(code)
}
