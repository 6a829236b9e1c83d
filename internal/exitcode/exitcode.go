// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"proxen/internal/gateway"
	"proxen/internal/session"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, not found, ambiguous).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// FromError picks the exit code for a failed operation. A rejected API key
// and a missing setup are auth/config errors; any other model or storage
// failure is a backend error.
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, session.ErrNotConfigured):
		return AuthError
	case gateway.KindOf(err) == gateway.KindAuth:
		return AuthError
	default:
		return BackendError
	}
}
