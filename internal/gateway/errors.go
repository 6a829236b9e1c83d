package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure.
type Kind string

const (
	KindAuth             Kind = "auth"              // 401/403
	KindBadRequest       Kind = "bad_request"       // 400
	KindRateLimit        Kind = "rate_limit"        // 429
	KindService          Kind = "service"           // 5xx
	KindUnexpectedStatus Kind = "unexpected_status" // any other non-2xx
	KindContentBlocked   Kind = "content_blocked"
	KindEmptyResponse    Kind = "empty_response"
	KindEmptyText        Kind = "empty_text"
	KindParseFailure     Kind = "parse_failure"
	KindNetwork          Kind = "network"
)

// fatalKinds is the complete set of kinds that are never retried.
var fatalKinds = map[Kind]bool{
	KindAuth:       true,
	KindBadRequest: true,
}

// Fatal reports whether a failure of this kind ends the turn immediately.
func (k Kind) Fatal() bool {
	return fatalKinds[k]
}

// Error is the error returned by Client.Send.
type Error struct {
	Kind   Kind
	Status int    // HTTP status, 0 when no response was received
	Detail string // human-readable cause
	Err    error  // underlying error, if any
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" if err is not a gateway error.
func KindOf(err error) Kind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return ""
}

func newError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// classifyStatus maps a non-2xx HTTP status to an error.
// message is the API's error message, if the body carried one.
func classifyStatus(status int, message string) *Error {
	orDefault := func(def string) string {
		if message != "" {
			return message
		}
		return def
	}

	var e *Error
	switch {
	case status == 400:
		e = newError(KindBadRequest, "bad request format: "+orDefault("Unknown"))
	case status == 401 || status == 403:
		e = newError(KindAuth, "authentication failed: "+orDefault("Invalid API key"))
	case status == 429:
		e = newError(KindRateLimit, "rate limit: "+orDefault("Too many requests"))
	case status >= 500:
		e = newError(KindService, "service error: "+orDefault("Server unavailable"))
	default:
		e = newError(KindUnexpectedStatus, orDefault(fmt.Sprintf("unexpected status %d", status)))
	}
	e.Status = status
	return e
}
