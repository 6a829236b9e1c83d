package conversation

import (
	"errors"

	"proxen/internal/gateway"
)

var (
	// ErrTurnInProgress is returned when a turn is started while another is running.
	ErrTurnInProgress = errors.New("a turn is already in progress")

	// ErrAlreadyStarted is returned by Bootstrap when the transcript is not empty.
	ErrAlreadyStarted = errors.New("conversation already started")

	// ErrEmptyMessage is returned by Submit for a blank utterance.
	ErrEmptyMessage = errors.New("message is empty")
)

// User-facing messages for failed turns.
const (
	MsgBadRequest     = "Request format issue. This is likely temporary. Try again."
	MsgAuth           = "API key issue. Your key might be invalid or expired. Check settings."
	MsgRateLimit      = "Rate limit reached. Take a breather for a minute."
	MsgService        = "Google AI service is having a moment. Try again shortly."
	MsgContentBlocked = "Response was blocked by safety filters. Try rephrasing."
	MsgEmpty          = "Model returned empty response. Try rephrasing or wait a moment."
	MsgParse          = "Response format was invalid. Try again."
	MsgConnection     = "Connection issue. Check your network and retry."
)

// Describe maps a failed turn's error to a stable user-facing message and a
// technical detail string for diagnostics.
func Describe(err error) (user, technical string) {
	if err == nil {
		return "", ""
	}

	switch gateway.KindOf(err) {
	case gateway.KindBadRequest:
		user = MsgBadRequest
	case gateway.KindAuth:
		user = MsgAuth
	case gateway.KindRateLimit:
		user = MsgRateLimit
	case gateway.KindService:
		user = MsgService
	case gateway.KindContentBlocked:
		user = MsgContentBlocked
	case gateway.KindEmptyResponse, gateway.KindEmptyText:
		user = MsgEmpty
	case gateway.KindParseFailure:
		user = MsgParse
	default:
		user = MsgConnection
	}
	return user, err.Error()
}
