package gateway

import (
	"encoding/json"
	"strings"

	"proxen/internal/session"
)

// Response is the structured reply the model is instructed to produce.
type Response struct {
	ConversationalResponse string
	Actions                []Action

	// WaitingForClarification is nil when the model did not declare the flag.
	// An explicit null declares it false.
	WaitingForClarification *bool

	dropped int // action elements that were not a recognised shape
}

// Action is one element of the "actions" array.
type Action struct {
	Type    string   `json:"type"`
	Title   string   `json:"title,omitempty"`
	Notes   string   `json:"notes,omitempty"`
	IDMatch string   `json:"id_match,omitempty"`
	TaskID  string   `json:"task_id,omitempty"`
	Steps   []string `json:"steps,omitempty"`
}

// Intent converts a to a session intent. ok is false for shapes the
// reconciler does not accept.
func (a Action) Intent() (intent session.Intent, ok bool) {
	switch strings.ToLower(strings.TrimSpace(a.Type)) {
	case "add":
		if strings.TrimSpace(a.Title) == "" {
			return nil, false
		}
		return session.Add{Title: strings.TrimSpace(a.Title), Notes: a.Notes}, true
	case "complete":
		return session.Complete{MatchHint: a.IDMatch}, true
	case "delete":
		return session.Delete{MatchHint: a.IDMatch}, true
	case "help":
		if len(a.Steps) == 0 {
			return nil, false
		}
		return session.Decompose{TaskHint: a.TaskID, Steps: a.Steps}, true
	default:
		return nil, false
	}
}

// Intents returns the intents of all recognised actions, in order.
func (r *Response) Intents() []session.Intent {
	var out []session.Intent
	for _, a := range r.Actions {
		if in, ok := a.Intent(); ok {
			out = append(out, in)
		}
	}
	return out
}

// Dropped returns how many action elements were ignored while parsing.
func (r *Response) Dropped() int {
	return r.dropped
}

type envelope struct {
	ConversationalResponse  string          `json:"conversational_response"`
	Actions                 json.RawMessage `json:"actions"`
	WaitingForClarification json.RawMessage `json:"isWaitingForClarification"`
}

// clarificationFlag reads isWaitingForClarification. An absent flag is nil
// and an explicit null counts as false.
func clarificationFlag(raw json.RawMessage) (*bool, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var flag *bool
	if err := json.Unmarshal(raw, &flag); err != nil {
		return nil, err
	}
	if flag == nil {
		flag = new(bool)
	}
	return flag, nil
}

// stripFence removes an optional markdown code fence around text.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if rest, ok := strings.CutPrefix(text, "```json"); ok {
		text = rest
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// parseText runs the last three validation stages on the model's raw text:
// fence stripping, JSON parsing and the conversational_response check.
func parseText(raw string) (*Response, *Error) {
	var env envelope
	if err := json.Unmarshal([]byte(stripFence(raw)), &env); err != nil {
		return nil, &Error{Kind: KindParseFailure, Detail: "JSON parse failed: " + err.Error(), Err: err}
	}
	if strings.TrimSpace(env.ConversationalResponse) == "" {
		return nil, newError(KindParseFailure, "missing conversational_response field")
	}
	waiting, err := clarificationFlag(env.WaitingForClarification)
	if err != nil {
		return nil, &Error{Kind: KindParseFailure, Detail: "invalid isWaitingForClarification: " + err.Error(), Err: err}
	}

	actions, dropped := decodeActions(env.Actions)
	return &Response{
		ConversationalResponse:  env.ConversationalResponse,
		Actions:                 actions,
		WaitingForClarification: waiting,
		dropped:                 dropped,
	}, nil
}

// decodeActions decodes each element on its own so that one malformed
// action does not fail the whole response.
func decodeActions(raw json.RawMessage) ([]Action, int) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, 0
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, 1
	}

	var (
		actions []Action
		dropped int
	)
	for _, item := range items {
		var a Action
		if err := json.Unmarshal(item, &a); err != nil {
			dropped++
			continue
		}
		if _, ok := a.Intent(); !ok {
			dropped++
			continue
		}
		actions = append(actions, a)
	}
	return actions, dropped
}
