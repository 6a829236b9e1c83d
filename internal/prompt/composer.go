// Package prompt builds the text sent to the model for each turn.
//
// Everything here is a pure function of its arguments: the caller supplies
// the state, the user's name, the utterance and the current time.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"proxen/internal/session"
)

// DefaultHistoryWindow is how many transcript entries are included.
const DefaultHistoryWindow = 6

// Request is the payload handed to the gateway verbatim.
type Request struct {
	Text string
}

// Composer builds requests.
type Composer struct {
	historyWindow int
}

// New returns a Composer that includes the last window transcript entries.
// A non-positive window uses DefaultHistoryWindow.
func New(window int) *Composer {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &Composer{historyWindow: window}
}

// HistoryWindow returns the number of transcript entries included.
func (c *Composer) HistoryWindow() int {
	return c.historyWindow
}

// Compose builds the request for one turn.
func (c *Composer) Compose(state session.State, userName, utterance string, now time.Time) Request {
	var b strings.Builder

	fmt.Fprintf(&b, personaHeader, userName)
	b.WriteString("\n")

	active := len(state.ActiveTasks())
	momentum := Classify(state.CompletedToday, active, now.Hour())
	b.WriteString("TONE VARIATION (context-aware):\n")
	b.WriteString(momentum.Guidance())
	b.WriteString("\n\n")

	b.WriteString("CURRENT STATE:\n")
	fmt.Fprintf(&b, "Time: %s\n", TimeOfDay(now.Hour()))
	fmt.Fprintf(&b, "Tasks: %s\n", tasksJSON(state.Tasks))
	fmt.Fprintf(&b, "Recent completions today: %d\n\n", state.CompletedToday)

	fmt.Fprintf(&b, rulesSection, userName)
	b.WriteString("\n")
	b.WriteString(schemaSection)
	b.WriteString("\nBe real. Be human. Help them get it done.\n\n")

	b.WriteString("RECENT CONVERSATION:\n")
	b.WriteString(History(state.Recent(c.historyWindow)))
	b.WriteString("\n\n")

	b.WriteString("USER'S CURRENT MESSAGE:\n")
	b.WriteString(utterance)
	b.WriteString("\n\n")
	b.WriteString(closingReminder)

	return Request{Text: b.String()}
}

// Greeting returns the instruction used in place of an utterance for the
// first turn of a session.
func Greeting(userName string) string {
	return fmt.Sprintf(greetingInstruction, userName)
}

// History formats entries oldest-first, one "User: ..." or "Assistant: ..."
// line each.
func History(entries []session.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		speaker := "Assistant"
		if e.Sender == session.SenderUser {
			speaker = "User"
		}
		lines = append(lines, speaker+": "+e.Text)
	}
	return strings.Join(lines, "\n")
}

func tasksJSON(tasks []session.Task) string {
	if len(tasks) == 0 {
		return "[]"
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		// Task only holds strings, bools and times.
		return "[]"
	}
	return string(data)
}
