// Package session defines the conversation state that a proxen session carries
// between turns, and the storage interface that persists it.
package session

import "time"

// Sender identifies who produced a transcript entry.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Task represents a single task item.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"` // set iff Completed
}

// Entry is one line of the chat transcript.
type Entry struct {
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	IsError   bool      `json:"isError,omitempty"`
}

// State is the conversation state threaded through each turn.
// Components never change a State in place; they work on a Clone and return it.
type State struct {
	Tasks                 []Task
	Transcript            []Entry
	CompletedToday        int
	AwaitingClarification bool
	LastInteractionAt     time.Time
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Tasks = nil
	for _, t := range s.Tasks {
		if t.CompletedAt != nil {
			at := *t.CompletedAt
			t.CompletedAt = &at
		}
		out.Tasks = append(out.Tasks, t)
	}
	out.Transcript = append([]Entry(nil), s.Transcript...)
	return out
}

// ActiveTasks returns the tasks that are not completed, in list order.
func (s State) ActiveTasks() []Task {
	var out []Task
	for _, t := range s.Tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// CompletedTasks returns the completed tasks, in list order.
func (s State) CompletedTasks() []Task {
	var out []Task
	for _, t := range s.Tasks {
		if t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// Recent returns up to n of the most recent transcript entries, oldest first.
func (s State) Recent(n int) []Entry {
	if n <= 0 {
		return nil
	}
	if len(s.Transcript) <= n {
		return s.Transcript
	}
	return s.Transcript[len(s.Transcript)-n:]
}

// Append returns a copy of s with e appended to the transcript.
func (s State) Append(e Entry) State {
	out := s.Clone()
	out.Transcript = append(out.Transcript, e)
	return out
}

// Profile holds the user's credential and display name.
type Profile struct {
	APIKey   string
	UserName string
}

// Snapshot is everything that is persisted for a session.
type Snapshot struct {
	Profile Profile
	State   State
}
