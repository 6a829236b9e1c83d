package session

// Intent is a single task mutation declared by the model.
// The only implementations are Add, Complete, Delete and Decompose.
type Intent interface {
	intent()
}

// Add creates a new task.
type Add struct {
	Title string
	Notes string
}

// Complete marks the task matching MatchHint as completed.
type Complete struct {
	MatchHint string
}

// Delete removes the task matching MatchHint.
type Delete struct {
	MatchHint string
}

// Decompose adds one task per step. TaskHint names the task being broken
// down; it is informational only.
type Decompose struct {
	TaskHint string
	Steps    []string
}

func (Add) intent()       {}
func (Complete) intent()  {}
func (Delete) intent()    {}
func (Decompose) intent() {}

// ChangeKind describes what happened to a task.
type ChangeKind string

const (
	ChangeAdded     ChangeKind = "added"
	ChangeCompleted ChangeKind = "completed"
	ChangeDeleted   ChangeKind = "deleted"
)

// Change records one applied task mutation.
type Change struct {
	Kind        ChangeKind
	Description string // task title
	TaskID      string
	Notes       string
}

// ChangeLog is the ordered list of changes produced by one reconciliation.
type ChangeLog []Change

// Added reports whether any change in the log added a task.
func (l ChangeLog) Added() bool {
	for _, c := range l {
		if c.Kind == ChangeAdded {
			return true
		}
	}
	return false
}
