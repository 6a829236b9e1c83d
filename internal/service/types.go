package service

// Task is a task as the remote backend stores it.
type Task struct {
	ID     string
	Title  string
	Notes  string
	Status string // "needsAction" or "completed"
}

// NewTask is the content of a task to create.
type NewTask struct {
	Title string
	Notes string
}

// TaskList represents a task list.
type TaskList struct {
	ID        string
	Title     string
	IsDefault bool
}

// Task statuses used by the backend.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)
