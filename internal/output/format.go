// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"proxen/internal/service"
	"proxen/internal/session"
)

const (
	// SectionSeparator is the separator line around section headers.
	SectionSeparator = "------------"

	// AssistantName labels assistant lines in the transcript.
	AssistantName = "proxen"

	// UserName labels user lines in the transcript.
	UserName = "you"
)

// FormatTask formats an active task line.
// Format: "{N:>4}  {TITLE}\n", followed by "      {NOTES}\n" when the task has notes.
func FormatTask(w io.Writer, num int, task session.Task) {
	fmt.Fprintf(w, "%4d  %s\n", num, normalizeTitle(task.Title))
	if notes := normalizeLine(task.Notes); notes != "" {
		fmt.Fprintf(w, "      %s\n", notes)
	}
}

// FormatCompletedTask formats a completed task line.
// Format: "   ✓  {TITLE}\n"
func FormatCompletedTask(w io.Writer, task session.Task) {
	fmt.Fprintf(w, "   ✓  %s\n", normalizeTitle(task.Title))
}

// FormatSection formats a section header.
func FormatSection(w io.Writer, title string) {
	fmt.Fprintln(w, SectionSeparator)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, SectionSeparator)
}

// FormatEntry formats one transcript entry, with its time shown in loc.
// Format: "[15:04] you: text" or "[15:04] proxen: text"; failed turns are
// labelled "proxen (error)".
func FormatEntry(w io.Writer, e session.Entry, loc *time.Location) {
	who := UserName
	if e.Sender == session.SenderAssistant {
		who = AssistantName
		if e.IsError {
			who += " (error)"
		}
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", e.Timestamp.In(loc).Format("15:04"), who, strings.TrimSpace(e.Text))
}

// FormatReply formats the assistant reply of a turn.
func FormatReply(w io.Writer, text string) {
	fmt.Fprintf(w, "%s: %s\n", AssistantName, strings.TrimSpace(text))
}

// FormatChange formats one applied task change.
// Format: "  + title" for added, "  ✓ title" for completed, "  - title" for deleted.
func FormatChange(w io.Writer, c session.Change) {
	mark := "?"
	switch c.Kind {
	case session.ChangeAdded:
		mark = "+"
	case session.ChangeCompleted:
		mark = "✓"
	case session.ChangeDeleted:
		mark = "-"
	}
	fmt.Fprintf(w, "  %s %s\n", mark, normalizeTitle(c.Description))
}

// FormatListName formats a list name for the lists command.
func FormatListName(w io.Writer, list service.TaskList) {
	title := normalizeListTitle(list.Title)
	if list.IsDefault {
		title += " [default]"
	}
	fmt.Fprintln(w, title)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = normalizeLine(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

func normalizeLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// normalizeListTitle normalizes a list title for display.
// Empty or whitespace-only titles become "(untitled)".
func normalizeListTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
