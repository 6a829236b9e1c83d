package reconcile

import (
	"strings"

	"proxen/internal/session"
)

// MatchTask returns the index of the task hint refers to, or -1.
//
// Titles are compared case-insensitively. An exact title wins; otherwise the
// first task in list order whose title contains hint is used. Ambiguous
// substring matches are not disambiguated. A blank hint matches nothing.
func MatchTask(tasks []session.Task, hint string) int {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return -1
	}

	for i, t := range tasks {
		if strings.ToLower(t.Title) == hint {
			return i
		}
	}
	for i, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), hint) {
			return i
		}
	}
	return -1
}
