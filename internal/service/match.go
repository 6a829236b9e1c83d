package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrListNotFound is returned when no list has the requested name.
	ErrListNotFound = errors.New("list not found")

	// ErrListAmbiguous is returned when several lists share the requested name.
	ErrListAmbiguous = errors.New("ambiguous list name")
)

// MatchList finds the list titled name, compared case-insensitively after
// trimming. An empty name selects the default list.
func MatchList(lists []TaskList, name string) (TaskList, error) {
	name = strings.TrimSpace(name)
	nameLower := strings.ToLower(name)

	var matches []TaskList
	for _, list := range lists {
		if name == "" && list.IsDefault {
			return list, nil
		}
		if name != "" && strings.ToLower(strings.TrimSpace(list.Title)) == nameLower {
			matches = append(matches, list)
		}
	}

	switch len(matches) {
	case 0:
		return TaskList{}, fmt.Errorf("%w: %s", ErrListNotFound, name)
	case 1:
		return matches[0], nil
	default:
		return TaskList{}, fmt.Errorf("%w: %s", ErrListAmbiguous, name)
	}
}
