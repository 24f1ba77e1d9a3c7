package domain

import (
	"fmt"
	"strings"
)

// Filter restricts the derived view of tasks.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter converts user input into a Filter. An empty value means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q", s)
	}
}

// Matches reports whether t belongs to the filter's view.
func (f Filter) Matches(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// MatchesQuery does a case-insensitive substring match on title or
// description. An empty query matches every task.
func MatchesQuery(t Task, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	return t.Description != "" && strings.Contains(strings.ToLower(t.Description), q)
}

// FilterTasks applies the filter mode first and the search query second,
// keeping the input order.
func FilterTasks(tasks []Task, f Filter, query string) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) && MatchesQuery(t, query) {
			out = append(out, t.Clone())
		}
	}
	return out
}
