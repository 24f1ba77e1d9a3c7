package domain

import "time"

// Task represents a single user-tracked to-do item.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Category    Category   `json:"category"`
	Priority    Priority   `json:"priority"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Category is a grouping label embedded into tasks by value. Changing a
// category definition does not touch tasks saved with an older copy.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Priority is an ordered urgency label embedded into tasks by value.
type Priority struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
	Color string `json:"color"`
}

// TaskFields carries the caller-supplied fields of a new task.
type TaskFields struct {
	Title       string
	Description string
	Completed   bool
	Category    Category
	Priority    Priority
	DueDate     *time.Time
}

// TaskPatch carries optional task fields for updates. Nil fields are left
// untouched.
type TaskPatch struct {
	Title        *string
	Description  *string
	Completed    *bool
	Category     *Category
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
}

// Apply returns a copy of t with the patch merged in. ID, CreatedAt and
// UpdatedAt are never taken from the patch.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	return t
}

// IsOverdue reports whether an incomplete task has a due date strictly before now.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && !t.Completed && t.DueDate.Before(now)
}

// Clone returns a deep copy of t so callers cannot alias the due date.
func (t Task) Clone() Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}

// CloneTasks deep-copies a task list. A nil input yields an empty, non-nil slice.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
