package api

import (
	"errors"
	"strings"
	"time"

	"prism-todo/domain"
	"prism-todo/tasks"
)

const maxBodySize = 64 << 10

var (
	errTitleRequired   = errors.New("title is required")
	errUnknownCategory = errors.New("unknown category")
	errUnknownPriority = errors.New("unknown priority")
)

// taskRequest is the body of create and update calls. Category and priority
// are referenced by id and resolved against the current lists.
type taskRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Completed    *bool      `json:"completed"`
	CategoryID   *string    `json:"categoryId"`
	PriorityID   *string    `json:"priorityId"`
	DueDate      *time.Time `json:"dueDate"`
	ClearDueDate bool       `json:"clearDueDate"`
}

// fields builds the values for a new task. Missing category and priority
// default to the first of each list.
func (r taskRequest) fields(categories []domain.Category) (domain.TaskFields, error) {
	var f domain.TaskFields
	if r.Title == nil || strings.TrimSpace(*r.Title) == "" {
		return f, errTitleRequired
	}
	f.Title = strings.TrimSpace(*r.Title)
	if r.Description != nil {
		f.Description = strings.TrimSpace(*r.Description)
	}
	if r.Completed != nil {
		f.Completed = *r.Completed
	}

	if r.CategoryID != nil {
		c, ok := domain.FindCategory(categories, *r.CategoryID)
		if !ok {
			return f, errUnknownCategory
		}
		f.Category = c
	} else if len(categories) > 0 {
		f.Category = categories[0]
	}

	if r.PriorityID != nil {
		p, ok := domain.FindPriority(*r.PriorityID)
		if !ok {
			return f, errUnknownPriority
		}
		f.Priority = p
	} else {
		f.Priority = domain.Priorities()[0]
	}

	if r.DueDate != nil {
		due := r.DueDate.UTC()
		f.DueDate = &due
	}
	return f, nil
}

func (r taskRequest) patch(categories []domain.Category) (domain.TaskPatch, error) {
	var p domain.TaskPatch
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return p, errTitleRequired
		}
		p.Title = &title
	}
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		p.Description = &desc
	}
	p.Completed = r.Completed
	if r.CategoryID != nil {
		c, ok := domain.FindCategory(categories, *r.CategoryID)
		if !ok {
			return p, errUnknownCategory
		}
		p.Category = &c
	}
	if r.PriorityID != nil {
		pr, ok := domain.FindPriority(*r.PriorityID)
		if !ok {
			return p, errUnknownPriority
		}
		p.Priority = &pr
	}
	if r.DueDate != nil {
		due := r.DueDate.UTC()
		p.DueDate = &due
	}
	p.ClearDueDate = r.ClearDueDate
	return p, nil
}

type healthResponse struct {
	Status  string            `json:"status"`
	Loading bool              `json:"loading"`
	Writer  tasks.WriterStats `json:"writer"`
}
