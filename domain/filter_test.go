package domain

import (
	"testing"
	"time"
)

func sampleTasks() []Task {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []Task{
		{ID: "1", Title: "Buy milk", Category: defaultCategories[2], Priority: priorities[0], CreatedAt: now, UpdatedAt: now},
		{ID: "2", Title: "Write report", Description: "Quarterly MILK numbers", Completed: true, CreatedAt: now, UpdatedAt: now},
		{ID: "3", Title: "Gym", Description: "leg day", CreatedAt: now, UpdatedAt: now},
		{ID: "4", Title: "Call mom", Completed: true, CreatedAt: now, UpdatedAt: now},
	}
}

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{in: "", want: FilterAll},
		{in: "all", want: FilterAll},
		{in: " Active ", want: FilterActive},
		{in: "completed", want: FilterCompleted},
		{in: "done", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFilter(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseFilter(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseFilter(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestFilterTasksModes(t *testing.T) {
	tasks := sampleTasks()

	if got := ids(FilterTasks(tasks, FilterAll, "")); len(got) != 4 {
		t.Fatalf("all: unexpected ids %v", got)
	}
	active := ids(FilterTasks(tasks, FilterActive, ""))
	if len(active) != 2 || active[0] != "1" || active[1] != "3" {
		t.Fatalf("active: unexpected ids %v", active)
	}
	completed := ids(FilterTasks(tasks, FilterCompleted, ""))
	if len(completed) != 2 || completed[0] != "2" || completed[1] != "4" {
		t.Fatalf("completed: unexpected ids %v", completed)
	}
}

func TestFilterTasksSearchMatchesTitleOrDescription(t *testing.T) {
	tasks := sampleTasks()

	got := ids(FilterTasks(tasks, FilterAll, "milk"))
	if len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Fatalf("search milk: unexpected ids %v", got)
	}

	got = ids(FilterTasks(tasks, FilterActive, "MILK"))
	if len(got) != 1 || got[0] != "1" {
		t.Fatalf("active search MILK: unexpected ids %v", got)
	}

	// Tasks without a description must not match on it.
	if got := FilterTasks(tasks, FilterAll, "leg"); len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("search leg: unexpected result %v", ids(got))
	}
}

func TestActiveAndCompletedPartitionSearchResults(t *testing.T) {
	tasks := sampleTasks()
	for _, q := range []string{"", "milk", "a", "zzz"} {
		all := FilterTasks(tasks, FilterAll, q)
		active := FilterTasks(tasks, FilterActive, q)
		completed := FilterTasks(tasks, FilterCompleted, q)

		if len(active)+len(completed) != len(all) {
			t.Fatalf("query %q: %d active + %d completed != %d all", q, len(active), len(completed), len(all))
		}
		seen := map[string]bool{}
		for _, task := range append(active, completed...) {
			if seen[task.ID] {
				t.Fatalf("query %q: task %s in both views", q, task.ID)
			}
			seen[task.ID] = true
		}
		for _, task := range all {
			if !seen[task.ID] {
				t.Fatalf("query %q: task %s missing from partition", q, task.ID)
			}
		}
	}
}

func TestFilterTasksReturnsCopies(t *testing.T) {
	due := time.Now()
	tasks := []Task{{ID: "1", Title: "x", DueDate: &due}}

	out := FilterTasks(tasks, FilterAll, "")
	*out[0].DueDate = due.Add(time.Hour)

	if !tasks[0].DueDate.Equal(due) {
		t.Fatalf("filtered view aliases the source due date")
	}
}
