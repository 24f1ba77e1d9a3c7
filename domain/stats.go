package domain

import "time"

// RecentActivityWindow bounds how far back an update counts as recent activity.
const RecentActivityWindow = 7 * 24 * time.Hour

// Stats summarises the full task list.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// CategoryStat reports completion progress for one category.
type CategoryStat struct {
	Category
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Percentage float64 `json:"percentage"`
}

// Insights bundles the figures shown on the statistics view.
type Insights struct {
	Stats          Stats          `json:"stats"`
	CompletionRate float64        `json:"completionRate"`
	RecentActivity int            `json:"recentActivity"`
	Categories     []CategoryStat `json:"categories"`
}

// ComputeStats counts tasks by state. Overdue tasks are always pending.
func ComputeStats(tasks []Task, now time.Time) Stats {
	var s Stats
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}

// CompletionRate returns the completed share as a percentage.
func CompletionRate(s Stats) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total) * 100
}

// RecentActivity counts tasks updated within RecentActivityWindow of now.
func RecentActivity(tasks []Task, now time.Time) int {
	n := 0
	for _, t := range tasks {
		if now.Sub(t.UpdatedAt) <= RecentActivityWindow {
			n++
		}
	}
	return n
}

// CategoryBreakdown groups tasks by category id, in category order. Categories
// without tasks are left out.
func CategoryBreakdown(categories []Category, tasks []Task) []CategoryStat {
	out := make([]CategoryStat, 0, len(categories))
	for _, c := range categories {
		st := CategoryStat{Category: c}
		for _, t := range tasks {
			if t.Category.ID != c.ID {
				continue
			}
			st.Total++
			if t.Completed {
				st.Completed++
			}
		}
		if st.Total == 0 {
			continue
		}
		st.Percentage = float64(st.Completed) / float64(st.Total) * 100
		out = append(out, st)
	}
	return out
}

// ComputeInsights derives every statistic from the full list.
func ComputeInsights(categories []Category, tasks []Task, now time.Time) Insights {
	s := ComputeStats(tasks, now)
	return Insights{
		Stats:          s,
		CompletionRate: CompletionRate(s),
		RecentActivity: RecentActivity(tasks, now),
		Categories:     CategoryBreakdown(categories, tasks),
	}
}
