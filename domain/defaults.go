package domain

var defaultCategories = []Category{
	{ID: "1", Name: "Personal", Color: "#3b82f6", Icon: "user"},
	{ID: "2", Name: "Work", Color: "#8b5cf6", Icon: "briefcase"},
	{ID: "3", Name: "Shopping", Color: "#06b6d4", Icon: "shopping-cart"},
	{ID: "4", Name: "Health", Color: "#10b981", Icon: "heart"},
}

var priorities = []Priority{
	{ID: "1", Name: "Low", Level: 1, Color: "#6b7280"},
	{ID: "2", Name: "Medium", Level: 2, Color: "#f59e0b"},
	{ID: "3", Name: "High", Level: 3, Color: "#ef4444"},
}

// DefaultCategories returns the categories seeded on first run.
func DefaultCategories() []Category {
	return append([]Category(nil), defaultCategories...)
}

// Priorities returns the fixed priority set, lowest level first.
func Priorities() []Priority {
	return append([]Priority(nil), priorities...)
}

// FindCategory looks up a category by id.
func FindCategory(categories []Category, id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// FindPriority looks up one of the fixed priorities by id.
func FindPriority(id string) (Priority, bool) {
	for _, p := range priorities {
		if p.ID == id {
			return p, true
		}
	}
	return Priority{}, false
}
