package domain

import "time"

// Category groups root tasks. Deleting a category leaves tasks pointing at
// the removed id; lookups then fall back to an "unknown category" display.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryUncategorized is the category filter value and display key for
// tasks without a category.
const CategoryUncategorized = "uncategorized"
