// Package view derives ordered, grouped and filtered read models from a task
// snapshot. Nothing here mutates its input.
package view

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gosuda/dopalist/internal/domain"
)

type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusActive    StatusFilter = "active"
	StatusCompleted StatusFilter = "completed"
)

// Category filter values besides a concrete category id.
const (
	CategoryAll           = "all"
	CategoryUncategorized = domain.CategoryUncategorized
)

// ParseStatusFilter maps "" to StatusAll and rejects unknown values.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(s); f {
	case "":
		return StatusAll, nil
	case StatusAll, StatusActive, StatusCompleted:
		return f, nil
	default:
		return "", fmt.Errorf("view: unknown status filter %q: %w", s, domain.ErrValidation)
	}
}

// Filter selects the root tasks matching status, then category. An empty
// category means CategoryAll.
func Filter(tasks []domain.Task, status StatusFilter, category string) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		switch status {
		case StatusActive:
			if t.Completed {
				continue
			}
		case StatusCompleted:
			if !t.Completed {
				continue
			}
		}
		switch category {
		case "", CategoryAll:
		case CategoryUncategorized:
			if !t.Uncategorized() {
				continue
			}
		default:
			if t.CategoryID != category {
				continue
			}
		}
		out = append(out, t.Clone())
	}
	return out
}

// Compare orders two root tasks: higher priority first, then tasks with a due
// date before tasks without one, soonest due first, then newest first.
func Compare(a, b *domain.Task) int {
	if c := cmp.Compare(b.Priority.Rank(), a.Priority.Rank()); c != 0 {
		return c
	}

	ad, aok := a.Due()
	bd, bok := b.Due()
	switch {
	case aok && !bok:
		return -1
	case !aok && bok:
		return 1
	case aok && bok:
		if c := ad.Compare(bd); c != 0 {
			return c
		}
	}

	return b.CreatedAt.Compare(a.CreatedAt)
}

// Sort returns a sorted copy of tasks. Subtasks keep their stored order.
func Sort(tasks []domain.Task) []domain.Task {
	out := domain.CloneTasks(tasks)
	slices.SortStableFunc(out, func(a, b domain.Task) int { return Compare(&a, &b) })
	return out
}

// Grouped is the render model: active tasks first, then completed ones, each
// group sorted independently.
type Grouped struct {
	Active    []domain.Task `json:"active"`
	Completed []domain.Task `json:"completed"`
}

// Build filters tasks and splits the result into sorted groups.
func Build(tasks []domain.Task, status StatusFilter, category string) Grouped {
	filtered := Filter(tasks, status, category)
	active := make([]domain.Task, 0, len(filtered))
	completed := make([]domain.Task, 0)
	for _, t := range filtered {
		if t.Completed {
			completed = append(completed, t)
		} else {
			active = append(active, t)
		}
	}
	return Grouped{Active: Sort(active), Completed: Sort(completed)}
}

// Stats counts root tasks.
type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

func StatsOf(tasks []domain.Task) Stats {
	s := Stats{Total: len(tasks)}
	for i := range tasks {
		if tasks[i].Completed {
			s.Completed++
		} else {
			s.Active++
		}
	}
	return s
}

// CategoryCount is the number of root tasks referencing one category.
type CategoryCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// CategoryCounts is the sidebar model. Status filters are not applied.
type CategoryCounts struct {
	All           int             `json:"all"`
	Uncategorized int             `json:"uncategorized"`
	Categories    []CategoryCount `json:"categories"`
}

// CountByCategory counts root tasks per category in catalog order. Categories
// without tasks are omitted; tasks pointing at a deleted category only count
// towards All.
func CountByCategory(tasks []domain.Task, categories []domain.Category) CategoryCounts {
	byID := make(map[string]int, len(categories))
	out := CategoryCounts{All: len(tasks), Categories: []CategoryCount{}}
	for i := range tasks {
		if tasks[i].Uncategorized() {
			out.Uncategorized++
			continue
		}
		byID[tasks[i].CategoryID]++
	}
	for _, c := range categories {
		if n := byID[c.ID]; n > 0 {
			out.Categories = append(out.Categories, CategoryCount{ID: c.ID, Name: c.Name, Color: c.Color, Count: n})
		}
	}
	return out
}

// Progress is the completed share of a task's subtasks.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

func ProgressOf(t *domain.Task) Progress {
	p := Progress{Total: len(t.Subtasks)}
	for i := range t.Subtasks {
		if t.Subtasks[i].Completed {
			p.Done++
		}
	}
	return p
}
