package view_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/dopalist/internal/domain"
	"github.com/gosuda/dopalist/internal/view"
)

var today = time.Date(2024, 5, 10, 15, 30, 0, 0, time.Local)

func date(days int) string {
	return today.AddDate(0, 0, days).Format(domain.DateLayout)
}

func ids(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].ID
	}
	return out
}

func TestSort_PriorityDueCreated(t *testing.T) {
	t.Parallel()

	tasks := []domain.Task{
		{ID: "p2-due5", Priority: domain.PriorityP2, DueDate: date(5), CreatedAt: today.Add(-time.Hour)},
		{ID: "p1-due1", Priority: domain.PriorityP1, DueDate: date(1), CreatedAt: today.Add(-72 * time.Hour)},
		{ID: "p1-yesterday", Priority: domain.PriorityP1, CreatedAt: today.Add(-24 * time.Hour)},
		{ID: "p1-today", Priority: domain.PriorityP1, CreatedAt: today},
	}

	got := view.Sort(tasks)
	assert.Equal(t, []string{"p1-due1", "p1-today", "p1-yesterday", "p2-due5"}, ids(got))
	assert.Equal(t, "p2-due5", tasks[0].ID, "input must not be reordered")
}

func TestSort_DueAscendingThenNewest(t *testing.T) {
	t.Parallel()

	tasks := []domain.Task{
		{ID: "p3-none", Priority: domain.PriorityP3, CreatedAt: today},
		{ID: "p3-due9", Priority: domain.PriorityP3, DueDate: date(9), CreatedAt: today},
		{ID: "p3-due2-old", Priority: domain.PriorityP3, DueDate: date(2), CreatedAt: today.Add(-time.Hour)},
		{ID: "p3-due2-new", Priority: domain.PriorityP3, DueDate: date(2), CreatedAt: today},
		{ID: "p2-none", Priority: domain.PriorityP2, CreatedAt: today.Add(-time.Hour)},
	}

	got := view.Sort(tasks)
	assert.Equal(t, []string{"p2-none", "p3-due2-new", "p3-due2-old", "p3-due9", "p3-none"}, ids(got))
}

func TestSort_KeepsSubtaskOrder(t *testing.T) {
	t.Parallel()

	tasks := []domain.Task{{
		ID:       "root",
		Priority: domain.PriorityP3,
		Subtasks: []domain.Task{
			{ID: "b", Priority: domain.PriorityP3},
			{ID: "a", Priority: domain.PriorityP1},
		},
	}}

	got := view.Sort(tasks)
	assert.Equal(t, []string{"b", "a"}, ids(got[0].Subtasks))
}

func TestFilterAndBuild(t *testing.T) {
	t.Parallel()

	tasks := []domain.Task{
		{ID: "work-open", Priority: domain.PriorityP3, CategoryID: "work", CreatedAt: today},
		{ID: "work-done", Priority: domain.PriorityP3, CategoryID: "work", Completed: true, CreatedAt: today},
		{ID: "none-open", Priority: domain.PriorityP1, CreatedAt: today},
		{ID: "blank-done", Priority: domain.PriorityP2, CategoryID: "  ", Completed: true, CreatedAt: today},
		{ID: "stale-open", Priority: domain.PriorityP2, CategoryID: "deleted", CreatedAt: today},
	}

	tests := []struct {
		name      string
		status    view.StatusFilter
		category  string
		active    []string
		completed []string
	}{
		{"all", view.StatusAll, view.CategoryAll, []string{"none-open", "stale-open", "work-open"}, []string{"blank-done", "work-done"}},
		{"empty_category_is_all", view.StatusAll, "", []string{"none-open", "stale-open", "work-open"}, []string{"blank-done", "work-done"}},
		{"active", view.StatusActive, view.CategoryAll, []string{"none-open", "stale-open", "work-open"}, []string{}},
		{"completed", view.StatusCompleted, view.CategoryAll, []string{}, []string{"blank-done", "work-done"}},
		{"uncategorized", view.StatusAll, view.CategoryUncategorized, []string{"none-open"}, []string{"blank-done"}},
		{"work_active", view.StatusActive, "work", []string{"work-open"}, []string{}},
		{"unknown_id", view.StatusAll, "nope", []string{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := view.Build(tasks, tt.status, tt.category)
			assert.Equal(t, tt.active, ids(got.Active))
			assert.Equal(t, tt.completed, ids(got.Completed))
		})
	}
}

func TestParseStatusFilter(t *testing.T) {
	t.Parallel()

	f, err := view.ParseStatusFilter("")
	require.NoError(t, err)
	assert.Equal(t, view.StatusAll, f)

	f, err = view.ParseStatusFilter("completed")
	require.NoError(t, err)
	assert.Equal(t, view.StatusCompleted, f)

	_, err = view.ParseStatusFilter("archived")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestStatsAndCounts(t *testing.T) {
	t.Parallel()

	tasks := []domain.Task{
		{ID: "1", CategoryID: "work"},
		{ID: "2", CategoryID: "work", Completed: true},
		{ID: "3"},
		{ID: "4", CategoryID: "gone"},
	}
	categories := []domain.Category{
		{ID: "home", Name: "Home"},
		{ID: "work", Name: "Work", Color: "red"},
	}

	assert.Equal(t, view.Stats{Total: 4, Active: 3, Completed: 1}, view.StatsOf(tasks))

	counts := view.CountByCategory(tasks, categories)
	assert.Equal(t, 4, counts.All)
	assert.Equal(t, 1, counts.Uncategorized)
	require.Len(t, counts.Categories, 1)
	assert.Equal(t, view.CategoryCount{ID: "work", Name: "Work", Color: "red", Count: 2}, counts.Categories[0])

	empty := view.CountByCategory(nil, categories)
	assert.NotNil(t, empty.Categories)
	assert.Empty(t, empty.Categories)
}

func TestProgressOf(t *testing.T) {
	t.Parallel()

	task := domain.Task{Subtasks: []domain.Task{{Completed: true}, {}, {Completed: true}}}
	assert.Equal(t, view.Progress{Done: 2, Total: 3}, view.ProgressOf(&task))
	assert.Equal(t, view.Progress{}, view.ProgressOf(&domain.Task{}))
}
