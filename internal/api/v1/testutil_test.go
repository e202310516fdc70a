package v1_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	v1 "github.com/gosuda/dopalist/internal/api/v1"
	"github.com/gosuda/dopalist/internal/category"
	"github.com/gosuda/dopalist/internal/domain"
	"github.com/gosuda/dopalist/internal/export"
	"github.com/gosuda/dopalist/internal/persist"
	"github.com/gosuda/dopalist/internal/reward"
	"github.com/gosuda/dopalist/internal/store/memory"
	"github.com/gosuda/dopalist/internal/task"
	"github.com/gosuda/dopalist/internal/view"
)

// ---------------------------------------------------------------------------
// Test environment backed by the in-memory store
// ---------------------------------------------------------------------------

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

var testRewards = []domain.Reward{
	{ID: "small-1", Text: "Coffee break", Type: domain.RewardSmall, Weight: 1},
	{ID: "super-1", Text: "Movie night", Type: domain.RewardSuper, Weight: 1},
}

type testEnv struct {
	api        humatest.TestAPI
	tasks      *task.Store
	categories *category.Service
	rewards    *reward.Catalog
}

func newEnv(t *testing.T) testEnv {
	t.Helper()

	ctx := context.Background()
	gw := persist.New(memory.NewKV(), persist.WithRewardSeed(testRewards))
	catalog := reward.NewCatalog(ctx, gw, nil, reward.WithSource(fixedSource(0.99)))
	categories := category.New(ctx, gw)
	tasks := task.New(ctx, gw, task.WithRewards(catalog), task.WithClock(func() time.Time { return testNow }))

	_, api := humatest.New(t)
	v1.Register(api, v1.Deps{
		Tasks:      tasks,
		Categories: categories,
		Rewards:    catalog,
		Formatter:  view.NewFormatter("en"),
		Exporter:   export.New(language.English),
		Now:        func() time.Time { return testNow },
	})

	return testEnv{api: api, tasks: tasks, categories: categories, rewards: catalog}
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out), resp.Body.String())
	return out
}

func day(offset int) string {
	return testNow.AddDate(0, 0, offset).Format(domain.DateLayout)
}

// ---------------------------------------------------------------------------
// Mock TaskStore for failure paths
// ---------------------------------------------------------------------------

type mockTaskStore struct {
	v1.TaskStore
	addTaskFunc    func(ctx context.Context, in task.NewTask) (domain.Task, error)
	deleteTaskFunc func(ctx context.Context, id string) error
}

func (m *mockTaskStore) AddTask(ctx context.Context, in task.NewTask) (domain.Task, error) {
	return m.addTaskFunc(ctx, in)
}

func (m *mockTaskStore) DeleteTask(ctx context.Context, id string) error {
	return m.deleteTaskFunc(ctx, id)
}

func wrapped(err error) error {
	return fmt.Errorf("task.Store: %w", err)
}
