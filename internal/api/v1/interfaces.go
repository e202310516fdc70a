package v1

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/dopalist/internal/category"
	"github.com/gosuda/dopalist/internal/domain"
	"github.com/gosuda/dopalist/internal/export"
	"github.com/gosuda/dopalist/internal/reward"
	"github.com/gosuda/dopalist/internal/task"
	"github.com/gosuda/dopalist/internal/view"
)

// TaskStore abstracts the task store for handler testing.
// *task.Store satisfies this interface.
type TaskStore interface {
	Tasks() []domain.Task
	Bin() []domain.Task
	Get(id string) (domain.Task, bool)
	AddTask(ctx context.Context, in task.NewTask) (domain.Task, error)
	AddSubtask(ctx context.Context, parentID string, in task.NewTask) (domain.Task, error)
	ToggleTask(ctx context.Context, id string) (task.ToggleResult, error)
	ToggleSubtask(ctx context.Context, parentID, subtaskID string) (bool, error)
	CompleteWithGate(ctx context.Context, id string, confirmed bool) (task.GateResult, error)
	EditTask(ctx context.Context, id string, p task.Patch) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	DeleteSubtask(ctx context.Context, parentID, subtaskID string) error
	RestoreTask(ctx context.Context, t domain.Task) (domain.Task, error)
	PurgeFromBin(ctx context.Context, id string) error
	ClearBin(ctx context.Context)
}

// CategoryService abstracts the category catalog for handler testing.
// *category.Service satisfies this interface.
type CategoryService interface {
	List() []domain.Category
	Info(id string) category.Info
	Add(ctx context.Context, name, color string) (domain.Category, error)
	Update(ctx context.Context, id, name, color string) (domain.Category, error)
	Delete(ctx context.Context, id string) error
}

// RewardCatalog abstracts the reward catalog for handler testing.
// *reward.Catalog satisfies this interface.
type RewardCatalog interface {
	List() []domain.Reward
	Trigger(ctx context.Context) domain.RewardResult
	Add(ctx context.Context, text string, typ domain.RewardType, weight int) (domain.Reward, error)
	Update(ctx context.Context, id string, p reward.Patch) (domain.Reward, error)
	Delete(ctx context.Context, id string) error
	Summary() reward.Summary
}

// Deps bundles what the handlers need.
type Deps struct {
	Tasks      TaskStore
	Categories CategoryService
	Rewards    RewardCatalog
	Formatter  *view.Formatter
	Exporter   *export.Exporter
	Now        func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Register mounts every operation on api.
func Register(api huma.API, d Deps) {
	RegisterTaskRoutes(api, d)
	RegisterBinRoutes(api, d)
	RegisterCategoryRoutes(api, d)
	RegisterRewardRoutes(api, d)
	RegisterViewRoutes(api, d)
}

// apiError maps a service error onto an HTTP status. what names the entity
// in the response message.
func apiError(err error, what, action string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(what + " not found")
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNestingDepth):
		return huma.Error400BadRequest("invalid "+what, err)
	default:
		return huma.Error500InternalServerError("failed to "+action, err)
	}
}
