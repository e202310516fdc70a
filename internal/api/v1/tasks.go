package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/dopalist/internal/category"
	"github.com/gosuda/dopalist/internal/domain"
	"github.com/gosuda/dopalist/internal/task"
	"github.com/gosuda/dopalist/internal/view"
)

// TaskItem is a root task decorated with its derived display state.
// SubtaskDue holds the due state of each subtask that has a due date, keyed by
// subtask ID.
type TaskItem struct {
	domain.Task
	Progress   view.Progress       `json:"progress"`
	Due        *view.Due           `json:"due,omitempty"`
	SubtaskDue map[string]view.Due `json:"subtask_due,omitempty"`
	Category   category.Info       `json:"category"`
}

type TaskList struct {
	Active    []TaskItem `json:"active"`
	Completed []TaskItem `json:"completed"`
}

type ListTasksInput struct {
	Status   string `query:"status" enum:"all,active,completed" default:"all" doc:"Status filter"`
	Category string `query:"category" default:"all" doc:"Category filter: all, uncategorized or a category ID"`
}

type ListTasksOutput struct {
	Body TaskList
}

type GetTaskInput struct {
	ID string `path:"id" doc:"Task or subtask ID"`
}

type TaskOutput struct {
	Body domain.Task
}

type CreateTaskInput struct {
	Body struct {
		Title      string `json:"title" minLength:"1" maxLength:"500" doc:"Task title"`
		Priority   string `json:"priority,omitempty" doc:"P1, P2 or P3 (default P3)"`
		DueDate    string `json:"due_date,omitempty" doc:"Due date, YYYY-MM-DD"`
		CategoryID string `json:"category_id,omitempty" doc:"Category ID"`
	}
}

type CreateSubtaskInput struct {
	ParentID string `path:"id" doc:"Root task ID"`
	Body     struct {
		Title    string `json:"title" minLength:"1" maxLength:"500" doc:"Subtask title"`
		Priority string `json:"priority,omitempty" doc:"P1, P2 or P3 (default P3)"`
		DueDate  string `json:"due_date,omitempty" doc:"Due date, YYYY-MM-DD"`
	}
}

type UpdateTaskInput struct {
	ID   string `path:"id" doc:"Task or subtask ID"`
	Body struct {
		Title      *string `json:"title,omitempty" maxLength:"500" doc:"Task title"`
		Priority   *string `json:"priority,omitempty" doc:"P1, P2 or P3"`
		DueDate    *string `json:"due_date,omitempty" doc:"Due date, YYYY-MM-DD; empty clears"`
		CategoryID *string `json:"category_id,omitempty" doc:"Category ID; empty clears"`
	}
}

type ToggleTaskOutput struct {
	Body task.ToggleResult
}

type CompleteTaskInput struct {
	ID   string `path:"id" doc:"Root task ID"`
	Body struct {
		Confirm bool `json:"confirm,omitempty" doc:"Complete even when subtasks are still open"`
	}
}

type CompleteTaskOutput struct {
	Body task.GateResult
}

type SubtaskInput struct {
	ParentID  string `path:"id" doc:"Root task ID"`
	SubtaskID string `path:"subID" doc:"Subtask ID"`
}

type ToggleSubtaskOutput struct {
	Body struct {
		Completed bool `json:"completed"`
	}
}

func RegisterTaskRoutes(api huma.API, d Deps) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks grouped into active and completed",
		Tags:        []string{"Tasks"},
	}, func(_ context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
		status, err := view.ParseStatusFilter(input.Status)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid status filter", err)
		}

		grouped := view.Build(d.Tasks.Tasks(), status, input.Category)
		today := d.now()
		return &ListTasksOutput{Body: TaskList{
			Active:    decorate(d, grouped.Active, today),
			Completed: decorate(d, grouped.Completed, today),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task or subtask by ID",
		Tags:        []string{"Tasks"},
	}, func(_ context.Context, input *GetTaskInput) (*TaskOutput, error) {
		t, ok := d.Tasks.Get(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("task not found")
		}
		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create a root task",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTaskInput) (*TaskOutput, error) {
		t, err := d.Tasks.AddTask(ctx, task.NewTask{
			Title:      input.Body.Title,
			Priority:   domain.Priority(input.Body.Priority),
			DueDate:    input.Body.DueDate,
			CategoryID: input.Body.CategoryID,
		})
		if err != nil {
			return nil, apiError(err, "task", "create task")
		}
		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Edit a task or subtask",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*TaskOutput, error) {
		p := task.Patch{
			Title:      input.Body.Title,
			DueDate:    input.Body.DueDate,
			CategoryID: input.Body.CategoryID,
		}
		if input.Body.Priority != nil {
			prio := domain.Priority(*input.Body.Priority)
			p.Priority = &prio
		}

		t, err := d.Tasks.EditTask(ctx, input.ID, p)
		if err != nil {
			return nil, apiError(err, "task", "update task")
		}
		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Move a root task to the recycle bin",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *GetTaskInput) (*struct{}, error) {
		if err := d.Tasks.DeleteTask(ctx, input.ID); err != nil {
			return nil, apiError(err, "task", "delete task")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/toggle",
		Summary:     "Flip a root task's completed flag",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *GetTaskInput) (*ToggleTaskOutput, error) {
		res, err := d.Tasks.ToggleTask(ctx, input.ID)
		if err != nil {
			return nil, apiError(err, "task", "toggle task")
		}
		return &ToggleTaskOutput{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/complete",
		Summary:     "Toggle a root task, asking for confirmation when subtasks are open",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *CompleteTaskInput) (*CompleteTaskOutput, error) {
		res, err := d.Tasks.CompleteWithGate(ctx, input.ID, input.Body.Confirm)
		if err != nil {
			return nil, apiError(err, "task", "complete task")
		}
		return &CompleteTaskOutput{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-subtask",
		Method:        http.MethodPost,
		Path:          "/tasks/{id}/subtasks",
		Summary:       "Add a subtask to a root task",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateSubtaskInput) (*TaskOutput, error) {
		st, err := d.Tasks.AddSubtask(ctx, input.ParentID, task.NewTask{
			Title:    input.Body.Title,
			Priority: domain.Priority(input.Body.Priority),
			DueDate:  input.Body.DueDate,
		})
		if err != nil {
			return nil, apiError(err, "task", "create subtask")
		}
		return &TaskOutput{Body: st}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-subtask",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/subtasks/{subID}/toggle",
		Summary:     "Flip a subtask's completed flag",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *SubtaskInput) (*ToggleSubtaskOutput, error) {
		done, err := d.Tasks.ToggleSubtask(ctx, input.ParentID, input.SubtaskID)
		if err != nil {
			return nil, apiError(err, "subtask", "toggle subtask")
		}
		out := &ToggleSubtaskOutput{}
		out.Body.Completed = done
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-subtask",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}/subtasks/{subID}",
		Summary:     "Delete a subtask permanently",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *SubtaskInput) (*struct{}, error) {
		if err := d.Tasks.DeleteSubtask(ctx, input.ParentID, input.SubtaskID); err != nil {
			return nil, apiError(err, "subtask", "delete subtask")
		}
		return nil, nil
	})
}

func decorate(d Deps, tasks []domain.Task, today time.Time) []TaskItem {
	out := make([]TaskItem, len(tasks))
	for i := range tasks {
		item := TaskItem{Task: tasks[i], Progress: view.ProgressOf(&tasks[i])}
		if d.Categories != nil {
			item.Category = d.Categories.Info(tasks[i].CategoryID)
		}
		if due, ok := describeDue(d, tasks[i].DueDate, today); ok {
			item.Due = &due
		}
		for _, sub := range tasks[i].Subtasks {
			due, ok := describeDue(d, sub.DueDate, today)
			if !ok {
				continue
			}
			if item.SubtaskDue == nil {
				item.SubtaskDue = make(map[string]view.Due)
			}
			item.SubtaskDue[sub.ID] = due
		}
		out[i] = item
	}
	return out
}

func describeDue(d Deps, dueDate string, today time.Time) (view.Due, bool) {
	if dueDate == "" || d.Formatter == nil {
		return view.Due{}, false
	}
	due, err := d.Formatter.Describe(dueDate, today)
	if err != nil {
		return view.Due{}, false
	}
	return due, true
}
