package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/dopalist/internal/domain"
)

type ListBinOutput struct {
	Body []domain.Task
}

type RestoreTaskInput struct {
	Body domain.Task
}

type BinEntryInput struct {
	ID string `path:"id" doc:"Recycle bin entry ID"`
}

func RegisterBinRoutes(api huma.API, d Deps) {
	huma.Register(api, huma.Operation{
		OperationID: "list-bin",
		Method:      http.MethodGet,
		Path:        "/bin",
		Summary:     "List deleted tasks",
		Tags:        []string{"Recycle bin"},
	}, func(_ context.Context, _ *struct{}) (*ListBinOutput, error) {
		return &ListBinOutput{Body: d.Tasks.Bin()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "restore-task",
		Method:      http.MethodPost,
		Path:        "/bin/restore",
		Summary:     "Restore a deleted task to the end of the active list",
		Tags:        []string{"Recycle bin"},
	}, func(ctx context.Context, input *RestoreTaskInput) (*TaskOutput, error) {
		t, err := d.Tasks.RestoreTask(ctx, input.Body)
		if err != nil {
			return nil, apiError(err, "task", "restore task")
		}
		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "purge-bin-entry",
		Method:      http.MethodDelete,
		Path:        "/bin/{id}",
		Summary:     "Erase one deleted task permanently",
		Tags:        []string{"Recycle bin"},
	}, func(ctx context.Context, input *BinEntryInput) (*struct{}, error) {
		if err := d.Tasks.PurgeFromBin(ctx, input.ID); err != nil {
			return nil, apiError(err, "recycle bin entry", "purge recycle bin entry")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "clear-bin",
		Method:      http.MethodDelete,
		Path:        "/bin",
		Summary:     "Erase every deleted task permanently",
		Tags:        []string{"Recycle bin"},
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		d.Tasks.ClearBin(ctx)
		return nil, nil
	})
}
