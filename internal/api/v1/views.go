package v1

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/dopalist/internal/export"
	"github.com/gosuda/dopalist/internal/view"
)

type StatsOutput struct {
	Body view.Stats
}

type DueInput struct {
	Date string `query:"date" required:"true" doc:"Due date, YYYY-MM-DD"`
}

type DueOutput struct {
	Body view.Due
}

type ExportInput struct {
	Columns  []string `query:"columns" doc:"Ordered column keys: title, subtasks, priority, status, dueDate, createdAt"`
	Format   string   `query:"format" enum:"xlsx,csv" default:"xlsx" doc:"File format"`
	Status   string   `query:"status" enum:"all,active,completed" default:"all" doc:"Status filter"`
	Category string   `query:"category" default:"all" doc:"Category filter"`
}

type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func RegisterViewRoutes(api huma.API, d Deps) {
	huma.Register(api, huma.Operation{
		OperationID: "task-stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Count total, active and completed root tasks",
		Tags:        []string{"Views"},
	}, func(_ context.Context, _ *struct{}) (*StatsOutput, error) {
		return &StatsOutput{Body: view.StatsOf(d.Tasks.Tasks())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "describe-due-date",
		Method:      http.MethodGet,
		Path:        "/due",
		Summary:     "Derive the status and display text of a due date",
		Tags:        []string{"Views"},
	}, func(_ context.Context, input *DueInput) (*DueOutput, error) {
		due, err := d.Formatter.Describe(input.Date, d.now())
		if err != nil {
			return nil, huma.Error400BadRequest("invalid date", err)
		}
		return &DueOutput{Body: due}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-tasks",
		Method:      http.MethodGet,
		Path:        "/export",
		Summary:     "Export tasks as a spreadsheet, one row per subtask",
		Tags:        []string{"Views"},
	}, func(_ context.Context, input *ExportInput) (*ExportOutput, error) {
		cols, err := export.ParseColumns(input.Columns)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid columns", err)
		}
		status, err := view.ParseStatusFilter(input.Status)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid status filter", err)
		}

		grouped := view.Build(d.Tasks.Tasks(), status, input.Category)
		tasks := append(grouped.Active, grouped.Completed...)

		var buf bytes.Buffer
		out := &ExportOutput{}
		switch input.Format {
		case "csv":
			err = d.Exporter.WriteCSV(&buf, tasks, cols)
			out.ContentType = "text/csv; charset=utf-8"
		default:
			err = d.Exporter.WriteXLSX(&buf, tasks, cols)
			out.ContentType = xlsxContentType
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to export tasks", err)
		}

		ext := input.Format
		if ext == "" {
			ext = "xlsx"
		}
		out.ContentDisposition = fmt.Sprintf("attachment; filename=%q", export.FileName(d.now(), ext))
		out.Body = buf.Bytes()
		return out, nil
	})
}
