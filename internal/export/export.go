// Package export flattens tasks into spreadsheet rows and writes them as XLSX
// or CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"

	"github.com/gosuda/dopalist/internal/domain"
)

type Column string

const (
	ColumnTitle     Column = "title"
	ColumnSubtasks  Column = "subtasks"
	ColumnPriority  Column = "priority"
	ColumnStatus    Column = "status"
	ColumnDueDate   Column = "dueDate"
	ColumnCreatedAt Column = "createdAt"
)

// AllColumns is the default column set in its default order.
var AllColumns = []Column{ColumnTitle, ColumnSubtasks, ColumnPriority, ColumnStatus, ColumnDueDate, ColumnCreatedAt}

const (
	SheetName   = "DopaList"
	placeholder = "-"
)

var widths = map[Column]float64{
	ColumnTitle:     30,
	ColumnSubtasks:  30,
	ColumnPriority:  10,
	ColumnStatus:    10,
	ColumnDueDate:   15,
	ColumnCreatedAt: 15,
}

// ParseColumns validates caller-supplied column keys and keeps their order.
// No keys selects AllColumns.
func ParseColumns(keys []string) ([]Column, error) {
	var cols []Column
	seen := make(map[Column]bool, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		c := Column(k)
		if _, ok := widths[c]; !ok {
			return nil, fmt.Errorf("export: unknown column %q: %w", k, domain.ErrValidation)
		}
		if seen[c] {
			return nil, fmt.Errorf("export: duplicate column %q: %w", k, domain.ErrValidation)
		}
		seen[c] = true
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		return append([]Column(nil), AllColumns...), nil
	}
	return cols, nil
}

type labels struct {
	headers    map[Column]string
	completed  string
	inProgress string
	dateLayout string
}

var (
	english = labels{
		headers: map[Column]string{
			ColumnTitle:     "Title",
			ColumnSubtasks:  "Subtask",
			ColumnPriority:  "Priority",
			ColumnStatus:    "Status",
			ColumnDueDate:   "Due date",
			ColumnCreatedAt: "Created",
		},
		completed:  "Completed",
		inProgress: "In progress",
		dateLayout: domain.DateLayout,
	}
	chinese = labels{
		headers: map[Column]string{
			ColumnTitle:     "任务标题",
			ColumnSubtasks:  "子任务",
			ColumnPriority:  "优先级",
			ColumnStatus:    "状态",
			ColumnDueDate:   "截止日期",
			ColumnCreatedAt: "创建日期",
		},
		completed:  "已完成",
		inProgress: "进行中",
		dateLayout: "2006/1/2",
	}
)

// Exporter renders rows with locale-specific headers, status words and dates.
type Exporter struct {
	labels labels
}

func New(locale language.Tag) *Exporter {
	if base, _ := locale.Base(); base.String() == "zh" {
		return &Exporter{labels: chinese}
	}
	return &Exporter{labels: english}
}

func (e *Exporter) Header(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = e.labels.headers[c]
	}
	return out
}

// Rows emits one row per subtask for tasks that have subtasks, repeating the
// parent title, and exactly one row for tasks without subtasks.
func (e *Exporter) Rows(tasks []domain.Task, cols []Column) [][]string {
	var rows [][]string
	for i := range tasks {
		t := &tasks[i]
		if len(t.Subtasks) == 0 {
			rows = append(rows, e.row(t, t, cols, false))
			continue
		}
		for j := range t.Subtasks {
			rows = append(rows, e.row(t, &t.Subtasks[j], cols, true))
		}
	}
	return rows
}

func (e *Exporter) row(parent, leaf *domain.Task, cols []Column, isSubtask bool) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		switch c {
		case ColumnTitle:
			out[i] = parent.Title
		case ColumnSubtasks:
			out[i] = placeholder
			if isSubtask {
				out[i] = leaf.Title
			}
		case ColumnPriority:
			out[i] = string(leaf.Priority)
		case ColumnStatus:
			out[i] = e.labels.inProgress
			if leaf.Completed {
				out[i] = e.labels.completed
			}
		case ColumnDueDate:
			out[i] = placeholder
			if d, ok := leaf.Due(); ok {
				out[i] = d.Format(e.labels.dateLayout)
			}
		case ColumnCreatedAt:
			out[i] = placeholder
			if !leaf.CreatedAt.IsZero() {
				out[i] = leaf.CreatedAt.In(time.Local).Format(e.labels.dateLayout)
			}
		}
	}
	return out
}

// WriteCSV writes the header and rows as CSV.
func (e *Exporter) WriteCSV(w io.Writer, tasks []domain.Task, cols []Column) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(e.Header(cols)); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	if err := cw.WriteAll(e.Rows(tasks, cols)); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook with a bold header row and fixed
// column widths.
func (e *Exporter) WriteXLSX(w io.Writer, tasks []domain.Task, cols []Column) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}

	header := e.Header(cols)
	if err := setRow(f, 1, header); err != nil {
		return fmt.Errorf("export.WriteXLSX: header: %w", err)
	}
	for i, row := range e.Rows(tasks, cols) {
		if err := setRow(f, i+2, row); err != nil {
			return fmt.Errorf("export.WriteXLSX: row %d: %w", i+1, err)
		}
	}

	if len(cols) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("export.WriteXLSX: style: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(len(cols), 1)
		if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
			return fmt.Errorf("export.WriteXLSX: style: %w", err)
		}
	}

	for i, c := range cols {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("export.WriteXLSX: %w", err)
		}
		if err := f.SetColWidth(SheetName, name, name, widths[c]); err != nil {
			return fmt.Errorf("export.WriteXLSX: width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(SheetName, cell, &cells)
}

// FileName is the download name for an export produced on day.
func FileName(day time.Time, ext string) string {
	return fmt.Sprintf("DopaList_tasks_%s.%s", day.Format(domain.DateLayout), ext)
}
