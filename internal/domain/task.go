package domain

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// Valid reports whether p is one of P1, P2, P3.
func (p Priority) Valid() bool {
	switch p {
	case PriorityP1, PriorityP2, PriorityP3:
		return true
	default:
		return false
	}
}

// Rank orders priorities so that a higher rank sorts first: P1=3, P2=2, P3=1.
// Unknown values rank below P3.
func (p Priority) Rank() int {
	switch p {
	case PriorityP1:
		return 3
	case PriorityP2:
		return 2
	case PriorityP3:
		return 1
	default:
		return 0
	}
}

// ParsePriority accepts "P1".."P3" case-insensitively. An empty string yields P3.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return PriorityP3, nil
	}
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q: %w", s, ErrValidation)
	}
	return p, nil
}

// Task is a root task or, when nested in Subtasks, a subtask. Subtasks never
// carry subtasks of their own.
type Task struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Priority   Priority  `json:"priority"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"created_at"`
	DueDate    string    `json:"due_date,omitempty"`
	CategoryID string    `json:"category_id,omitempty"`
	Subtasks   []Task    `json:"subtasks,omitempty"`
}

// Due returns the parsed due date, or false when the task has none or the
// stored value cannot be parsed.
func (t *Task) Due() (time.Time, bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	d, err := ParseDate(t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// IncompleteSubtasks returns the subtasks that are not completed, in stored order.
func (t *Task) IncompleteSubtasks() []Task {
	var out []Task
	for _, st := range t.Subtasks {
		if !st.Completed {
			out = append(out, st)
		}
	}
	return out
}

// Uncategorized reports whether the task has no category reference.
func (t *Task) Uncategorized() bool {
	return strings.TrimSpace(t.CategoryID) == ""
}

// ValidateShape checks the invariants a task must satisfy to live in the
// active collection: a non-empty title and nesting depth of at most one.
func (t *Task) ValidateShape() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task %q: empty title: %w", t.ID, ErrValidation)
	}
	for i := range t.Subtasks {
		if len(t.Subtasks[i].Subtasks) > 0 {
			return fmt.Errorf("task %q: subtask %q has subtasks: %w", t.ID, t.Subtasks[i].ID, ErrNestingDepth)
		}
		if strings.TrimSpace(t.Subtasks[i].Title) == "" {
			return fmt.Errorf("task %q: subtask %q: empty title: %w", t.ID, t.Subtasks[i].ID, ErrValidation)
		}
	}
	return nil
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	if t.Subtasks != nil {
		subs := make([]Task, len(t.Subtasks))
		copy(subs, t.Subtasks)
		t.Subtasks = subs
	}
	return t
}

// CloneTasks deep-copies a task slice. A nil input yields an empty slice.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}

// DateLayout is the storage format of due dates.
const DateLayout = "2006-01-02"

// ParseDate parses a due date. Plain dates are interpreted in local time;
// RFC 3339 timestamps are converted to local time and keep only their date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation(DateLayout, s, time.Local); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, ErrValidation)
	}
	ts = ts.In(time.Local)
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.Local), nil
}

// NormalizeDate validates s and returns it in DateLayout. Empty input stays empty.
func NormalizeDate(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return d.Format(DateLayout), nil
}
