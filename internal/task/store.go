// Package task holds the Task Store: the authoritative in-memory list of root
// tasks, their one level of subtasks, and the recycle bin.
//
// Every mutation copies the current snapshot, applies the change, swaps the
// copy in and writes the touched collections through the gateway. A failed
// write is logged and the in-memory state stays authoritative.
package task

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/dopalist/internal/domain"
)

// Gateway is the slice of the persistence gateway the store needs.
// *persist.Gateway satisfies it.
type Gateway interface {
	Tasks(ctx context.Context) ([]domain.Task, error)
	SaveTasks(ctx context.Context, tasks []domain.Task) error
	DeletedTasks(ctx context.Context) ([]domain.Task, error)
	SaveDeletedTasks(ctx context.Context, tasks []domain.Task) error
}

// RewardTrigger draws a reward for a completed task.
// *reward.Catalog satisfies it.
type RewardTrigger interface {
	Trigger(ctx context.Context) domain.RewardResult
}

type Store struct {
	mu    sync.Mutex
	gw    Gateway
	tasks []domain.Task
	bin   []domain.Task

	rewards RewardTrigger
	events  domain.EventPublisher
	channel string

	now   func() time.Time
	newID func() string
}

type Option func(*Store)

// WithRewards enables a reward draw whenever a root task becomes completed.
func WithRewards(r RewardTrigger) Option {
	return func(s *Store) { s.rewards = r }
}

// WithEvents publishes a domain.Event on channel after every mutation.
func WithEvents(pub domain.EventPublisher, channel string) Option {
	return func(s *Store) {
		s.events = pub
		s.channel = channel
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUIDv7 id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New loads the active list and the recycle bin once. Read failures are
// logged and the affected collection starts empty.
func New(ctx context.Context, gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:    gw,
		now:   time.Now,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	tasks, err := gw.Tasks(ctx)
	if err != nil {
		log.Error().Err(err).Str("collection", string(domain.CollectionTasks)).Msg("load tasks")
		tasks = []domain.Task{}
	}
	bin, err := gw.DeletedTasks(ctx)
	if err != nil {
		log.Error().Err(err).Str("collection", string(domain.CollectionDeletedTasks)).Msg("load recycle bin")
		bin = []domain.Task{}
	}
	s.tasks = tasks
	s.bin = bin

	return s
}

// NewTask carries the fields of a task or subtask being created.
// CategoryID is ignored for subtasks, which inherit the parent's.
type NewTask struct {
	Title      string
	Priority   domain.Priority
	DueDate    string
	CategoryID string
}

func (s *Store) build(in NewTask) (domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Task{}, fmt.Errorf("empty title: %w", domain.ErrValidation)
	}
	prio, err := domain.ParsePriority(string(in.Priority))
	if err != nil {
		return domain.Task{}, err
	}
	due, err := domain.NormalizeDate(in.DueDate)
	if err != nil {
		return domain.Task{}, err
	}
	return domain.Task{
		ID:         s.newID(),
		Title:      title,
		Priority:   prio,
		CreatedAt:  s.now(),
		DueDate:    due,
		CategoryID: strings.TrimSpace(in.CategoryID),
	}, nil
}

// AddTask creates a root task and prepends it to the active list.
func (s *Store) AddTask(ctx context.Context, in NewTask) (domain.Task, error) {
	t, err := s.build(in)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task.Store.AddTask: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Task, 0, len(s.tasks)+1)
	next = append(next, t)
	next = append(next, domain.CloneTasks(s.tasks)...)
	s.commitTasks(ctx, next)
	s.publish(ctx, domain.EventTaskAdded, t.ID, nil)

	return t.Clone(), nil
}

// AddSubtask appends a subtask to the root task parentID. The subtask's
// category is copied from the parent and is not kept in sync afterwards.
func (s *Store) AddSubtask(ctx context.Context, parentID string, in NewTask) (domain.Task, error) {
	st, err := s.build(in)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task.Store.AddSubtask: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pi := s.rootIndex(parentID)
	if pi < 0 {
		if _, si := s.subtaskIndex(parentID); si >= 0 {
			return domain.Task{}, fmt.Errorf("task.Store.AddSubtask %q: parent is a subtask: %w", parentID, domain.ErrNestingDepth)
		}
		return domain.Task{}, fmt.Errorf("task.Store.AddSubtask %q: %w", parentID, domain.ErrNotFound)
	}

	next := domain.CloneTasks(s.tasks)
	parent := &next[pi]
	st.CategoryID = parent.CategoryID
	parent.Subtasks = append(parent.Subtasks, st)
	s.commitTasks(ctx, next)
	s.publish(ctx, domain.EventSubtaskAdded, parentID, nil)

	return st, nil
}

// ToggleResult is the outcome of flipping a root task. Reward is set only
// when the task went from incomplete to complete and a reward source is
// configured.
type ToggleResult struct {
	Completed bool                 `json:"completed"`
	Reward    *domain.RewardResult `json:"reward,omitempty"`
}

// ToggleTask flips a root task's completed flag without the completion gate.
func (s *Store) ToggleTask(ctx context.Context, id string) (ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.rootIndex(id)
	if i < 0 {
		return ToggleResult{}, fmt.Errorf("task.Store.ToggleTask %q: %w", id, domain.ErrNotFound)
	}

	return s.setCompleted(ctx, i, !s.tasks[i].Completed), nil
}

// ToggleSubtask flips a subtask's completed flag. No reward is drawn.
func (s *Store) ToggleSubtask(ctx context.Context, parentID, subtaskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pi := s.rootIndex(parentID)
	if pi < 0 {
		return false, fmt.Errorf("task.Store.ToggleSubtask parent %q: %w", parentID, domain.ErrNotFound)
	}
	si := indexOf(s.tasks[pi].Subtasks, subtaskID)
	if si < 0 {
		return false, fmt.Errorf("task.Store.ToggleSubtask %q: %w", subtaskID, domain.ErrNotFound)
	}

	next := domain.CloneTasks(s.tasks)
	st := &next[pi].Subtasks[si]
	st.Completed = !st.Completed
	s.commitTasks(ctx, next)
	s.publish(ctx, domain.EventSubtaskToggled, subtaskID, nil)

	return st.Completed, nil
}

// GateResult is the outcome of CompleteWithGate. When Allowed is false the
// task was not changed and BlockingSubtasks lists its incomplete subtasks.
type GateResult struct {
	Allowed          bool                 `json:"allowed"`
	BlockingSubtasks []domain.Task        `json:"blocking_subtasks,omitempty"`
	Completed        bool                 `json:"completed"`
	Reward           *domain.RewardResult `json:"reward,omitempty"`
}

// CompleteWithGate toggles a root task, asking for confirmation before it
// completes a task that still has incomplete subtasks. Un-completing never
// gates. Incomplete subtasks are left as they are on a confirmed completion.
func (s *Store) CompleteWithGate(ctx context.Context, id string, confirmed bool) (GateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.rootIndex(id)
	if i < 0 {
		return GateResult{}, fmt.Errorf("task.Store.CompleteWithGate %q: %w", id, domain.ErrNotFound)
	}

	t := &s.tasks[i]
	if !t.Completed && !confirmed {
		if blocking := t.IncompleteSubtasks(); len(blocking) > 0 {
			return GateResult{Allowed: false, BlockingSubtasks: blocking, Completed: false}, nil
		}
	}

	res := s.setCompleted(ctx, i, !t.Completed)
	return GateResult{Allowed: true, Completed: res.Completed, Reward: res.Reward}, nil
}

// setCompleted writes the new flag of root task i. Caller holds s.mu.
func (s *Store) setCompleted(ctx context.Context, i int, completed bool) ToggleResult {
	next := domain.CloneTasks(s.tasks)
	next[i].Completed = completed
	id := next[i].ID
	s.commitTasks(ctx, next)
	s.publish(ctx, domain.EventTaskToggled, id, nil)

	res := ToggleResult{Completed: completed}
	if completed && s.rewards != nil {
		r := s.rewards.Trigger(ctx)
		res.Reward = &r
		log.Debug().Str("task_id", id).Str("reward", string(r.Type)).Msg("task completed")
		s.publish(ctx, domain.EventRewardTriggered, id, &r)
	}
	return res
}

// Patch is a partial edit. Nil fields are left unchanged; an empty DueDate or
// CategoryID clears the value.
type Patch struct {
	Title      *string
	Priority   *domain.Priority
	DueDate    *string
	CategoryID *string
}

// EditTask applies p to the root task or subtask with id.
func (s *Store) EditTask(ctx context.Context, id string, p Patch) (domain.Task, error) {
	var title, due string
	var prio domain.Priority
	if p.Title != nil {
		title = strings.TrimSpace(*p.Title)
		if title == "" {
			return domain.Task{}, fmt.Errorf("task.Store.EditTask %q: empty title: %w", id, domain.ErrValidation)
		}
	}
	if p.Priority != nil {
		var err error
		if prio, err = domain.ParsePriority(string(*p.Priority)); err != nil {
			return domain.Task{}, fmt.Errorf("task.Store.EditTask %q: %w", id, err)
		}
	}
	if p.DueDate != nil {
		var err error
		if due, err = domain.NormalizeDate(*p.DueDate); err != nil {
			return domain.Task{}, fmt.Errorf("task.Store.EditTask %q: %w", id, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := domain.CloneTasks(s.tasks)
	var target *domain.Task
	if i := s.rootIndex(id); i >= 0 {
		target = &next[i]
	} else if pi, si := s.subtaskIndex(id); si >= 0 {
		target = &next[pi].Subtasks[si]
	} else {
		return domain.Task{}, fmt.Errorf("task.Store.EditTask %q: %w", id, domain.ErrNotFound)
	}

	if p.Title != nil {
		target.Title = title
	}
	if p.Priority != nil {
		target.Priority = prio
	}
	if p.DueDate != nil {
		target.DueDate = due
	}
	if p.CategoryID != nil {
		target.CategoryID = strings.TrimSpace(*p.CategoryID)
	}
	out := target.Clone()
	s.commitTasks(ctx, next)
	s.publish(ctx, domain.EventTaskUpdated, id, nil)

	return out, nil
}

// DeleteTask moves a root task, subtasks included, to the recycle bin.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.rootIndex(id)
	if i < 0 {
		return fmt.Errorf("task.Store.DeleteTask %q: %w", id, domain.ErrNotFound)
	}

	removed := s.tasks[i].Clone()
	next := make([]domain.Task, 0, len(s.tasks)-1)
	next = append(next, domain.CloneTasks(s.tasks[:i])...)
	next = append(next, domain.CloneTasks(s.tasks[i+1:])...)
	bin := append(domain.CloneTasks(s.bin), removed)

	s.commitTasks(ctx, next)
	s.commitBin(ctx, bin)
	s.publish(ctx, domain.EventTaskDeleted, id, nil)

	return nil
}

// DeleteSubtask removes a subtask permanently. Subtasks never enter the
// recycle bin.
func (s *Store) DeleteSubtask(ctx context.Context, parentID, subtaskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pi := s.rootIndex(parentID)
	if pi < 0 {
		return fmt.Errorf("task.Store.DeleteSubtask parent %q: %w", parentID, domain.ErrNotFound)
	}
	si := indexOf(s.tasks[pi].Subtasks, subtaskID)
	if si < 0 {
		return fmt.Errorf("task.Store.DeleteSubtask %q: %w", subtaskID, domain.ErrNotFound)
	}

	next := domain.CloneTasks(s.tasks)
	subs := next[pi].Subtasks
	next[pi].Subtasks = append(subs[:si:si], subs[si+1:]...)
	if len(next[pi].Subtasks) == 0 {
		next[pi].Subtasks = nil
	}
	s.commitTasks(ctx, next)
	s.publish(ctx, domain.EventSubtaskDeleted, subtaskID, nil)

	return nil
}

// RestoreTask appends a previously deleted task to the end of the active list
// and drops its recycle bin entry. The full entity is required. It is rejected
// when any of its ids, subtasks included, repeats or is already active, or
// when a priority is unknown.
func (s *Store) RestoreTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	if strings.TrimSpace(t.ID) == "" {
		return domain.Task{}, fmt.Errorf("task.Store.RestoreTask: missing id: %w", domain.ErrValidation)
	}
	if err := t.ValidateShape(); err != nil {
		return domain.Task{}, fmt.Errorf("task.Store.RestoreTask: %w", err)
	}

	restored := t.Clone()
	if err := normalizePriorities(&restored); err != nil {
		return domain.Task{}, fmt.Errorf("task.Store.RestoreTask %q: %w", t.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIDs(&restored); err != nil {
		return domain.Task{}, fmt.Errorf("task.Store.RestoreTask: %w", err)
	}

	next := append(domain.CloneTasks(s.tasks), restored)
	s.commitTasks(ctx, next)

	if bi := indexOf(s.bin, t.ID); bi >= 0 {
		bin := make([]domain.Task, 0, len(s.bin)-1)
		bin = append(bin, domain.CloneTasks(s.bin[:bi])...)
		bin = append(bin, domain.CloneTasks(s.bin[bi+1:])...)
		s.commitBin(ctx, bin)
	}
	s.publish(ctx, domain.EventTaskRestored, t.ID, nil)

	return restored.Clone(), nil
}

// PurgeFromBin erases one recycle bin entry.
func (s *Store) PurgeFromBin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bi := indexOf(s.bin, id)
	if bi < 0 {
		return fmt.Errorf("task.Store.PurgeFromBin %q: %w", id, domain.ErrNotFound)
	}

	bin := make([]domain.Task, 0, len(s.bin)-1)
	bin = append(bin, domain.CloneTasks(s.bin[:bi])...)
	bin = append(bin, domain.CloneTasks(s.bin[bi+1:])...)
	s.commitBin(ctx, bin)
	s.publish(ctx, domain.EventBinPurged, id, nil)

	return nil
}

// ClearBin erases every recycle bin entry.
func (s *Store) ClearBin(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commitBin(ctx, []domain.Task{})
	s.publish(ctx, domain.EventBinCleared, "", nil)
}

// Tasks returns a deep copy of the active root tasks in stored order.
func (s *Store) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.CloneTasks(s.tasks)
}

// Bin returns a deep copy of the recycle bin in stored order.
func (s *Store) Bin() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.CloneTasks(s.bin)
}

// Get finds an active root task or subtask by id.
func (s *Store) Get(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.rootIndex(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	if pi, si := s.subtaskIndex(id); si >= 0 {
		return s.tasks[pi].Subtasks[si].Clone(), true
	}
	return domain.Task{}, false
}

// checkIDs rejects t when an id of t or its subtasks is blank, repeats within
// t, or already belongs to an active task or subtask. Caller holds s.mu.
func (s *Store) checkIDs(t *domain.Task) error {
	seen := make(map[string]bool)
	for i := range s.tasks {
		seen[s.tasks[i].ID] = true
		for j := range s.tasks[i].Subtasks {
			seen[s.tasks[i].Subtasks[j].ID] = true
		}
	}

	ids := make([]string, 0, len(t.Subtasks)+1)
	ids = append(ids, t.ID)
	for i := range t.Subtasks {
		ids = append(ids, t.Subtasks[i].ID)
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("task %q: subtask without id: %w", t.ID, domain.ErrValidation)
		}
		if seen[id] {
			return fmt.Errorf("id %q already in use: %w", id, domain.ErrValidation)
		}
		seen[id] = true
	}
	return nil
}

// normalizePriorities parses the priority of t and of every subtask in place.
func normalizePriorities(t *domain.Task) error {
	p, err := domain.ParsePriority(string(t.Priority))
	if err != nil {
		return err
	}
	t.Priority = p
	for i := range t.Subtasks {
		sp, err := domain.ParsePriority(string(t.Subtasks[i].Priority))
		if err != nil {
			return fmt.Errorf("subtask %q: %w", t.Subtasks[i].ID, err)
		}
		t.Subtasks[i].Priority = sp
	}
	return nil
}

func (s *Store) rootIndex(id string) int {
	return indexOf(s.tasks, id)
}

// subtaskIndex locates a subtask by id across all root tasks.
func (s *Store) subtaskIndex(id string) (parent, sub int) {
	for i := range s.tasks {
		if j := indexOf(s.tasks[i].Subtasks, id); j >= 0 {
			return i, j
		}
	}
	return -1, -1
}

func indexOf(tasks []domain.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// commitTasks swaps in the active list and writes it through. Caller holds s.mu.
func (s *Store) commitTasks(ctx context.Context, next []domain.Task) {
	s.tasks = next
	if err := s.gw.SaveTasks(ctx, next); err != nil {
		log.Error().Err(err).Str("collection", string(domain.CollectionTasks)).Msg("persist tasks")
	}
}

// commitBin swaps in the recycle bin and writes it through. Caller holds s.mu.
func (s *Store) commitBin(ctx context.Context, next []domain.Task) {
	s.bin = next
	if err := s.gw.SaveDeletedTasks(ctx, next); err != nil {
		log.Error().Err(err).Str("collection", string(domain.CollectionDeletedTasks)).Msg("persist recycle bin")
	}
}

func (s *Store) publish(ctx context.Context, typ domain.EventType, taskID string, r *domain.RewardResult) {
	if s.events == nil {
		return
	}
	ev := domain.Event{Type: typ, TaskID: taskID, Reward: r, At: s.now()}
	if err := s.events.PublishEvent(ctx, s.channel, ev); err != nil {
		log.Warn().Err(err).Str("event", string(typ)).Str("task_id", taskID).Msg("publish event")
	}
}
