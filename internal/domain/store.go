package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Collection names the four persisted collections.
type Collection string

const (
	CollectionTasks        Collection = "tasks"
	CollectionDeletedTasks Collection = "deleted_tasks"
	CollectionCategories   Collection = "categories"
	CollectionRewards      Collection = "rewards"
)

// Collections lists every persisted collection.
var Collections = []Collection{
	CollectionTasks,
	CollectionDeletedTasks,
	CollectionCategories,
	CollectionRewards,
}

// Key returns the storage key of c under prefix.
func (c Collection) Key(prefix string) string {
	return prefix + string(c)
}

// KVStore is the opaque get/set leaf under the persistence gateway.
// Get returns ErrNotFound for a key that was never written.
// Each Set replaces the whole value; the last write wins.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// EventPublisher fans out change notifications to the presentation layer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, channel string, ev Event) error
}

// EventSubscriber is the receiving side of EventPublisher. Each message is the
// EncodeEvent form of one event.
type EventSubscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

type EventType string

const (
	EventTaskAdded       EventType = "task.added"
	EventTaskUpdated     EventType = "task.updated"
	EventTaskToggled     EventType = "task.toggled"
	EventTaskDeleted     EventType = "task.deleted"
	EventTaskRestored    EventType = "task.restored"
	EventSubtaskAdded    EventType = "subtask.added"
	EventSubtaskToggled  EventType = "subtask.toggled"
	EventSubtaskDeleted  EventType = "subtask.deleted"
	EventBinPurged       EventType = "bin.purged"
	EventBinCleared      EventType = "bin.cleared"
	EventRewardTriggered EventType = "reward.triggered"
)

type Event struct {
	Type   EventType     `json:"type"`
	TaskID string        `json:"task_id,omitempty"`
	Reward *RewardResult `json:"reward,omitempty"`
	At     time.Time     `json:"at"`
}

// EventsChannel returns the pub/sub channel carrying change events under prefix.
func EventsChannel(prefix string) string {
	return prefix + "events"
}

// EncodeEvent renders ev in its wire form.
func EncodeEvent(ev Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("domain.EncodeEvent %q: %w", ev.Type, err)
	}
	return b, nil
}

// DecodeEvent parses a message produced by EncodeEvent. A payload without an
// event type is rejected.
func DecodeEvent(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, fmt.Errorf("domain.DecodeEvent: %w: %w", ErrValidation, err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("domain.DecodeEvent: missing type: %w", ErrValidation)
	}
	return ev, nil
}
