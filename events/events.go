// Package events provides the in-process change feed the task store publishes to.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what happened to a task.
type Kind string

const (
	KindCreated    Kind = "task.created"
	KindUpdated    Kind = "task.updated"
	KindReconciled Kind = "task.reconciled" // completion rule applied a correction
	KindDeleted    Kind = "task.deleted"
)

// Event describes one change to the task collection.
type Event struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	TaskID    string            `json:"task_id"`
	Detail    map[string]string `json:"detail,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// New returns an event with a fresh id and the current time.
func New(kind Kind, taskID string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		TaskID:    taskID,
		Timestamp: time.Now().UTC(),
	}
}

// With returns e with the detail key set.
func (e *Event) With(key, value string) *Event {
	if e.Detail == nil {
		e.Detail = make(map[string]string)
	}
	e.Detail[key] = value
	return e
}

// Handler processes a published event.
type Handler func(ctx context.Context, evt *Event) error

// Publisher is the write side of the feed.
type Publisher interface {
	Publish(ctx context.Context, evt *Event) error
}

// Bus is the change feed. Subscribers register for one task id, or for every
// task with AllTasks.
type Bus interface {
	Publisher

	// Subscribe registers a handler for events about taskID.
	// Returns an unsubscribe function.
	Subscribe(taskID string, handler Handler) (unsubscribe func())

	// History returns recent events for taskID, oldest first.
	History(taskID string, limit int) ([]*Event, error)
}

// AllTasks subscribes to, or queries history for, every task.
const AllTasks = ""
