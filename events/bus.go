package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const defaultHistory = 1000

// InMemoryBus is a thread-safe in-process event bus.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]handlerEntry // taskID -> handlers
	history  []*Event
	maxHist  int
	nextID   int
}

type handlerEntry struct {
	id      int
	handler Handler
}

// NewInMemoryBus creates an InMemoryBus with a 1000-event history cap.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]handlerEntry),
		maxHist:  defaultHistory,
	}
}

// Publish records evt and delivers it to the subscribers of its task and to
// AllTasks subscribers. Handlers run synchronously outside the lock.
func (b *InMemoryBus) Publish(ctx context.Context, evt *Event) error {
	b.mu.Lock()
	b.history = append(b.history, evt)
	if len(b.history) > b.maxHist {
		b.history = b.history[len(b.history)-b.maxHist:]
	}

	var targets []Handler
	for _, e := range b.handlers[evt.TaskID] {
		targets = append(targets, e.handler)
	}
	if evt.TaskID != AllTasks {
		for _, e := range b.handlers[AllTasks] {
			targets = append(targets, e.handler)
		}
	}
	b.mu.Unlock()

	var errs []error
	for _, h := range targets {
		if err := h(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("publish %s: %d handler error(s): %w", evt.Kind, len(errs), errors.Join(errs...))
	}
	return nil
}

// Subscribe registers a handler for events about taskID.
// The returned function unsubscribes the handler.
func (b *InMemoryBus) Subscribe(taskID string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[taskID] = append(b.handlers[taskID], handlerEntry{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		entries := b.handlers[taskID]
		filtered := entries[:0]
		for _, e := range entries {
			if e.id != id {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(b.handlers, taskID)
		} else {
			b.handlers[taskID] = filtered
		}
	}
}

// History returns the most recent limit events about taskID, or about every
// task for AllTasks. A non-positive limit returns everything retained.
func (b *InMemoryBus) History(taskID string, limit int) ([]*Event, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []*Event
	for i := len(b.history) - 1; i >= 0; i-- {
		e := b.history[i]
		if taskID == AllTasks || e.TaskID == taskID {
			result = append(result, e)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	// Reverse to chronological order
	for l, r := 0, len(result)-1; l < r; l, r = l+1, r-1 {
		result[l], result[r] = result[r], result[l]
	}
	return result, nil
}
