// Package actions implements the user-facing task operations on top of the
// task store and the subtask generator.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GoCodeAlone/taskpad/generator"
	"github.com/GoCodeAlone/taskpad/task"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
)

const minEditTitleLen = 2

// Filter selects which tasks ListTasks returns.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter maps a user-supplied name to a Filter. Empty means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown filter %q (want all, active or completed)", ErrInvalidInput, s)
	}
}

func (f Filter) match(t task.Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Service validates input and drives the store.
type Service struct {
	store     *task.Store
	generator generator.Generator
	logger    *slog.Logger
}

// NewService wires a Service. gen may be nil, in which case GenerateSubtasks
// fails with generator.ErrGeneration.
func NewService(store *task.Store, gen generator.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, generator: gen, logger: logger}
}

// Persistent reports whether the underlying store is durable.
func (s *Service) Persistent() bool { return s.store.Persistent() }

// ListTasks returns the tasks matching f, newest first.
func (s *Service) ListTasks(ctx context.Context, f Filter) ([]task.Task, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := tasks[:0]
	for _, t := range tasks {
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetTask returns the task with id.
func (s *Service) GetTask(ctx context.Context, id string) (task.Task, error) {
	t, found, err := s.store.GetTask(ctx, id)
	if err != nil {
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}
	if !found {
		return task.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return t, nil
}

// CreateTask stores a new task. The title is required after trimming.
func (s *Service) CreateTask(ctx context.Context, title, description string) (task.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return task.Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	t, err := s.store.CreateTask(ctx, task.NewTask{
		Title:       title,
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// EditTask replaces the title and description of a task.
func (s *Service) EditTask(ctx context.Context, id, title, description string) (task.Task, error) {
	title = strings.TrimSpace(title)
	if len([]rune(title)) < minEditTitleLen {
		return task.Task{}, fmt.Errorf("%w: title must be at least %d characters", ErrInvalidInput, minEditTitleLen)
	}
	p := task.Patch{}.SetTitle(title).SetDescription(strings.TrimSpace(description))
	return s.update(ctx, id, p)
}

// ToggleTask flips the completed flag of a task. Subtasks follow.
func (s *Service) ToggleTask(ctx context.Context, id string) (task.Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return task.Task{}, err
	}
	return s.update(ctx, id, task.Patch{}.SetCompleted(!t.Completed))
}

// ToggleSubtask flips the subtask at index. The parent's completed flag is
// reconciled afterwards, so unchecking a subtask of a completed task
// reopens it.
func (s *Service) ToggleSubtask(ctx context.Context, id string, index int) (task.Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return task.Task{}, err
	}
	if index < 0 || index >= len(t.Subtasks) {
		return task.Task{}, fmt.Errorf("%w: task %s has no subtask %d", ErrSubtaskNotFound, id, index)
	}
	subtasks := t.Subtasks
	subtasks[index].Completed = !subtasks[index].Completed
	return s.update(ctx, id, task.Patch{}.SetSubtasks(subtasks))
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteTask(ctx, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return nil
}

// GenerateSubtasks replaces the subtasks of a task with freshly generated,
// incomplete ones. On failure the task is left as it was.
func (s *Service) GenerateSubtasks(ctx context.Context, id string) (task.Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return task.Task{}, err
	}
	if s.generator == nil {
		return task.Task{}, fmt.Errorf("%w: no generator configured", generator.ErrGeneration)
	}

	titles, err := s.generator.Generate(ctx, t.Title+": "+t.Description)
	if err != nil {
		if !errors.Is(err, generator.ErrGeneration) {
			err = fmt.Errorf("%w: %w", generator.ErrGeneration, err)
		}
		s.logger.Warn("generate subtasks", slog.String("task", id), slog.Any("err", err))
		return task.Task{}, err
	}

	subtasks := make([]task.Subtask, 0, len(titles))
	for _, title := range titles {
		if title = strings.TrimSpace(title); title != "" {
			subtasks = append(subtasks, task.Subtask{Text: title})
		}
	}
	if len(subtasks) == 0 {
		err := fmt.Errorf("%w: generator returned no subtasks for task %s", generator.ErrGeneration, id)
		s.logger.Warn("generate subtasks", slog.String("task", id), slog.Any("err", err))
		return task.Task{}, err
	}
	return s.update(ctx, id, task.Patch{}.SetSubtasks(subtasks))
}

func (s *Service) update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	t, found, err := s.store.UpdateTask(ctx, id, p)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}
	if !found {
		return task.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return t, nil
}
