// Package generator turns a free-text task description into a list of
// subtask titles.
package generator

import (
	"context"
	"errors"
)

// ErrGeneration wraps every failure to produce subtasks: transport errors,
// unparseable model output and empty results alike.
var ErrGeneration = errors.New("failed to generate subtasks")

// Generator produces subtask titles for a task description.
type Generator interface {
	Generate(ctx context.Context, taskDescription string) ([]string, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, taskDescription string) ([]string, error)

func (f Func) Generate(ctx context.Context, taskDescription string) ([]string, error) {
	return f(ctx, taskDescription)
}
