// Package task defines the task model, its persistence backends and the store
// that owns every mutation of the task collection.
package task

import "time"

// Subtask is a checklist item owned by its parent task. It has no identity
// beyond its position in the parent's list.
type Subtask struct {
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Task is a user-created unit of work.
type Task struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Completed   bool      `json:"completed" yaml:"completed"`
	Subtasks    []Subtask `json:"subtasks" yaml:"subtasks"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}

// NewTask holds the caller-supplied fields of a task being created.
type NewTask struct {
	Title       string
	Description string
}

// Patch is a partial update. Nil fields are left untouched; a non-nil
// Subtasks replaces the whole list.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
	Subtasks    *[]Subtask
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil && p.Subtasks == nil
}

// SetTitle returns a copy of p that overwrites the title.
func (p Patch) SetTitle(title string) Patch {
	p.Title = &title
	return p
}

// SetDescription returns a copy of p that overwrites the description.
func (p Patch) SetDescription(description string) Patch {
	p.Description = &description
	return p
}

// SetCompleted returns a copy of p that overwrites the completed flag.
func (p Patch) SetCompleted(completed bool) Patch {
	p.Completed = &completed
	return p
}

// SetSubtasks returns a copy of p that replaces the subtask list.
func (p Patch) SetSubtasks(subtasks []Subtask) Patch {
	list := cloneSubtasks(subtasks)
	p.Subtasks = &list
	return p
}

// apply merges p onto t in place.
func (p Patch) apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Subtasks != nil {
		t.Subtasks = cloneSubtasks(*p.Subtasks)
	}
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	t.Subtasks = cloneSubtasks(t.Subtasks)
	return t
}

// Progress returns the number of completed subtasks and the total.
func (t Task) Progress() (done, total int) {
	for _, s := range t.Subtasks {
		if s.Completed {
			done++
		}
	}
	return done, len(t.Subtasks)
}

// AllSubtasksCompleted reports whether t has subtasks and every one is done.
func (t Task) AllSubtasksCompleted() bool {
	done, total := t.Progress()
	return total > 0 && done == total
}

func cloneSubtasks(in []Subtask) []Subtask {
	out := make([]Subtask, len(in))
	copy(out, in)
	return out
}

func cloneTasks(in []Task) []Task {
	out := make([]Task, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}
