package task

// Rule inspects a task right after an update and may ask for one corrective
// update. The Store applies the correction without consulting the rule again.
type Rule interface {
	// Correct returns the corrective patch for after, given the task as it
	// was before and the patch that produced it. ok is false when nothing
	// needs to change.
	Correct(before, after Task, applied Patch) (fix Patch, ok bool)
}

// CompletionRule keeps a task's completed flag in line with its subtasks.
//
// A change that touched the subtask list reconciles the parent: completed
// becomes "every subtask is done". A change that flipped the parent's flag
// cascades down: every subtask takes the parent's new value. Setting the flag
// to the value it already had leaves subtasks alone, as do tasks without
// subtasks.
type CompletionRule struct{}

func (CompletionRule) Correct(before, after Task, applied Patch) (Patch, bool) {
	if len(after.Subtasks) == 0 {
		return Patch{}, false
	}

	switch {
	case applied.Subtasks != nil:
		return Reconcile(after)
	case applied.Completed != nil && before.Completed != after.Completed:
		return Cascade(after)
	default:
		return Patch{}, false
	}
}

// Reconcile returns the patch that sets t.Completed to match its subtasks.
func Reconcile(t Task) (Patch, bool) {
	if len(t.Subtasks) == 0 {
		return Patch{}, false
	}
	all := t.AllSubtasksCompleted()
	if t.Completed == all {
		return Patch{}, false
	}
	return Patch{}.SetCompleted(all), true
}

// Cascade returns the patch that sets every subtask to t.Completed.
func Cascade(t Task) (Patch, bool) {
	changed := false
	subtasks := cloneSubtasks(t.Subtasks)
	for i := range subtasks {
		if subtasks[i].Completed != t.Completed {
			subtasks[i].Completed = t.Completed
			changed = true
		}
	}
	if !changed {
		return Patch{}, false
	}
	return Patch{Subtasks: &subtasks}, true
}

// NoRule disables completion syncing; the completed flag is fully manual.
type NoRule struct{}

func (NoRule) Correct(Task, Task, Patch) (Patch, bool) { return Patch{}, false }
