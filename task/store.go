package task

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/GoCodeAlone/taskpad/events"
)

// DefaultLatency is the simulated I/O delay per store call used by the CLI.
const DefaultLatency = 50 * time.Millisecond

// Options configures a Store. The zero value is usable.
type Options struct {
	// Latency is waited before every operation to mimic storage I/O.
	Latency time.Duration
	// Now stamps CreatedAt. Defaults to time.Now.
	Now func() time.Time
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Bus receives change events when set.
	Bus events.Publisher
	// Rule is consulted after every update. Defaults to CompletionRule.
	Rule Rule
}

// Store is the only mutator of the task collection. Every operation reads the
// full snapshot from the backend, applies its change and writes it back.
//
// When the backend fails the store logs a warning and carries on with an
// in-memory copy of the last known state; Persistent then reports false.
type Store struct {
	mu      sync.Mutex
	backend Backend
	last    Snapshot

	latency time.Duration
	now     func() time.Time
	logger  *slog.Logger
	bus     events.Publisher
	rule    Rule
}

// NewStore returns a store over backend. A nil backend means memory-only.
func NewStore(ctx context.Context, backend Backend, opts Options) *Store {
	s := &Store{
		backend: backend,
		last:    emptySnapshot(),
		latency: opts.Latency,
		now:     opts.Now,
		logger:  opts.Logger,
		bus:     opts.Bus,
		rule:    opts.Rule,
	}
	if s.backend == nil {
		s.backend = NewMemoryBackend()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.rule == nil {
		s.rule = CompletionRule{}
	}

	// Probe once so an unusable storage area degrades up front. A canceled
	// ctx leaves the backend as it is.
	s.mu.Lock()
	_, _ = s.load(ctx)
	s.mu.Unlock()
	return s
}

// Persistent reports whether changes currently outlive the process.
func (s *Store) Persistent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Persistent()
}

// ListTasks returns every task, newest first. Tasks with equal CreatedAt keep
// insertion order.
func (s *Store) ListTasks(ctx context.Context) ([]Task, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	tasks := cloneTasks(snap.Tasks)
	slices.SortStableFunc(tasks, func(a, b Task) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return tasks, nil
}

// GetTask returns the task with id, if any.
func (s *Store) GetTask(ctx context.Context, id string) (Task, bool, error) {
	if err := s.wait(ctx); err != nil {
		return Task{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return Task{}, false, err
	}
	i := indexOf(snap.Tasks, id)
	if i < 0 {
		return Task{}, false, nil
	}
	return snap.Tasks[i].Clone(), true, nil
}

// CreateTask assigns the next id, stamps CreatedAt and stores a new,
// incomplete task without subtasks. The title is stored as given.
func (s *Store) CreateTask(ctx context.Context, in NewTask) (Task, error) {
	if err := s.wait(ctx); err != nil {
		return Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return Task{}, err
	}
	t := Task{
		ID:          strconv.FormatInt(snap.NextID, 10),
		Title:       in.Title,
		Description: in.Description,
		Completed:   false,
		Subtasks:    []Subtask{},
		CreatedAt:   s.now().UTC(),
	}
	snap.NextID++
	snap.Tasks = append(snap.Tasks, t)
	if err := s.save(ctx, snap); err != nil {
		return Task{}, err
	}

	s.publish(ctx, events.New(events.KindCreated, t.ID).With("title", t.Title))
	return t.Clone(), nil
}

// UpdateTask merges p onto the task with id and returns the result after the
// store's rule had its say. found is false, and nothing changes, when no task
// has that id.
func (s *Store) UpdateTask(ctx context.Context, id string, p Patch) (Task, bool, error) {
	if err := s.wait(ctx); err != nil {
		return Task{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before, updated, found, err := s.update(ctx, id, p)
	if err != nil || !found {
		return Task{}, false, err
	}
	s.publish(ctx, events.New(events.KindUpdated, id))

	fix, ok := s.rule.Correct(before, updated, p)
	if !ok {
		return updated, true, nil
	}
	_, corrected, found, err := s.update(ctx, id, fix)
	if err != nil {
		return Task{}, false, err
	}
	if !found {
		return updated, true, nil
	}

	evt := events.New(events.KindReconciled, id)
	if fix.Completed != nil {
		evt.With("completed", strconv.FormatBool(*fix.Completed))
	}
	if fix.Subtasks != nil {
		evt.With("cascade", strconv.FormatBool(corrected.Completed))
	}
	s.logger.Debug("completion rule applied",
		slog.String("task", id),
		slog.Bool("completed", corrected.Completed),
	)
	s.publish(ctx, evt)
	return corrected, true, nil
}

// DeleteTask removes the task with id. It reports false, and changes
// nothing, when no task has that id.
func (s *Store) DeleteTask(ctx context.Context, id string) (bool, error) {
	if err := s.wait(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	i := indexOf(snap.Tasks, id)
	if i < 0 {
		return false, nil
	}
	snap.Tasks = slices.Delete(snap.Tasks, i, i+1)
	if err := s.save(ctx, snap); err != nil {
		return false, err
	}

	s.publish(ctx, events.New(events.KindDeleted, id))
	return true, nil
}

// update applies p to one task and persists. It returns the task as it was
// before and after the change. Callers hold s.mu.
func (s *Store) update(ctx context.Context, id string, p Patch) (before, after Task, found bool, err error) {
	snap, err := s.load(ctx)
	if err != nil {
		return Task{}, Task{}, false, err
	}
	i := indexOf(snap.Tasks, id)
	if i < 0 {
		return Task{}, Task{}, false, nil
	}
	before = snap.Tasks[i].Clone()
	p.apply(&snap.Tasks[i])
	if err := s.save(ctx, snap); err != nil {
		return Task{}, Task{}, false, err
	}
	return before, snap.Tasks[i].Clone(), true, nil
}

// load reads the snapshot, degrading to memory on a storage failure. An
// error caused by ctx is returned instead. Callers hold s.mu.
func (s *Store) load(ctx context.Context) (Snapshot, error) {
	snap, err := s.backend.Load(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Snapshot{}, ctxErr
		}
		s.degrade(s.last, "load", err)
		snap, _ = s.backend.Load(ctx)
	}
	snap = snap.normalize()
	s.last = snap.clone()
	return snap, nil
}

// save writes the snapshot, degrading to memory on a storage failure. An
// error caused by ctx is returned and nothing is recorded. Callers hold s.mu.
func (s *Store) save(ctx context.Context, snap Snapshot) error {
	if err := s.backend.Save(ctx, snap); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.degrade(snap, "save", err)
	}
	s.last = snap.normalize().clone()
	return nil
}

func (s *Store) degrade(seed Snapshot, op string, err error) {
	s.logger.Warn("task storage unavailable, continuing in memory",
		slog.String("op", op),
		slog.Any("err", err),
	)
	s.backend = newMemoryBackendFrom(seed)
}

func (s *Store) publish(ctx context.Context, evt *events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		s.logger.Warn("publish task event",
			slog.String("kind", string(evt.Kind)),
			slog.Any("err", err),
		)
	}
}

func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func indexOf(tasks []Task, id string) int {
	return slices.IndexFunc(tasks, func(t Task) bool { return t.ID == id })
}
