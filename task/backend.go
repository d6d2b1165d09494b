package task

import (
	"context"
	"strconv"
	"sync"
)

// Snapshot is the full persisted state: the task collection in insertion
// order and the next id to hand out.
type Snapshot struct {
	Tasks  []Task
	NextID int64
}

func emptySnapshot() Snapshot {
	return Snapshot{Tasks: []Task{}, NextID: 1}
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{Tasks: cloneTasks(s.Tasks), NextID: s.NextID}
}

// normalize repairs what a backend may hand back from an older, empty or
// partially written storage area: nil lists and a counter that would reuse
// an id already in the collection.
func (s Snapshot) normalize() Snapshot {
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	if s.NextID < 1 {
		s.NextID = 1
	}
	for i := range s.Tasks {
		if s.Tasks[i].Subtasks == nil {
			s.Tasks[i].Subtasks = []Subtask{}
		}
		if id, err := strconv.ParseInt(s.Tasks[i].ID, 10, 64); err == nil && id >= s.NextID {
			s.NextID = id + 1
		}
	}
	return s
}

// Backend persists the task collection and the id counter as two values.
type Backend interface {
	// Load returns the last saved snapshot, or an empty collection with
	// NextID 1 when nothing has been saved yet.
	Load(ctx context.Context) (Snapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap Snapshot) error

	// Persistent reports whether saved state outlives the process.
	Persistent() bool
}

// MemoryBackend keeps the snapshot in process memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{snap: emptySnapshot()}
}

func newMemoryBackendFrom(snap Snapshot) *MemoryBackend {
	return &MemoryBackend{snap: snap.normalize().clone()}
}

func (b *MemoryBackend) Load(_ context.Context) (Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.snap.clone(), nil
}

func (b *MemoryBackend) Save(_ context.Context, snap Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.snap = snap.normalize().clone()
	return nil
}

func (b *MemoryBackend) Persistent() bool { return false }
