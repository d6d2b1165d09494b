package actions

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/GoCodeAlone/taskpad/generator"
	"github.com/GoCodeAlone/taskpad/provider/mock"
	"github.com/GoCodeAlone/taskpad/task"
)

type harness struct {
	svc   *Service
	store *task.Store
	gen   *mock.MockProvider
}

func newHarness(t *testing.T, responses ...string) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	store := task.NewStore(context.Background(), nil, task.Options{
		Logger: logger,
		Now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		},
	})

	p := mock.New(responses...)
	gen := generator.NewProviderGenerator(p, generator.Options{Logger: logger})
	return &harness{
		svc:   NewService(store, gen, logger),
		store: store,
		gen:   p,
	}
}

func (h *harness) create(t *testing.T, title, desc string) task.Task {
	t.Helper()
	created, err := h.svc.CreateTask(context.Background(), title, desc)
	if err != nil {
		t.Fatalf("CreateTask(%q) error = %v", title, err)
	}
	return created
}

func TestCreateTask_TrimsAndRequiresTitle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	got := h.create(t, "  Write report  ", "  quarterly  ")
	if got.Title != "Write report" || got.Description != "quarterly" {
		t.Errorf("CreateTask() = %q/%q, want trimmed", got.Title, got.Description)
	}

	if _, err := h.svc.CreateTask(ctx, "   ", "desc"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank title error = %v, want ErrInvalidInput", err)
	}
	tasks, _ := h.svc.ListTasks(ctx, FilterAll)
	if len(tasks) != 1 {
		t.Errorf("tasks = %d, want 1", len(tasks))
	}
}

func TestEditTask(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.create(t, "Old", "old desc")

	got, err := h.svc.EditTask(ctx, created.ID, "New title", "")
	if err != nil {
		t.Fatalf("EditTask() error = %v", err)
	}
	if got.Title != "New title" || got.Description != "" {
		t.Errorf("EditTask() = %q/%q", got.Title, got.Description)
	}

	if _, err := h.svc.EditTask(ctx, created.ID, " x ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("short title error = %v, want ErrInvalidInput", err)
	}
	if _, err := h.svc.EditTask(ctx, "999", "Valid", ""); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("missing task error = %v, want ErrTaskNotFound", err)
	}
}

func TestToggleTask_CascadesToSubtasks(t *testing.T) {
	h := newHarness(t, `{"subtasks": ["a", "b"]}`)
	ctx := context.Background()
	created := h.create(t, "Trip", "")
	if _, err := h.svc.GenerateSubtasks(ctx, created.ID); err != nil {
		t.Fatalf("GenerateSubtasks() error = %v", err)
	}

	got, err := h.svc.ToggleTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("ToggleTask() error = %v", err)
	}
	if !got.Completed {
		t.Fatal("task not completed after toggle")
	}
	for i, st := range got.Subtasks {
		if !st.Completed {
			t.Errorf("subtask %d not completed after parent toggle", i)
		}
	}

	got, err = h.svc.ToggleTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("ToggleTask() error = %v", err)
	}
	if got.Completed || got.Subtasks[0].Completed || got.Subtasks[1].Completed {
		t.Errorf("toggle back = %+v, want everything incomplete", got)
	}
}

func TestToggleTask_Missing(t *testing.T) {
	h := newHarness(t)
	if _, err := h.svc.ToggleTask(context.Background(), "42"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("error = %v, want ErrTaskNotFound", err)
	}
}

func TestGroceriesScenario(t *testing.T) {
	h := newHarness(t, `{"subtasks": ["Buy milk", "Buy eggs"]}`)
	ctx := context.Background()
	created := h.create(t, "Groceries", "weekly shop")

	got, err := h.svc.GenerateSubtasks(ctx, created.ID)
	if err != nil {
		t.Fatalf("GenerateSubtasks() error = %v", err)
	}
	if len(got.Subtasks) != 2 || got.Subtasks[0].Text != "Buy milk" || got.Subtasks[1].Text != "Buy eggs" {
		t.Fatalf("subtasks = %+v", got.Subtasks)
	}
	if got.Completed {
		t.Fatal("parent completed right after generation")
	}

	calls := h.gen.Calls()
	if len(calls) != 1 || calls[0][1].Content != "Groceries: weekly shop" {
		t.Errorf("generator input = %+v, want %q", calls, "Groceries: weekly shop")
	}

	got, err = h.svc.ToggleSubtask(ctx, created.ID, 0)
	if err != nil {
		t.Fatalf("ToggleSubtask(0) error = %v", err)
	}
	if got.Completed {
		t.Error("parent completed with one subtask open")
	}

	got, err = h.svc.ToggleSubtask(ctx, created.ID, 1)
	if err != nil {
		t.Fatalf("ToggleSubtask(1) error = %v", err)
	}
	if !got.Completed {
		t.Error("parent not completed after every subtask was checked")
	}

	got, err = h.svc.ToggleSubtask(ctx, created.ID, 0)
	if err != nil {
		t.Fatalf("ToggleSubtask(0) error = %v", err)
	}
	if got.Completed {
		t.Error("parent still completed after unchecking a subtask")
	}
	if !got.Subtasks[1].Completed {
		t.Error("unchecking one subtask changed another")
	}
}

func TestToggleSubtask_BadIndex(t *testing.T) {
	h := newHarness(t, `["only"]`)
	ctx := context.Background()
	created := h.create(t, "T", "")
	if _, err := h.svc.GenerateSubtasks(ctx, created.ID); err != nil {
		t.Fatalf("GenerateSubtasks() error = %v", err)
	}

	for _, idx := range []int{-1, 1, 5} {
		if _, err := h.svc.ToggleSubtask(ctx, created.ID, idx); !errors.Is(err, ErrSubtaskNotFound) {
			t.Errorf("ToggleSubtask(%d) error = %v, want ErrSubtaskNotFound", idx, err)
		}
	}
	if _, err := h.svc.ToggleSubtask(ctx, "nope", 0); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("missing task error = %v, want ErrTaskNotFound", err)
	}
}

func TestGenerateSubtasks_FailureLeavesTaskUnchanged(t *testing.T) {
	h := newHarness(t, `{"subtasks": ["first"]}`)
	ctx := context.Background()
	created := h.create(t, "Plan", "")
	if _, err := h.svc.GenerateSubtasks(ctx, created.ID); err != nil {
		t.Fatalf("GenerateSubtasks() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.svc.generator = generator.NewProviderGenerator(mock.Failing(errors.New("rate limited")), generator.Options{Logger: logger})

	_, err := h.svc.GenerateSubtasks(ctx, created.ID)
	if !errors.Is(err, generator.ErrGeneration) {
		t.Fatalf("error = %v, want ErrGeneration", err)
	}

	got, err := h.svc.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if len(got.Subtasks) != 1 || got.Subtasks[0].Text != "first" {
		t.Errorf("subtasks = %+v, want previous list kept", got.Subtasks)
	}
}

func TestGenerateSubtasks_ReplacesListAndResetsCompletion(t *testing.T) {
	h := newHarness(t, `{"subtasks": ["a"]}`, `{"subtasks": ["x", "y"]}`)
	ctx := context.Background()
	created := h.create(t, "Plan", "")
	if _, err := h.svc.GenerateSubtasks(ctx, created.ID); err != nil {
		t.Fatalf("GenerateSubtasks() error = %v", err)
	}
	if _, err := h.svc.ToggleSubtask(ctx, created.ID, 0); err != nil {
		t.Fatalf("ToggleSubtask() error = %v", err)
	}

	got, err := h.svc.GenerateSubtasks(ctx, created.ID)
	if err != nil {
		t.Fatalf("GenerateSubtasks() error = %v", err)
	}
	if len(got.Subtasks) != 2 || got.Subtasks[0].Text != "x" {
		t.Fatalf("subtasks = %+v, want regenerated list", got.Subtasks)
	}
	if got.Completed {
		t.Error("parent still completed after fresh incomplete subtasks")
	}
}

func TestGenerateSubtasks_PlainFuncError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.create(t, "Plan", "")
	h.svc.generator = generator.Func(func(context.Context, string) ([]string, error) {
		return nil, errors.New("offline")
	})

	if _, err := h.svc.GenerateSubtasks(ctx, created.ID); !errors.Is(err, generator.ErrGeneration) {
		t.Errorf("error = %v, want ErrGeneration", err)
	}
}

func TestGenerateSubtasks_NoGenerator(t *testing.T) {
	h := newHarness(t)
	created := h.create(t, "Plan", "")
	h.svc.generator = nil

	if _, err := h.svc.GenerateSubtasks(context.Background(), created.ID); !errors.Is(err, generator.ErrGeneration) {
		t.Errorf("error = %v, want ErrGeneration", err)
	}
}

func TestDeleteTask(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.create(t, "Temp", "")

	if err := h.svc.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if err := h.svc.DeleteTask(ctx, created.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("second delete error = %v, want ErrTaskNotFound", err)
	}
	if _, err := h.svc.GetTask(ctx, created.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("GetTask() after delete error = %v, want ErrTaskNotFound", err)
	}
}

func TestListTasks_Filters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.create(t, "First", "")
	second := h.create(t, "Second", "")
	third := h.create(t, "Third", "")
	if _, err := h.svc.ToggleTask(ctx, second.ID); err != nil {
		t.Fatalf("ToggleTask() error = %v", err)
	}

	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{third.ID, second.ID, first.ID}},
		{FilterActive, []string{third.ID, first.ID}},
		{FilterCompleted, []string{second.ID}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			tasks, err := h.svc.ListTasks(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListTasks() error = %v", err)
			}
			var ids []string
			for _, tk := range tasks {
				ids = append(ids, tk.ID)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("ids = %v, want %v", ids, tt.want)
					break
				}
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{"", FilterAll, false},
		{"all", FilterAll, false},
		{"Active", FilterActive, false},
		{" completed ", FilterCompleted, false},
		{"pending", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFilter(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFilter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateSubtasks_EmptyResultKeepsSubtasks(t *testing.T) {
	tests := []struct {
		name   string
		titles []string
	}{
		{"empty list", []string{}},
		{"nil list", nil},
		{"blank titles", []string{"", "   ", "\t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, `{"subtasks": ["Buy milk", "Buy eggs"]}`)
			ctx := context.Background()
			created := h.create(t, "Groceries", "")
			if _, err := h.svc.GenerateSubtasks(ctx, created.ID); err != nil {
				t.Fatalf("GenerateSubtasks() error = %v", err)
			}
			if _, err := h.svc.ToggleSubtask(ctx, created.ID, 0); err != nil {
				t.Fatalf("ToggleSubtask() error = %v", err)
			}

			h.svc.generator = generator.Func(func(context.Context, string) ([]string, error) {
				return tt.titles, nil
			})
			if _, err := h.svc.GenerateSubtasks(ctx, created.ID); !errors.Is(err, generator.ErrGeneration) {
				t.Fatalf("error = %v, want ErrGeneration", err)
			}

			got, err := h.svc.GetTask(ctx, created.ID)
			if err != nil {
				t.Fatalf("GetTask() error = %v", err)
			}
			if len(got.Subtasks) != 2 || !got.Subtasks[0].Completed || got.Subtasks[1].Text != "Buy eggs" {
				t.Errorf("subtasks = %+v, want previous list kept", got.Subtasks)
			}
		})
	}
}

func TestGenerateSubtasks_TrimsFuncTitles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.create(t, "Plan", "")
	h.svc.generator = generator.Func(func(context.Context, string) ([]string, error) {
		return []string{"  Book venue ", "", "Send invites"}, nil
	})

	got, err := h.svc.GenerateSubtasks(ctx, created.ID)
	if err != nil {
		t.Fatalf("GenerateSubtasks() error = %v", err)
	}
	if len(got.Subtasks) != 2 || got.Subtasks[0].Text != "Book venue" || got.Subtasks[1].Text != "Send invites" {
		t.Errorf("subtasks = %+v", got.Subtasks)
	}
}

func TestToggleSubtask_ReopensCompletedParent(t *testing.T) {
	h := newHarness(t, `{"subtasks": ["a", "b"]}`)
	ctx := context.Background()
	created := h.create(t, "Trip", "")
	if _, err := h.svc.GenerateSubtasks(ctx, created.ID); err != nil {
		t.Fatalf("GenerateSubtasks() error = %v", err)
	}
	if _, err := h.svc.ToggleTask(ctx, created.ID); err != nil {
		t.Fatalf("ToggleTask() error = %v", err)
	}

	got, err := h.svc.ToggleSubtask(ctx, created.ID, 1)
	if err != nil {
		t.Fatalf("ToggleSubtask() error = %v", err)
	}
	if got.Completed {
		t.Error("parent still completed with an unchecked subtask")
	}
	if !got.Subtasks[0].Completed || got.Subtasks[1].Completed {
		t.Errorf("subtasks = %+v, want only the toggled one reopened", got.Subtasks)
	}
}
