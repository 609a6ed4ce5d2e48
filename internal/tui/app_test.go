package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/delesslingw/TODOIT/internal/cache"
	"github.com/delesslingw/TODOIT/internal/config"
	"github.com/delesslingw/TODOIT/internal/models"
	"github.com/delesslingw/TODOIT/internal/remote"
	"github.com/delesslingw/TODOIT/internal/session"
)

// stubClient serves fixed data; the cache and machine do the real work.
type stubClient struct {
	lists []models.TaskList
	tasks []models.Task
}

func (c *stubClient) ListTaskLists(ctx context.Context) ([]models.TaskList, error) {
	return c.lists, nil
}

func (c *stubClient) ListTasks(ctx context.Context, listID string, opts remote.ListTasksOptions) ([]models.Task, error) {
	return c.tasks, nil
}

func (c *stubClient) AddTask(ctx context.Context, listID, title, notes string) (*models.Task, error) {
	return &models.Task{ID: "new", Title: title, Notes: notes}, nil
}

func (c *stubClient) PatchTask(ctx context.Context, listID, taskID string, patch remote.TaskPatch) (*models.Task, error) {
	return &models.Task{ID: taskID, Status: *patch.Status}, nil
}

func (c *stubClient) DeleteTask(ctx context.Context, listID, taskID string) error {
	return nil
}

func newTestApp(tasks []models.Task) *App {
	a := New(&stubClient{tasks: tasks}, config.DefaultConfig(), nil)
	a.currentList = "l1"
	a.mode = modeTasks
	a.cache.Set(cache.TasksKey("l1"), tasks)
	a.refreshTasksFromCache()
	return a
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// Checking off the highlighted task opens the prompt; under a hide-completed
// view the task then vanishes from the reconciled refetch. The pending prompt
// must survive that, so answering "end session" still works.
func TestPromptSurvivesHighlightedTaskVanishing(t *testing.T) {
	a := newTestApp([]models.Task{{ID: "A", Title: "write report", Status: models.TaskStatusNeedsAction}})

	if err := a.machine.Start(25 * time.Minute); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := a.machine.Highlight("A"); err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}

	// The user checks off the highlighted task.
	a.machine.Summary().Increment(1)
	a.promptTask = "write report"
	a.mode = modePrompt

	// The invalidation refetch lands without A, then the per-second tick
	// re-reads the cache while the prompt is still open.
	a.cache.Set(cache.TasksKey("l1"), []models.Task{})
	a.refreshTasksFromCache()

	if got := a.machine.Highlighted(); got != "A" {
		t.Fatalf("Highlight released while prompt pending: %q", got)
	}
	if a.machine.Phase() != session.PhaseRunning {
		t.Fatalf("Phase changed before the user answered: %v", a.machine.Phase())
	}

	// The user chooses to end the session.
	model, _ := a.Update(keyMsg("y"))
	a = model.(*App)

	if a.machine.Phase() != session.PhaseAccomplishment {
		t.Errorf("Expected accomplishment after ending with 1 completed task, got %v", a.machine.Phase())
	}
	if a.mode != modeAccomplishment {
		t.Errorf("Expected accomplishment view, got %q", a.mode)
	}
}

// Without a pending prompt, a highlighted task deleted elsewhere releases the
// highlight but keeps the session running.
func TestHighlightReleasedWhenTaskDeletedElsewhere(t *testing.T) {
	a := newTestApp([]models.Task{
		{ID: "A", Title: "write report", Status: models.TaskStatusNeedsAction},
		{ID: "B", Title: "review notes", Status: models.TaskStatusNeedsAction},
	})

	if err := a.machine.Start(25 * time.Minute); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := a.machine.Highlight("A"); err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}

	a.cache.Set(cache.TasksKey("l1"), []models.Task{
		{ID: "B", Title: "review notes", Status: models.TaskStatusNeedsAction},
	})
	a.refreshTasksFromCache()

	if got := a.machine.Highlighted(); got != "" {
		t.Errorf("Highlight not released after task vanished: %q", got)
	}
	if a.machine.Phase() != session.PhaseRunning {
		t.Errorf("Session should keep running, got %v", a.machine.Phase())
	}
}
