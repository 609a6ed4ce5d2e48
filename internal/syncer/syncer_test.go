package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/delesslingw/TODOIT/internal/cache"
	"github.com/delesslingw/TODOIT/internal/models"
	"github.com/delesslingw/TODOIT/internal/remote"
)

type patchCall struct {
	listID string
	taskID string
	status models.TaskStatus
}

// fakeRemote records patches and can block or fail on demand.
type fakeRemote struct {
	mu    sync.Mutex
	calls []patchCall
	err   error
	block chan struct{}
}

func (f *fakeRemote) PatchTask(ctx context.Context, listID, taskID string, patch remote.TaskPatch) (*models.Task, error) {
	f.mu.Lock()
	f.calls = append(f.calls, patchCall{listID: listID, taskID: taskID, status: *patch.Status})
	err := f.err
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return &models.Task{ID: taskID, Status: *patch.Status}, nil
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeGuard permits only one task id.
type fakeGuard struct {
	allowed string
}

func (g *fakeGuard) CanInteract(taskID string) bool {
	return taskID == g.allowed
}

func seedTasks(c *cache.Store, listID string, tasks ...models.Task) {
	c.Set(cache.TasksKey(listID), tasks)
}

func cachedStatus(t *testing.T, c *cache.Store, listID, taskID string) models.TaskStatus {
	t.Helper()
	v, ok := c.Get(cache.TasksKey(listID))
	if !ok {
		t.Fatal("No cached collection")
	}
	for _, task := range v.([]models.Task) {
		if task.ID == taskID {
			return task.Status
		}
	}
	t.Fatalf("Task %s not in cache", taskID)
	return ""
}

func TestToggleOptimisticWriteVisibleBeforeSettlement(t *testing.T) {
	c := cache.New()
	r := &fakeRemote{block: make(chan struct{})}
	s := New(c, r, nil)
	seedTasks(c, "l1", models.Task{ID: "A", Status: models.TaskStatusNeedsAction})

	settled, ok := s.Toggle(context.Background(), "l1", "A", true)
	if !ok {
		t.Fatal("Toggle rejected unexpectedly")
	}

	// The network call has not resolved yet; the cache must already show it.
	if got := cachedStatus(t, c, "l1", "A"); got != models.TaskStatusCompleted {
		t.Errorf("Expected optimistic completed status, got %q", got)
	}

	close(r.block)
	if err := <-settled; err != nil {
		t.Fatalf("Settlement failed: %v", err)
	}
}

func TestToggleRollbackOnFailure(t *testing.T) {
	c := cache.New()
	r := &fakeRemote{err: errors.New("500 backend unavailable")}
	s := New(c, r, nil)
	seedTasks(c, "l1",
		models.Task{ID: "A", Status: models.TaskStatusNeedsAction},
		models.Task{ID: "B", Status: models.TaskStatusCompleted},
	)

	settled, ok := s.Toggle(context.Background(), "l1", "A", true)
	if !ok {
		t.Fatal("Toggle rejected unexpectedly")
	}

	err := <-settled
	if err == nil {
		t.Fatal("Expected settlement error")
	}

	// The toggled task reverts; nothing else moves.
	if got := cachedStatus(t, c, "l1", "A"); got != models.TaskStatusNeedsAction {
		t.Errorf("Rollback missed: A is %q", got)
	}
	if got := cachedStatus(t, c, "l1", "B"); got != models.TaskStatusCompleted {
		t.Errorf("Rollback disturbed other task: B is %q", got)
	}
}

func TestToggleSuccessInvalidatesAndReconciles(t *testing.T) {
	c := cache.New()
	r := &fakeRemote{}
	s := New(c, r, nil)
	key := cache.TasksKey("l1")

	// Server truth under a hide-completed view: A is gone once completed.
	c.Register(key, func(ctx context.Context) (any, error) {
		return []models.Task{{ID: "B", Status: models.TaskStatusNeedsAction}}, nil
	})
	seedTasks(c, "l1",
		models.Task{ID: "A", Status: models.TaskStatusNeedsAction},
		models.Task{ID: "B", Status: models.TaskStatusNeedsAction},
	)

	settled, _ := s.Toggle(context.Background(), "l1", "A", true)
	if err := <-settled; err != nil {
		t.Fatalf("Settlement failed: %v", err)
	}

	// The invalidation refetch runs in the background.
	deadline := time.After(5 * time.Second)
	for {
		v, _ := c.Get(key)
		if tasks, ok := v.([]models.Task); ok && len(tasks) == 1 && tasks[0].ID == "B" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Cache never reconciled with server truth")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// routeRemote dispatches each patch to a per-call function.
type routeRemote struct {
	fn func(taskID string, status models.TaskStatus) (*models.Task, error)
}

func (r *routeRemote) PatchTask(ctx context.Context, listID, taskID string, patch remote.TaskPatch) (*models.Task, error) {
	return r.fn(taskID, *patch.Status)
}

func TestFailedToggleRollbackOnlyRevertsItsOwnTask(t *testing.T) {
	c := cache.New()
	key := cache.TasksKey("l1")

	blockA := make(chan struct{})
	r := &routeRemote{fn: func(taskID string, status models.TaskStatus) (*models.Task, error) {
		if taskID == "A" {
			<-blockA
			return nil, errors.New("500 backend unavailable")
		}
		return &models.Task{ID: taskID, Status: status}, nil
	}}
	s := New(c, r, nil)

	// Server truth after B settles; the marker title distinguishes the
	// reconciled refetch from the optimistic write.
	c.Register(key, func(ctx context.Context) (any, error) {
		return []models.Task{
			{ID: "A", Title: "server", Status: models.TaskStatusNeedsAction},
			{ID: "B", Title: "server", Status: models.TaskStatusCompleted},
		}, nil
	})
	seedTasks(c, "l1",
		models.Task{ID: "A", Status: models.TaskStatusNeedsAction},
		models.Task{ID: "B", Status: models.TaskStatusNeedsAction},
	)

	// A's patch hangs; B toggles, settles, and reconciles meanwhile.
	settledA, ok := s.Toggle(context.Background(), "l1", "A", true)
	if !ok {
		t.Fatal("Toggle A rejected unexpectedly")
	}
	settledB, ok := s.Toggle(context.Background(), "l1", "B", true)
	if !ok {
		t.Fatal("Toggle B rejected unexpectedly")
	}
	if err := <-settledB; err != nil {
		t.Fatalf("B settlement failed: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		v, _ := c.Get(key)
		if tasks, ok := v.([]models.Task); ok && len(tasks) == 2 && tasks[0].Title == "server" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Cache never reconciled after B's toggle")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Now A fails. Its rollback must not disturb B's confirmed completion.
	close(blockA)
	if err := <-settledA; err == nil {
		t.Fatal("Expected A settlement error")
	}

	if got := cachedStatus(t, c, "l1", "A"); got != models.TaskStatusNeedsAction {
		t.Errorf("A not rolled back: %q", got)
	}
	if got := cachedStatus(t, c, "l1", "B"); got != models.TaskStatusCompleted {
		t.Errorf("A's stale rollback reverted B: %q", got)
	}
}

func TestToggleBlockedByGuardIsNoOp(t *testing.T) {
	c := cache.New()
	r := &fakeRemote{}
	s := New(c, r, &fakeGuard{allowed: "B"})
	seedTasks(c, "l1", models.Task{ID: "A", Status: models.TaskStatusNeedsAction})

	settled, ok := s.Toggle(context.Background(), "l1", "A", true)
	if ok {
		t.Error("Guard-blocked toggle reported ok")
	}
	if settled != nil {
		t.Error("Guard-blocked toggle returned a settlement channel")
	}
	if got := cachedStatus(t, c, "l1", "A"); got != models.TaskStatusNeedsAction {
		t.Errorf("Guard-blocked toggle touched the cache: %q", got)
	}
	if r.callCount() != 0 {
		t.Errorf("Guard-blocked toggle issued %d network calls", r.callCount())
	}
}

func TestToggleAllowedForHighlightedTask(t *testing.T) {
	c := cache.New()
	r := &fakeRemote{}
	s := New(c, r, &fakeGuard{allowed: "B"})
	seedTasks(c, "l1", models.Task{ID: "B", Status: models.TaskStatusNeedsAction})

	settled, ok := s.Toggle(context.Background(), "l1", "B", true)
	if !ok {
		t.Fatal("Highlighted task toggle rejected")
	}
	if err := <-settled; err != nil {
		t.Fatalf("Settlement failed: %v", err)
	}
	if r.callCount() != 1 {
		t.Errorf("Expected 1 patch call, got %d", r.callCount())
	}
}

func TestToggleWithoutCachedCollection(t *testing.T) {
	c := cache.New()
	r := &fakeRemote{}
	s := New(c, r, nil)

	settled, ok := s.Toggle(context.Background(), "l1", "A", false)
	if !ok {
		t.Fatal("Toggle rejected unexpectedly")
	}
	if err := <-settled; err != nil {
		t.Fatalf("Settlement failed: %v", err)
	}
	if r.callCount() != 1 {
		t.Errorf("Expected patch despite empty cache, got %d calls", r.callCount())
	}
}

func TestTogglePatchesStatusOnly(t *testing.T) {
	c := cache.New()
	r := &fakeRemote{}
	s := New(c, r, nil)
	seedTasks(c, "l1", models.Task{ID: "A", Status: models.TaskStatusCompleted})

	settled, _ := s.Toggle(context.Background(), "l1", "A", false)
	<-settled

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) != 1 {
		t.Fatalf("Expected 1 call, got %d", len(r.calls))
	}
	if r.calls[0].status != models.TaskStatusNeedsAction {
		t.Errorf("Expected needsAction patch, got %q", r.calls[0].status)
	}
	if r.calls[0].listID != "l1" || r.calls[0].taskID != "A" {
		t.Errorf("Wrong target: %+v", r.calls[0])
	}
}
