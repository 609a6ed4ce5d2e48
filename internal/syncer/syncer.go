// Package syncer coordinates optimistic completion toggles between the local
// cache and the remote task store.
//
// A toggle is visible in the cache immediately; the remote patch settles in
// the background. Success invalidates the cached collection so it reconciles
// with server truth, failure restores the snapshot taken just before the
// optimistic write.
package syncer

import (
	"context"
	"fmt"

	"github.com/delesslingw/TODOIT/internal/cache"
	"github.com/delesslingw/TODOIT/internal/models"
	"github.com/delesslingw/TODOIT/internal/remote"
)

// Guard answers whether a task may be toggled right now. The session phase
// machine implements this.
type Guard interface {
	CanInteract(taskID string) bool
}

// Remote is the slice of the store client the syncer needs.
type Remote interface {
	PatchTask(ctx context.Context, listID, taskID string, patch remote.TaskPatch) (*models.Task, error)
}

// Syncer applies completion toggles optimistically. It never owns task data;
// all reads and writes go through the cache.
type Syncer struct {
	cache  *cache.Store
	remote Remote
	guard  Guard
}

// New creates a Syncer. guard may be nil, which permits every toggle.
func New(c *cache.Store, r Remote, g Guard) *Syncer {
	return &Syncer{cache: c, remote: r, guard: g}
}

// Toggle flips a task's completion status.
//
// When the guard disallows the task the call is a complete no-op: the cache
// is untouched, no network call is issued, and ok is false. Otherwise the
// cached collection is updated immediately and the returned channel reports
// the settlement outcome (nil on success, the patch error after rollback on
// failure). The channel is buffered; callers may drop it.
func (s *Syncer) Toggle(ctx context.Context, listID, taskID string, completed bool) (settled <-chan error, ok bool) {
	if s.guard != nil && !s.guard.CanInteract(taskID) {
		return nil, false
	}

	key := cache.TasksKey(listID)

	// A refetch racing this write must not land on top of it.
	s.cache.CancelInFlight(key)

	snapshot, hadSnapshot := s.cache.Get(key)
	if hadSnapshot {
		s.cache.Set(key, withStatus(snapshot, taskID, models.ToggledStatus(completed)))
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.remote.PatchTask(ctx, listID, taskID, remote.StatusPatch(models.ToggledStatus(completed)))
		if err != nil {
			// Revert only this task to its pre-toggle status. A later
			// toggle of another task may have settled and reconciled while
			// this patch was in flight; restoring the whole snapshot would
			// clobber that confirmed state.
			if prev, found := statusOf(snapshot, taskID); found {
				s.cache.Update(key, func(old any) any {
					return withStatus(old, taskID, prev)
				})
			}
			done <- fmt.Errorf("toggle task %s: %w", taskID, err)
			return
		}
		// Reconcile with server truth; under a hide-completed view this is
		// also what makes a completed task disappear.
		s.cache.Invalidate(key)
		done <- nil
	}()
	return done, true
}

// statusOf looks up one task's status in a cached collection.
func statusOf(v any, taskID string) (models.TaskStatus, bool) {
	tasks, ok := v.([]models.Task)
	if !ok {
		return "", false
	}
	for _, t := range tasks {
		if t.ID == taskID {
			return t.Status, true
		}
	}
	return "", false
}

// withStatus returns a copy of the cached task collection with one task's
// status replaced. The original slice is never mutated so snapshots stay
// intact for rollback.
func withStatus(v any, taskID string, status models.TaskStatus) any {
	tasks, ok := v.([]models.Task)
	if !ok {
		return v
	}
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	for i := range out {
		if out[i].ID == taskID {
			out[i].Status = status
		}
	}
	return out
}
