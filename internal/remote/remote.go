// Package remote is the client boundary to the remote task store.
//
// The Client interface is the narrow surface the rest of the application
// consumes; the production implementation speaks to the Google Tasks API.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/delesslingw/TODOIT/internal/models"
	"google.golang.org/api/googleapi"
)

// ListTasksOptions controls a task fetch.
type ListTasksOptions struct {
	// ShowCompleted includes completed tasks in the result.
	ShowCompleted bool
}

// TaskPatch names the fields to change on a task. Nil fields are left alone.
type TaskPatch struct {
	Status *models.TaskStatus
	Title  *string
	Notes  *string
}

// StatusPatch builds a patch that only flips the completion status.
func StatusPatch(status models.TaskStatus) TaskPatch {
	return TaskPatch{Status: &status}
}

// Client performs CRUD against the remote list/task store.
type Client interface {
	ListTaskLists(ctx context.Context) ([]models.TaskList, error)
	ListTasks(ctx context.Context, listID string, opts ListTasksOptions) ([]models.Task, error)
	AddTask(ctx context.Context, listID, title, notes string) (*models.Task, error)
	PatchTask(ctx context.Context, listID, taskID string, patch TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, listID, taskID string) error
}

// APIError is a non-2xx response from the remote store, carrying the HTTP
// status and the raw response body.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// wrapErr converts transport-level API failures into APIError and wraps
// everything with the failing operation.
func wrapErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("%s: %w", op, &APIError{Status: gerr.Code, Body: gerr.Body})
	}
	return fmt.Errorf("%s: %w", op, err)
}
