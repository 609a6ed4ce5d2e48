package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/delesslingw/TODOIT/internal/models"
	"google.golang.org/api/option"
	tasksapi "google.golang.org/api/tasks/v1"
)

// maxPageSize caps list fetches; the UI never pages.
const maxPageSize = 100

// GoogleTasks implements Client against the Google Tasks API.
type GoogleTasks struct {
	svc *tasksapi.Service
}

// NewGoogleTasks creates a client using an authenticated HTTP client (see
// the auth package).
func NewGoogleTasks(ctx context.Context, httpClient *http.Client) (*GoogleTasks, error) {
	svc, err := tasksapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create tasks service: %w", err)
	}
	return &GoogleTasks{svc: svc}, nil
}

// ListTaskLists fetches the user's task lists.
func (g *GoogleTasks) ListTaskLists(ctx context.Context) ([]models.TaskList, error) {
	resp, err := g.svc.Tasklists.List().MaxResults(maxPageSize).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("list task lists", err)
	}

	lists := make([]models.TaskList, 0, len(resp.Items))
	for _, item := range resp.Items {
		lists = append(lists, models.TaskList{ID: item.Id, Title: item.Title})
	}
	return lists, nil
}

// ListTasks fetches the tasks in one list.
func (g *GoogleTasks) ListTasks(ctx context.Context, listID string, opts ListTasksOptions) ([]models.Task, error) {
	call := g.svc.Tasks.List(listID).
		MaxResults(maxPageSize).
		ShowCompleted(opts.ShowCompleted).
		ShowHidden(opts.ShowCompleted).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return nil, wrapErr("list tasks", err)
	}

	tasks := make([]models.Task, 0, len(resp.Items))
	for _, item := range resp.Items {
		tasks = append(tasks, taskFromAPI(item))
	}
	return tasks, nil
}

// AddTask creates a task in the given list.
func (g *GoogleTasks) AddTask(ctx context.Context, listID, title, notes string) (*models.Task, error) {
	created, err := g.svc.Tasks.Insert(listID, &tasksapi.Task{Title: title, Notes: notes}).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("add task", err)
	}
	t := taskFromAPI(created)
	return &t, nil
}

// PatchTask updates only the fields named by patch.
func (g *GoogleTasks) PatchTask(ctx context.Context, listID, taskID string, patch TaskPatch) (*models.Task, error) {
	body := &tasksapi.Task{}
	if patch.Status != nil {
		body.Status = string(*patch.Status)
		if *patch.Status == models.TaskStatusNeedsAction {
			// Un-completing requires the completion timestamp to be dropped.
			body.NullFields = append(body.NullFields, "Completed")
		}
	}
	if patch.Title != nil {
		body.Title = *patch.Title
		body.ForceSendFields = append(body.ForceSendFields, "Title")
	}
	if patch.Notes != nil {
		body.Notes = *patch.Notes
		body.ForceSendFields = append(body.ForceSendFields, "Notes")
	}

	updated, err := g.svc.Tasks.Patch(listID, taskID, body).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("patch task", err)
	}
	t := taskFromAPI(updated)
	return &t, nil
}

// DeleteTask removes a task from its list.
func (g *GoogleTasks) DeleteTask(ctx context.Context, listID, taskID string) error {
	if err := g.svc.Tasks.Delete(listID, taskID).Context(ctx).Do(); err != nil {
		return wrapErr("delete task", err)
	}
	return nil
}

// taskFromAPI converts an API task into the domain type. Unparseable
// timestamps are dropped rather than failing the whole fetch.
func taskFromAPI(t *tasksapi.Task) models.Task {
	task := models.Task{
		ID:     t.Id,
		Title:  t.Title,
		Status: models.TaskStatus(t.Status),
		Notes:  t.Notes,
	}
	if t.Due != "" {
		if due, err := time.Parse(time.RFC3339, t.Due); err == nil {
			task.Due = &due
		}
	}
	if t.Updated != "" {
		if updated, err := time.Parse(time.RFC3339, t.Updated); err == nil {
			task.Updated = &updated
		}
	}
	return task
}
