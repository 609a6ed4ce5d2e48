package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/delesslingw/TODOIT/internal/auth"
	"github.com/delesslingw/TODOIT/internal/config"
	"github.com/delesslingw/TODOIT/internal/models"
	"github.com/delesslingw/TODOIT/internal/remote"
)

// newAuthManager creates the auth manager rooted in the config directory.
func newAuthManager() (*auth.Manager, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return auth.NewManager(dir)
}

// newClient builds an authenticated Google Tasks client.
func newClient(ctx context.Context) (remote.Client, error) {
	mgr, err := newAuthManager()
	if err != nil {
		return nil, err
	}
	httpClient, err := mgr.Client(ctx)
	if err != nil {
		return nil, err
	}
	return remote.NewGoogleTasks(ctx, httpClient)
}

// resolveList maps a user-supplied list reference (id, exact title, or title
// prefix) to a list id. An empty ref falls back to the configured default
// list, then to the first list.
func resolveList(ctx context.Context, client remote.Client, cfg *config.Config, ref string) (string, error) {
	lists, err := client.ListTaskLists(ctx)
	if err != nil {
		return "", err
	}
	if len(lists) == 0 {
		return "", fmt.Errorf("no task lists found")
	}

	if ref == "" {
		if cfg.DefaultList != "" {
			for _, l := range lists {
				if l.ID == cfg.DefaultList {
					return l.ID, nil
				}
			}
		}
		return lists[0].ID, nil
	}

	for _, l := range lists {
		if l.ID == ref || l.Title == ref {
			return l.ID, nil
		}
	}
	var prefixed []models.TaskList
	for _, l := range lists {
		if strings.HasPrefix(strings.ToLower(l.Title), strings.ToLower(ref)) {
			prefixed = append(prefixed, l)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0].ID, nil
	case 0:
		return "", fmt.Errorf("no list matches %q", ref)
	default:
		titles := models.DisplayTitles(prefixed)
		names := make([]string, 0, len(prefixed))
		for _, l := range prefixed {
			names = append(names, titles[l.ID])
		}
		return "", fmt.Errorf("list %q is ambiguous: %s", ref, strings.Join(names, ", "))
	}
}

// resolveTask maps a task reference (id, exact title, or title prefix) within
// a list to a task id.
func resolveTask(ctx context.Context, client remote.Client, listID, ref string) (models.Task, error) {
	tasks, err := client.ListTasks(ctx, listID, remote.ListTasksOptions{ShowCompleted: true})
	if err != nil {
		return models.Task{}, err
	}

	for _, t := range tasks {
		if t.ID == ref || t.Title == ref {
			return t, nil
		}
	}
	var prefixed []models.Task
	for _, t := range tasks {
		if strings.HasPrefix(strings.ToLower(t.Title), strings.ToLower(ref)) {
			prefixed = append(prefixed, t)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0], nil
	case 0:
		return models.Task{}, fmt.Errorf("no task matches %q", ref)
	default:
		return models.Task{}, fmt.Errorf("task %q is ambiguous (%d matches)", ref, len(prefixed))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
