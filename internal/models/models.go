// Package models defines the core domain types for TODOIT.
package models

import (
	"fmt"
	"time"
)

// TaskStatus is the completion state of a task as the remote store reports it.
type TaskStatus string

const (
	TaskStatusNeedsAction TaskStatus = "needsAction"
	TaskStatusCompleted   TaskStatus = "completed"
)

// Task mirrors a single task from the remote store. The id is unique within
// its list, not globally.
type Task struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Status  TaskStatus `json:"status"`
	Notes   string     `json:"notes,omitempty"`
	Due     *time.Time `json:"due,omitempty"`
	Updated *time.Time `json:"updated,omitempty"`
}

// Completed reports whether the task is in the completed state.
func (t Task) Completed() bool {
	return t.Status == TaskStatusCompleted
}

// TaskList is a remote task list. Tasks are fetched separately and cached per
// list id.
type TaskList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// shortIDLen is how many id characters are appended to disambiguate lists
// that share a title.
const shortIDLen = 6

// DisplayTitles returns a UI label per list, keyed by list id. Lists are
// grouped by title; when two lists share a title, each label gets a truncated
// id suffix so both remain selectable.
func DisplayTitles(lists []TaskList) map[string]string {
	counts := make(map[string]int, len(lists))
	for _, l := range lists {
		counts[l.Title]++
	}

	titles := make(map[string]string, len(lists))
	for _, l := range lists {
		if counts[l.Title] <= 1 {
			titles[l.ID] = l.Title
			continue
		}
		id := l.ID
		if len(id) > shortIDLen {
			id = id[:shortIDLen]
		}
		titles[l.ID] = fmt.Sprintf("%s (%s)", l.Title, id)
	}
	return titles
}

// ToggledStatus returns the status a task should carry after the user flips
// its checkbox.
func ToggledStatus(completed bool) TaskStatus {
	if completed {
		return TaskStatusCompleted
	}
	return TaskStatusNeedsAction
}
