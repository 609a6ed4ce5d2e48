package remote

import (
	"errors"
	"strings"
	"testing"

	"github.com/delesslingw/TODOIT/internal/models"
	"google.golang.org/api/googleapi"
	tasksapi "google.golang.org/api/tasks/v1"
)

func TestWrapErrConvertsGoogleAPIError(t *testing.T) {
	gerr := &googleapi.Error{Code: 404, Body: `{"error": "not found"}`}

	err := wrapErr("patch task", gerr)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Status != 404 {
		t.Errorf("Expected status 404, got %d", apiErr.Status)
	}
	if !strings.Contains(apiErr.Body, "not found") {
		t.Errorf("Body lost in translation: %q", apiErr.Body)
	}
	if !strings.HasPrefix(err.Error(), "patch task: ") {
		t.Errorf("Operation missing from error: %q", err.Error())
	}
}

func TestWrapErrPassesThroughOtherErrors(t *testing.T) {
	cause := errors.New("connection refused")

	err := wrapErr("list tasks", cause)

	if !errors.Is(err, cause) {
		t.Errorf("Cause not wrapped: %v", err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Error("Transport error should not become an APIError")
	}
}

func TestTaskFromAPI(t *testing.T) {
	in := &tasksapi.Task{
		Id:      "t1",
		Title:   "Write report",
		Status:  "needsAction",
		Notes:   "due friday",
		Due:     "2025-06-06T00:00:00Z",
		Updated: "2025-06-01T10:30:00Z",
	}

	got := taskFromAPI(in)

	if got.ID != "t1" || got.Title != "Write report" || got.Notes != "due friday" {
		t.Errorf("Field mismatch: %+v", got)
	}
	if got.Status != models.TaskStatusNeedsAction {
		t.Errorf("Unexpected status: %q", got.Status)
	}
	if got.Due == nil || got.Due.Day() != 6 {
		t.Errorf("Due not parsed: %v", got.Due)
	}
	if got.Updated == nil {
		t.Error("Updated not parsed")
	}
}

func TestTaskFromAPIDropsBadTimestamps(t *testing.T) {
	in := &tasksapi.Task{Id: "t1", Title: "x", Status: "completed", Due: "not-a-date"}

	got := taskFromAPI(in)

	if got.Due != nil {
		t.Errorf("Bad timestamp should be dropped, got %v", got.Due)
	}
	if !got.Completed() {
		t.Error("Status lost")
	}
}

func TestStatusPatch(t *testing.T) {
	p := StatusPatch(models.TaskStatusCompleted)
	if p.Status == nil || *p.Status != models.TaskStatusCompleted {
		t.Errorf("Unexpected patch: %+v", p)
	}
	if p.Title != nil || p.Notes != nil {
		t.Error("Status patch must touch status only")
	}
}
