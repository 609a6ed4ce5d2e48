// Package notify schedules wall-clock desktop notifications for session end.
//
// Scheduling never fails hard: every outcome is reported through the Result
// OK flag so callers can treat a missing notification daemon as cosmetic.
package notify

import (
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Request describes a notification to deliver.
type Request struct {
	Title     string
	Body      string
	ChannelID string
	Data      map[string]string
}

// Result reports the outcome of a Schedule call.
type Result struct {
	OK             bool
	NotificationID string
}

// Scheduler schedules and cancels wall-clock notifications.
type Scheduler interface {
	Schedule(req Request, at time.Time) Result
	CancelScheduled(id string)
}

// Desktop delivers notifications through the platform notifier binary.
type Desktop struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	deliver func(Request) error
}

// NewDesktop creates a Desktop scheduler.
func NewDesktop() *Desktop {
	return &Desktop{
		pending: make(map[string]*time.Timer),
		deliver: deliver,
	}
}

// Schedule arms a timer that delivers req at the given wall-clock instant.
// A target in the past fires immediately.
func (d *Desktop) Schedule(req Request, at time.Time) Result {
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}

	id := uuid.New().String()

	d.mu.Lock()
	d.pending[id] = time.AfterFunc(delay, func() {
		d.fire(id, req)
	})
	d.mu.Unlock()

	return Result{OK: true, NotificationID: id}
}

// CancelScheduled stops a pending notification. Unknown ids are ignored.
func (d *Desktop) CancelScheduled(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.pending[id]; ok {
		t.Stop()
		delete(d.pending, id)
	}
}

func (d *Desktop) fire(id string, req Request) {
	d.mu.Lock()
	delete(d.pending, id)
	d.mu.Unlock()

	if err := d.deliver(req); err != nil {
		log.Printf("Notification delivery failed: %v", err)
	}
}

// deliver shells out to the platform notification command.
func deliver(req Request) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("notify-send", "--category", req.ChannelID, req.Title, req.Body)
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", req.Body, req.Title)
		cmd = exec.Command("osascript", "-e", script)
	case "windows":
		script := fmt.Sprintf("New-BurntToastNotification -Text %q, %q", req.Title, req.Body)
		cmd = exec.Command("powershell", "-NoProfile", "-Command", script)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Run()
}
