// Package session tracks the focus-session lifecycle: the coarse phase
// (idle, running, accomplishment), the optional highlighted task, and the
// summary shown when a session ends.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/delesslingw/TODOIT/internal/timer"
)

// Phase is the coarse session state. Exactly one phase is active at a time.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseAccomplishment
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseAccomplishment:
		return "accomplishment"
	default:
		return "unknown"
	}
}

// Decision is the user's answer to the prompt shown after checking off the
// highlighted task.
type Decision int

const (
	// DecisionEndSession ends the session from the prompt.
	DecisionEndSession Decision = iota
	// DecisionContinueOthers keeps the session running with no highlight.
	DecisionContinueOthers
)

// Sentinel errors for illegal transitions.
var (
	ErrSessionActive      = errors.New("a session is already active")
	ErrNoSession          = errors.New("no session is running")
	ErrAlreadyHighlighted = errors.New("another task is already highlighted")
	ErrNoHighlight        = errors.New("no task is highlighted")
	ErrNoSummary          = errors.New("no summary is being shown")
)

// Summary accumulates the numbers shown on the accomplishment screen. The
// completed count only grows during a session and is reset exactly once, when
// the summary is dismissed.
type Summary struct {
	mu             sync.Mutex
	tasksCompleted int
	completedTime  string
}

// NewSummary creates an empty Summary.
func NewSummary() *Summary {
	return &Summary{}
}

// Increment adds n confirmed completions. Non-positive n is ignored.
func (s *Summary) Increment(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.tasksCompleted += n
	s.mu.Unlock()
}

// ResetTasksCompleted zeroes the completed count.
func (s *Summary) ResetTasksCompleted() {
	s.mu.Lock()
	s.tasksCompleted = 0
	s.mu.Unlock()
}

// TasksCompleted returns the running total.
func (s *Summary) TasksCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasksCompleted
}

// SetCompletedTime records the display string for elapsed time at session
// end. Overwritten each time a session ends.
func (s *Summary) SetCompletedTime(v string) {
	s.mu.Lock()
	s.completedTime = v
	s.mu.Unlock()
}

// CompletedTime returns the recorded elapsed-time string.
func (s *Summary) CompletedTime() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedTime
}

// Machine is the session phase machine. It owns the phase, the highlighted
// task id, and the one-shot latch that makes the expiry transition fire
// exactly once per session.
type Machine struct {
	mu          sync.Mutex
	phase       Phase
	highlighted string
	expiryArmed bool

	timer   *timer.Engine
	summary *Summary
}

// NewMachine creates a Machine in the idle phase.
func NewMachine(engine *timer.Engine, summary *Summary) *Machine {
	return &Machine{
		phase:   PhaseIdle,
		timer:   engine,
		summary: summary,
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Highlighted returns the highlighted task id, empty when none.
func (m *Machine) Highlighted() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.highlighted
}

// Summary returns the summary accumulator owned by this machine's session.
func (m *Machine) Summary() *Summary {
	return m.summary
}

// Timer returns the timer engine driving this machine.
func (m *Machine) Timer() *timer.Engine {
	return m.timer
}

// Start transitions Idle -> Running with no highlight, starts the countdown,
// and arms the expiry latch.
func (m *Machine) Start(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseIdle {
		return ErrSessionActive
	}
	m.phase = PhaseRunning
	m.highlighted = ""
	m.expiryArmed = true
	m.timer.Start(d)
	return nil
}

// Highlight marks one task as the exclusive focus of the running session.
// Only legal while no other task is highlighted.
func (m *Machine) Highlight(taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseRunning {
		return ErrNoSession
	}
	if m.highlighted != "" && m.highlighted != taskID {
		return ErrAlreadyHighlighted
	}
	m.highlighted = taskID
	return nil
}

// CanInteract reports whether the given task may be started or toggled right
// now. While a task is highlighted, every other task is disabled.
func (m *Machine) CanInteract(taskID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseRunning && m.highlighted != "" && m.highlighted != taskID {
		return false
	}
	return true
}

// ResolveCompletionPrompt consumes the user's answer to the prompt shown
// after checking off the highlighted task. The phase does not change until
// this is called.
func (m *Machine) ResolveCompletionPrompt(d Decision) (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseRunning {
		return m.phase, ErrNoSession
	}
	if m.highlighted == "" {
		return m.phase, ErrNoHighlight
	}

	switch d {
	case DecisionEndSession:
		return m.endLocked(), nil
	default:
		m.highlighted = ""
		return m.phase, nil
	}
}

// ReleaseHighlight drops the highlighted task without ending the session,
// for when the task disappears from the list underneath us. A no-op outside
// a running session.
func (m *Machine) ReleaseHighlight() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseRunning {
		m.highlighted = ""
	}
}

// End finishes the running session on explicit user action. With zero
// completed tasks the machine goes straight back to idle rather than showing
// an empty summary.
func (m *Machine) End() (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseRunning {
		return m.phase, ErrNoSession
	}
	return m.endLocked(), nil
}

// CheckExpiry fires the timeout transition when the countdown has run out.
// It reports true at most once per session: the latch is armed by Start and
// consumed here, so repeated checks in quick succession observe the
// transition exactly once.
func (m *Machine) CheckExpiry() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseRunning || !m.expiryArmed || !m.timer.Active() {
		return false
	}
	if !m.timer.Snapshot().Expired() {
		return false
	}
	m.expiryArmed = false
	m.endLocked()
	return true
}

// Dismiss leaves the accomplishment screen, resetting the completed count.
func (m *Machine) Dismiss() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseAccomplishment {
		return ErrNoSummary
	}
	m.phase = PhaseIdle
	m.summary.ResetTasksCompleted()
	return nil
}

// endLocked performs the shared end-of-session transition. The elapsed
// reading is captured before the timer is cleared.
func (m *Machine) endLocked() Phase {
	elapsed := m.timer.Snapshot().Elapsed.String()
	m.timer.Clear()
	m.expiryArmed = false
	m.highlighted = ""

	if m.summary.TasksCompleted() == 0 {
		m.phase = PhaseIdle
	} else {
		m.summary.SetCompletedTime(elapsed)
		m.phase = PhaseAccomplishment
	}
	return m.phase
}
