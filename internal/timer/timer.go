// Package timer provides the wall-clock engine behind a focus session.
//
// Elapsed and remaining values are always recomputed from absolute
// timestamps, never from accumulated ticks, so a suspended process resumes
// with correct readings.
package timer

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/delesslingw/TODOIT/internal/notify"
)

// Clock abstracts time.Now so tests can drive the engine deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock used outside of tests.
var SystemClock Clock = systemClock{}

// Reading is a single duration reading. The raw millisecond value may be
// negative (past the target); display accessors clamp at zero.
type Reading struct {
	ms int64
}

// Millis returns the raw, unclamped millisecond value. Expiry checks must use
// this so exactly-zero and already-negative readings both count as expired.
func (r Reading) Millis() int64 { return r.ms }

// Minutes returns the whole minutes of the clamped reading.
func (r Reading) Minutes() int {
	return int(r.clamped() / int64(time.Minute/time.Millisecond))
}

// Seconds returns the leftover seconds of the clamped reading.
func (r Reading) Seconds() int {
	return int(r.clamped()/1000) % 60
}

// String formats the clamped reading as zero-padded MM:SS.
func (r Reading) String() string {
	return fmt.Sprintf("%02d:%02d", r.Minutes(), r.Seconds())
}

func (r Reading) clamped() int64 {
	if r.ms < 0 {
		return 0
	}
	return r.ms
}

// Snapshot is the engine state as of one instant.
type Snapshot struct {
	Elapsed   Reading
	Remaining Reading
}

// Expired reports whether the remaining time has run out.
func (s Snapshot) Expired() bool {
	return s.Remaining.Millis() <= 0
}

// Engine tracks one focus countdown. State is recreated per session: Start
// resets everything and Clear tears it down.
type Engine struct {
	mu       sync.Mutex
	clock    Clock
	notifier notify.Scheduler
	channel  string

	startTime  time.Time
	targetTime time.Time
	active     bool

	notificationID string
}

// New creates an Engine. notifier may be nil when no companion notification
// is wanted (headless tests).
func New(clock Clock, notifier notify.Scheduler, channelID string) *Engine {
	if clock == nil {
		clock = SystemClock
	}
	return &Engine{clock: clock, notifier: notifier, channel: channelID}
}

// Start begins a countdown of the given duration. Any previously scheduled
// end-of-session notification is cancelled first. Failure to schedule the new
// notification is logged, not fatal; the countdown itself derives from
// wall-clock arithmetic.
func (e *Engine) Start(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelNotificationLocked()

	now := e.clock.Now()
	e.startTime = now
	e.targetTime = now.Add(d)
	e.active = true

	if e.notifier == nil {
		return
	}
	res := e.notifier.Schedule(notify.Request{
		Title:     "Focus session complete",
		Body:      "Time is up. See how you did.",
		ChannelID: e.channel,
		Data:      map[string]string{"kind": "session-end"},
	}, e.targetTime)
	if !res.OK {
		log.Printf("Could not schedule session-end notification")
		return
	}
	e.notificationID = res.NotificationID
}

// Clear stops the countdown and cancels the pending notification. Both
// timestamps are unset together; active is never true with a partial pair.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelNotificationLocked()
	e.startTime = time.Time{}
	e.targetTime = time.Time{}
	e.active = false
}

// Active reports whether a countdown is running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Snapshot returns elapsed and remaining readings as of now. An inactive
// engine reads as all zeros.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return Snapshot{}
	}
	now := e.clock.Now()
	return Snapshot{
		Elapsed:   Reading{ms: now.Sub(e.startTime).Milliseconds()},
		Remaining: Reading{ms: e.targetTime.Sub(now).Milliseconds()},
	}
}

func (e *Engine) cancelNotificationLocked() {
	if e.notificationID == "" {
		return
	}
	if e.notifier != nil {
		e.notifier.CancelScheduled(e.notificationID)
	}
	e.notificationID = ""
}
