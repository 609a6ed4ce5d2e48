// Package tui provides the interactive terminal UI for TODOIT.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/delesslingw/TODOIT/internal/cache"
	"github.com/delesslingw/TODOIT/internal/config"
	"github.com/delesslingw/TODOIT/internal/models"
	"github.com/delesslingw/TODOIT/internal/notify"
	"github.com/delesslingw/TODOIT/internal/remote"
	"github.com/delesslingw/TODOIT/internal/session"
	"github.com/delesslingw/TODOIT/internal/syncer"
	"github.com/delesslingw/TODOIT/internal/timer"
)

// View modes.
const (
	modeLists          = "lists"
	modeTasks          = "tasks"
	modePrompt         = "prompt"
	modeAccomplishment = "accomplishment"
)

// App is the main TUI application model.
type App struct {
	client  remote.Client
	cache   *cache.Store
	machine *session.Machine
	sync    *syncer.Syncer
	cfg     *config.Config

	lists      []models.TaskList
	listTitles map[string]string
	listIdx    int

	currentList string
	tasks       []models.Task
	taskIdx     int

	mode       string
	promptTask string

	bar     progress.Model
	spin    spinner.Model
	loading bool
	message string
	width   int
	height  int
}

// New creates a new TUI application wired to the given store client.
func New(client remote.Client, cfg *config.Config, notifier notify.Scheduler) *App {
	engine := timer.New(timer.SystemClock, notifier, cfg.NotifyChannel)
	machine := session.NewMachine(engine, session.NewSummary())
	store := cache.New()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &App{
		client:  client,
		cache:   store,
		machine: machine,
		sync:    syncer.New(store, client, machine),
		cfg:     cfg,
		mode:    modeLists,
		bar:     progress.New(progress.WithDefaultGradient()),
		spin:    sp,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, a.fetchLists())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.bar.Width = msg.Width - 8

	case listsLoadedMsg:
		a.loading = false
		a.lists = msg.lists
		a.listTitles = models.DisplayTitles(msg.lists)
		if a.listIdx >= len(a.lists) {
			a.listIdx = max(0, len(a.lists)-1)
		}
		if a.cfg.DefaultList != "" && a.currentList == "" {
			for _, l := range a.lists {
				if l.ID == a.cfg.DefaultList {
					return a, a.openList(l.ID)
				}
			}
		}

	case tasksLoadedMsg:
		a.loading = false
		a.refreshTasksFromCache()

	case toggleSettledMsg:
		if msg.err != nil {
			// The optimistic write has already been rolled back; the
			// checkbox reverts on the next cache read.
			a.message = "Sync failed: " + msg.err.Error()
		}
		a.refreshTasksFromCache()

	case tickMsg:
		if a.machine.CheckExpiry() {
			a.onSessionEnded()
		}
		a.refreshTasksFromCache()
		if a.machine.Phase() == session.PhaseRunning {
			return a, a.tickCmd()
		}

	case errMsg:
		a.loading = false
		a.message = "Error: " + msg.err.Error()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.mode {
	case modePrompt:
		return a.handlePromptKey(msg)
	case modeAccomplishment:
		return a.handleAccomplishmentKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit

	case "esc":
		if a.mode == modeTasks && a.machine.Phase() != session.PhaseRunning {
			a.mode = modeLists
			a.currentList = ""
			return a, a.fetchLists()
		}

	case "up", "k":
		if a.mode == modeLists && a.listIdx > 0 {
			a.listIdx--
		} else if a.mode == modeTasks && a.taskIdx > 0 {
			a.taskIdx--
		}

	case "down", "j":
		if a.mode == modeLists && a.listIdx < len(a.lists)-1 {
			a.listIdx++
		} else if a.mode == modeTasks && a.taskIdx < len(a.tasks)-1 {
			a.taskIdx++
		}

	case "enter":
		if a.mode == modeLists && len(a.lists) > 0 {
			return a, a.openList(a.lists[a.listIdx].ID)
		}

	case "r":
		if a.mode == modeTasks {
			return a, a.reloadTasks()
		}
		return a, a.fetchLists()

	case "s":
		if a.mode == modeTasks && a.machine.Phase() == session.PhaseIdle {
			d := time.Duration(a.cfg.FocusMinutes) * time.Minute
			if err := a.machine.Start(d); err != nil {
				a.message = "Error: " + err.Error()
				return a, nil
			}
			a.message = fmt.Sprintf("Focus session started (%d min)", a.cfg.FocusMinutes)
			return a, a.tickCmd()
		}

	case "e":
		if a.machine.Phase() == session.PhaseRunning {
			if _, err := a.machine.End(); err != nil {
				a.message = "Error: " + err.Error()
				return a, nil
			}
			a.onSessionEnded()
		}

	case "p":
		if a.mode == modeTasks && len(a.tasks) > 0 {
			task := a.tasks[a.taskIdx]
			if err := a.machine.Highlight(task.ID); err != nil {
				a.message = "Error: " + err.Error()
			} else {
				a.message = "Focusing on: " + task.Title
			}
		}

	case " ", "x":
		if a.mode == modeTasks && len(a.tasks) > 0 {
			return a, a.toggleSelected()
		}
	}

	return a, nil
}

func (a *App) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		phase, err := a.machine.ResolveCompletionPrompt(session.DecisionEndSession)
		if err != nil {
			a.message = "Error: " + err.Error()
			a.mode = modeTasks
			return a, nil
		}
		a.promptTask = ""
		if phase == session.PhaseAccomplishment {
			a.mode = modeAccomplishment
		} else {
			a.mode = modeTasks
			a.message = "Session ended"
		}
	case "n", "esc":
		if _, err := a.machine.ResolveCompletionPrompt(session.DecisionContinueOthers); err != nil {
			a.message = "Error: " + err.Error()
		}
		a.promptTask = ""
		a.mode = modeTasks
	case "ctrl+c":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleAccomplishmentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ":
		if err := a.machine.Dismiss(); err != nil {
			a.message = "Error: " + err.Error()
		}
		a.mode = modeTasks
		return a, a.reloadTasks()
	case "ctrl+c", "q":
		return a, tea.Quit
	}
	return a, nil
}

// onSessionEnded routes the UI after the session finished, whether by user
// action or timer expiry.
func (a *App) onSessionEnded() {
	a.promptTask = ""
	if a.machine.Phase() == session.PhaseAccomplishment {
		a.mode = modeAccomplishment
	} else {
		if a.mode == modePrompt {
			a.mode = modeTasks
		}
		a.message = "Session ended"
	}
}

// toggleSelected flips the selected task's checkbox through the syncer. The
// summary and phase react immediately; the network settles in the
// background.
func (a *App) toggleSelected() tea.Cmd {
	task := a.tasks[a.taskIdx]
	completed := !task.Completed()

	settled, ok := a.sync.Toggle(context.Background(), a.currentList, task.ID, completed)
	if !ok {
		a.message = "Only the focused task can be checked right now"
		return nil
	}

	if completed && a.machine.Phase() == session.PhaseRunning {
		a.machine.Summary().Increment(1)
		if a.machine.Highlighted() == task.ID {
			a.promptTask = task.Title
			a.mode = modePrompt
		}
	}
	a.refreshTasksFromCache()

	taskID := task.ID
	return func() tea.Msg {
		return toggleSettledMsg{taskID: taskID, err: <-settled}
	}
}

// refreshTasksFromCache rebuilds the visible task rows from the cache. If a
// highlighted task vanished from the latest snapshot (deleted elsewhere),
// the highlight is released so the session is not stuck.
func (a *App) refreshTasksFromCache() {
	if a.currentList == "" {
		return
	}
	v, ok := a.cache.Get(cache.TasksKey(a.currentList))
	if !ok {
		return
	}
	a.tasks = v.([]models.Task)
	if a.taskIdx >= len(a.tasks) {
		a.taskIdx = max(0, len(a.tasks)-1)
	}

	// While the completion prompt is pending the highlight belongs to it;
	// only the user's answer may settle the session. A checked-off task
	// vanishing from a hide-completed refetch must not answer for them.
	if a.mode == modePrompt {
		return
	}

	if h := a.machine.Highlighted(); h != "" {
		found := false
		for _, t := range a.tasks {
			if t.ID == h {
				found = true
				break
			}
		}
		if !found {
			a.machine.ReleaseHighlight()
		}
	}
}

func (a *App) openList(listID string) tea.Cmd {
	a.currentList = listID
	a.mode = modeTasks
	a.taskIdx = 0
	a.message = ""

	key := cache.TasksKey(listID)
	a.cache.Register(key, func(ctx context.Context) (any, error) {
		tasks, err := a.client.ListTasks(ctx, listID, remote.ListTasksOptions{
			ShowCompleted: !a.cfg.HideCompleted,
		})
		if err != nil {
			return nil, err
		}
		return tasks, nil
	})
	return a.reloadTasks()
}

func (a *App) reloadTasks() tea.Cmd {
	a.loading = true
	listID := a.currentList
	return func() tea.Msg {
		if err := a.cache.Refresh(context.Background(), cache.TasksKey(listID)); err != nil {
			return errMsg{err}
		}
		return tasksLoadedMsg{}
	}
}

func (a *App) fetchLists() tea.Cmd {
	a.loading = true
	return func() tea.Msg {
		lists, err := a.client.ListTaskLists(context.Background())
		if err != nil {
			return errMsg{err}
		}
		a.cache.Set(cache.ListsKey(), lists)
		return listsLoadedMsg{lists}
	}
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type listsLoadedMsg struct {
	lists []models.TaskList
}

type tasksLoadedMsg struct{}

type toggleSettledMsg struct {
	taskID string
	err    error
}

type errMsg struct {
	err error
}

type tickMsg time.Time
