package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/delesslingw/TODOIT/internal/models"
	"github.com/delesslingw/TODOIT/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Strikethrough(true)

	focusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	timerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	promptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 2)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			MarginTop(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

// View implements tea.Model
func (a *App) View() string {
	switch a.mode {
	case modeLists:
		return a.viewLists()
	case modeTasks:
		return a.viewTasks()
	case modePrompt:
		return a.viewPrompt()
	case modeAccomplishment:
		return a.viewAccomplishment()
	}
	return ""
}

func (a *App) viewLists() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TODOIT / Task Lists"))
	b.WriteString("\n")

	if a.loading {
		b.WriteString(a.spin.View() + " Loading lists...\n")
	} else if len(a.lists) == 0 {
		b.WriteString(dimStyle.Render("No task lists found.") + "\n")
	}

	for i, l := range a.lists {
		title := a.listTitles[l.ID]
		line := "  " + title
		if i == a.listIdx {
			line = selectedStyle.Render("> " + title)
		}
		b.WriteString(line + "\n")
	}

	a.writeMessage(&b)
	b.WriteString(helpStyle.Render("enter: open  r: reload  q: quit"))
	return b.String()
}

func (a *App) viewTasks() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TODOIT / " + a.listTitle()))
	b.WriteString("\n")

	if a.machine.Phase() == session.PhaseRunning {
		b.WriteString(a.viewTimer())
		b.WriteString("\n")
	}

	if a.loading {
		b.WriteString(a.spin.View() + " Loading tasks...\n")
	} else if len(a.tasks) == 0 {
		b.WriteString(dimStyle.Render("No tasks here.") + "\n")
	}

	highlighted := a.machine.Highlighted()
	for i, task := range a.tasks {
		b.WriteString(a.renderTaskLine(task, i == a.taskIdx, highlighted) + "\n")
	}

	a.writeMessage(&b)
	if a.machine.Phase() == session.PhaseRunning {
		b.WriteString(helpStyle.Render("space: check off  p: focus task  e: end session  q: quit"))
	} else {
		b.WriteString(helpStyle.Render("space: check off  s: start focus  r: reload  esc: lists  q: quit"))
	}
	return b.String()
}

// viewTimer renders the countdown header with a progress bar. Remaining time
// comes from wall-clock timestamps, so it is correct even after the terminal
// was backgrounded for a while.
func (a *App) viewTimer() string {
	snap := a.machine.Timer().Snapshot()

	elapsed := snap.Elapsed.Millis()
	remaining := snap.Remaining.Millis()
	if remaining < 0 {
		remaining = 0
	}
	percent := 1.0
	if total := elapsed + remaining; total > 0 {
		percent = float64(elapsed) / float64(total)
	}

	return fmt.Sprintf("%s  %s\n%s\n",
		focusStyle.Render("FOCUS"),
		timerStyle.Render(snap.Remaining.String()),
		a.bar.ViewAs(percent),
	)
}

func (a *App) renderTaskLine(task models.Task, selected bool, highlighted string) string {
	check := "[ ]"
	if task.Completed() {
		check = "[x]"
	}

	cursor := "  "
	if selected {
		cursor = "> "
	}

	marker := ""
	if task.ID == highlighted {
		marker = " " + focusStyle.Render("*focus*")
	}

	line := cursor + check + " " + task.Title + marker
	switch {
	case highlighted != "" && task.ID != highlighted:
		// Other tasks are disabled while one is being focused on.
		return dimStyle.Render(line)
	case task.Completed():
		return doneStyle.Render(line)
	case selected:
		return selectedStyle.Render(line)
	}
	return line
}

func (a *App) viewPrompt() string {
	body := fmt.Sprintf("You finished %q!\n\nEnd the focus session?\n\n%s",
		a.promptTask,
		dimStyle.Render("y: end session  n: keep working on other tasks"),
	)
	return promptStyle.Render(body)
}

func (a *App) viewAccomplishment() string {
	summary := a.machine.Summary()
	body := fmt.Sprintf("%s\n\nTasks completed: %d\nFocused for: %s\n\n%s",
		titleStyle.Render("Session complete!"),
		summary.TasksCompleted(),
		summary.CompletedTime(),
		dimStyle.Render("enter: back to tasks"),
	)
	return promptStyle.Render(body)
}

func (a *App) listTitle() string {
	if t, ok := a.listTitles[a.currentList]; ok {
		return t
	}
	return a.currentList
}

func (a *App) writeMessage(b *strings.Builder) {
	if a.message != "" {
		b.WriteString(messageStyle.Render(a.message) + "\n")
	}
}
