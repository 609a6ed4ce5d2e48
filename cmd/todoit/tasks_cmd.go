package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/delesslingw/TODOIT/internal/config"
	"github.com/delesslingw/TODOIT/internal/models"
	"github.com/delesslingw/TODOIT/internal/remote"
	"github.com/spf13/cobra"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Show your task lists",
	RunE:  runLists,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTasksList,
}

var tasksAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksAdd,
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done [task]",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDone,
}

var tasksUndoCmd = &cobra.Command{
	Use:   "undo [task]",
	Short: "Mark a completed task as pending again",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksUndo,
}

var tasksRmCmd = &cobra.Command{
	Use:   "rm [task]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksRm,
}

var (
	listRef   string
	taskNotes string
	showAll   bool
)

func init() {
	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksDoneCmd, tasksUndoCmd, tasksRmCmd)

	tasksCmd.PersistentFlags().StringVar(&listRef, "list", "", "List id or title (default: configured list)")
	tasksListCmd.Flags().BoolVar(&showAll, "all", false, "Include completed tasks")
	tasksAddCmd.Flags().StringVar(&taskNotes, "notes", "", "Task notes")
}

func runLists(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	lists, err := client.ListTaskLists(cmd.Context())
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		fmt.Println("No task lists found")
		return nil
	}

	titles := models.DisplayTitles(lists)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE")
	for _, l := range lists {
		fmt.Fprintf(w, "%s\t%s\n", l.ID, titles[l.ID])
	}
	return w.Flush()
}

func runTasksList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, cfg, err := clientAndConfig(cmd)
	if err != nil {
		return err
	}
	listID, err := resolveList(ctx, client, cfg, listRef)
	if err != nil {
		return err
	}

	tasks, err := client.ListTasks(ctx, listID, remote.ListTasksOptions{
		ShowCompleted: showAll || !cfg.HideCompleted,
	})
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tTITLE\tDUE\tID")
	for _, t := range tasks {
		check := " "
		if t.Completed() {
			check = "x"
		}
		due := ""
		if t.Due != nil {
			due = t.Due.Format("2006-01-02")
		}
		fmt.Fprintf(w, "[%s]\t%s\t%s\t%s\n", check, truncate(t.Title, 40), due, t.ID)
	}
	return w.Flush()
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, cfg, err := clientAndConfig(cmd)
	if err != nil {
		return err
	}
	listID, err := resolveList(ctx, client, cfg, listRef)
	if err != nil {
		return err
	}

	task, err := client.AddTask(ctx, listID, args[0], taskNotes)
	if err != nil {
		return err
	}
	fmt.Printf("Created task: %s\n", task.ID)
	return nil
}

func runTasksDone(cmd *cobra.Command, args []string) error {
	return setTaskStatus(cmd, args[0], models.TaskStatusCompleted)
}

func runTasksUndo(cmd *cobra.Command, args []string) error {
	return setTaskStatus(cmd, args[0], models.TaskStatusNeedsAction)
}

func setTaskStatus(cmd *cobra.Command, ref string, status models.TaskStatus) error {
	ctx := cmd.Context()
	client, cfg, err := clientAndConfig(cmd)
	if err != nil {
		return err
	}
	listID, err := resolveList(ctx, client, cfg, listRef)
	if err != nil {
		return err
	}
	task, err := resolveTask(ctx, client, listID, ref)
	if err != nil {
		return err
	}

	if _, err := client.PatchTask(ctx, listID, task.ID, remote.StatusPatch(status)); err != nil {
		return err
	}
	if status == models.TaskStatusCompleted {
		fmt.Printf("Completed: %s\n", task.Title)
	} else {
		fmt.Printf("Reopened: %s\n", task.Title)
	}
	return nil
}

func runTasksRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, cfg, err := clientAndConfig(cmd)
	if err != nil {
		return err
	}
	listID, err := resolveList(ctx, client, cfg, listRef)
	if err != nil {
		return err
	}
	task, err := resolveTask(ctx, client, listID, args[0])
	if err != nil {
		return err
	}

	if err := client.DeleteTask(ctx, listID, task.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted: %s\n", task.Title)
	return nil
}

func clientAndConfig(cmd *cobra.Command) (remote.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	client, err := newClient(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}
