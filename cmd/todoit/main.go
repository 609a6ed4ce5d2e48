package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "todoit",
	Short: "TODOIT - focus timer for your Google Tasks",
	Long:  `TODOIT pairs your Google Tasks lists with pomodoro-style focus sessions: pick a task, start the clock, and check things off as you go.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(listsCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
