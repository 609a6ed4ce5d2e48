package main

import (
	"fmt"

	"github.com/delesslingw/TODOIT/internal/update"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the todoit version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("todoit", update.Version)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update todoit to the latest release",
	RunE:  runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	checker, err := update.NewChecker()
	if err != nil {
		return err
	}

	fmt.Printf("Current version: %s\n", update.Version)
	hasUpdate, latest, err := checker.CheckForUpdate()
	if err != nil {
		return err
	}
	if !hasUpdate {
		fmt.Println("Already up to date")
		return nil
	}

	fmt.Printf("Updating to %s...\n", latest)
	if err := checker.DownloadAndInstall(); err != nil {
		return err
	}
	fmt.Printf("Updated to %s\n", latest)
	return nil
}
