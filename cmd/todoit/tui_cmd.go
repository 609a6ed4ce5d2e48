package main

import (
	"fmt"

	"github.com/delesslingw/TODOIT/internal/auth"
	"github.com/delesslingw/TODOIT/internal/config"
	"github.com/delesslingw/TODOIT/internal/notify"
	"github.com/delesslingw/TODOIT/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	mgr, err := newAuthManager()
	if err != nil {
		return err
	}
	if !mgr.IsAuthenticated() {
		return auth.ErrNotAuthenticated
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	app := tui.New(client, cfg, notify.NewDesktop())
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
