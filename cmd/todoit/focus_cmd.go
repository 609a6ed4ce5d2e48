package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/delesslingw/TODOIT/internal/config"
	"github.com/delesslingw/TODOIT/internal/notify"
	"github.com/delesslingw/TODOIT/internal/session"
	"github.com/delesslingw/TODOIT/internal/timer"
	"github.com/spf13/cobra"
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Run a focus session in the terminal",
	Long:  `Run a headless focus session: a countdown in the terminal plus a desktop notification when time is up. Ctrl+C ends the session early.`,
	RunE:  runFocus,
}

var focusMinutes int

func init() {
	focusCmd.Flags().IntVar(&focusMinutes, "minutes", 0, "Session length in minutes (default: configured value)")
}

func runFocus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	minutes := cfg.FocusMinutes
	if focusMinutes > 0 {
		minutes = focusMinutes
	}

	engine := timer.New(timer.SystemClock, notify.NewDesktop(), cfg.NotifyChannel)
	machine := session.NewMachine(engine, session.NewSummary())
	if err := machine.Start(time.Duration(minutes) * time.Minute); err != nil {
		return err
	}

	fmt.Printf("Focus session started: %d minutes. Ctrl+C to end early.\n", minutes)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if machine.CheckExpiry() {
				fmt.Print("\r00:00          \n")
				fmt.Println("Time's up!")
				return nil
			}
			snap := engine.Snapshot()
			fmt.Printf("\r%s remaining  ", snap.Remaining)
		case <-sigCh:
			elapsed := engine.Snapshot().Elapsed
			if _, err := machine.End(); err != nil {
				return err
			}
			fmt.Printf("\nSession ended after %s\n", elapsed)
			return nil
		case <-cmd.Context().Done():
			machine.End()
			return cmd.Context().Err()
		}
	}
}
