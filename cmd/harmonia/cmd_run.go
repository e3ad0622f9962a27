package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"harmonia/internal/telemetry"
)

// runCmd starts the engine and keeps it running until interrupted.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the stewardship engine",
	Long: `Starts the engine loop: periodic harmony analysis, mission
assignment, and (when enabled) evolution cycles. Telemetry bundles
dropped into <workspace>/.harmonia/inbox/ as JSON files are ingested
automatically.

The engine runs until SIGINT or SIGTERM.`,
	RunE: runEngine,
}

func runEngine(cmd *cobra.Command, args []string) error {
	engine, hub, db, err := buildEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := engine.Initialize(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	watcher, err := telemetry.NewInboxWatcher(workspace, hub)
	if err != nil {
		return fmt.Errorf("failed to create inbox watcher: %w", err)
	}
	if err := watcher.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to watch inbox: %w", err)
	}
	defer watcher.Stop()

	inbox := filepath.Join(workspace, ".harmonia", "inbox")

	fmt.Printf("harmonia running: %d triggers, inbox at %s\n", engine.TriggerCount(), inbox)
	fmt.Println("Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	engine.Stop()
	return nil
}
