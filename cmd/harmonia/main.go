package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"harmonia/internal/config"
	"harmonia/internal/logging"
	"harmonia/internal/steward"
	"harmonia/internal/store"
	"harmonia/internal/telemetry"
)

var (
	// Global flags
	workspace  string
	configPath string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "harmonia",
	Short: "harmonia - autonomous project stewardship engine",
	Long: `harmonia watches a team's activity stream and keeps the project healthy.

It scores team harmony across five categories, predicts emerging
patterns before they surface, turns detected gaps into prioritized
missions, and assigns them to members under workload and growth
constraints. Every decision is weighted toward collective benefit.

Run 'harmonia run' to start the engine, or use the one-shot commands
(analyze, predict, missions) against the current telemetry.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve workspace: %w", err)
			}
			workspace = wd
		}
		if err := logging.Initialize(workspace); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: logging unavailable: %v\n", err)
		}
		if verbose {
			logging.EnableDebug()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: <workspace>/.harmonia/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(missionsCmd)
	rootCmd.AddCommand(improveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the workspace config, falling back to defaults when
// no file exists.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(workspace, ".harmonia", "config.yaml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		return cfg, nil
	}
	return config.Load(path)
}

// buildEngine wires the hub, store, and orchestrator for one invocation.
// The caller owns the returned store and must Close it.
func buildEngine() (*steward.Orchestrator, *telemetry.Hub, *store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	hub := telemetry.NewHub()
	rosterPath := filepath.Join(workspace, ".harmonia", "roster.yaml")
	if _, err := os.Stat(rosterPath); err == nil {
		if err := hub.LoadRoster(rosterPath); err != nil {
			return nil, nil, nil, err
		}
	}

	db, err := store.NewStore(filepath.Join(workspace, ".harmonia"))
	if err != nil {
		return nil, nil, nil, err
	}

	engine, err := steward.NewOrchestrator(cfg, hub, steward.WithStateStore(db))
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return engine, hub, db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
