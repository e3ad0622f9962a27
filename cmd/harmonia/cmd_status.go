package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetForce bool

// statusCmd prints the persisted engine state.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine state",
	RunE:  runStatus,
}

// resetCmd wipes the engine state, keeping critical learnings.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset engine state, preserving learnings",
	Long: `Resets counters, predictions, and missions to a fresh state.
Validated patterns, completed-mission practices, and the historical
health scores are carried over.`,
	RunE: runReset,
}

// versionCmd prints the engine version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", cfg.Name, cfg.Version)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "skip confirmation")
	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "print raw JSON instead of a summary")
}

func runStatus(cmd *cobra.Command, args []string) error {
	engine, hub, db, err := buildEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	// Prefer persisted state; fall back to fresh defaults.
	state, err := db.Load()
	if err != nil {
		return err
	}
	if state == nil {
		fresh := engine.State()
		state = &fresh
	}

	if jsonOutput {
		return printJSON(state)
	}

	fmt.Printf("System health:    %.0f\n", state.SystemHealth)
	fmt.Printf("Value alignment:  %.0f\n", state.ValueAlignment)
	fmt.Printf("Evolutions:       %d", state.EvolutionCount)
	if !state.LastEvolution.IsZero() {
		fmt.Printf(" (last %s)", state.LastEvolution.Format("2006-01-02 15:04"))
	}
	fmt.Println()
	fmt.Printf("Prediction runs:  %d\n", state.PredictionCount)
	fmt.Printf("Active missions:  %d\n", len(state.ActiveMissions))
	fmt.Printf("Team members:     %d\n", len(hub.Roster()))

	if state.CurrentSnapshot != nil {
		fmt.Printf("Latest harmony:   %.0f (%s)\n",
			state.CurrentSnapshot.Overall,
			state.CurrentSnapshot.Timestamp.Format("2006-01-02 15:04"))
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetForce {
		fmt.Print("Reset engine state? Learnings are kept, everything else is wiped. [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	engine, _, db, err := buildEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	// Load persisted state so learnings survive the reset.
	if err := engine.Initialize(); err != nil {
		return err
	}
	if err := engine.Reset(); err != nil {
		return err
	}
	engine.Stop()

	fmt.Println("Engine state reset.")
	return nil
}
