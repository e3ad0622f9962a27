package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
)

// analyzeCmd runs a single harmony analysis.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one harmony analysis over current telemetry",
	Long: `Scores team harmony across five categories (value alignment,
collaboration, wellbeing, communication, technical) from the roster
and any telemetry already in the workspace, then prints the snapshot
and improvement suggestions.`,
	RunE: runAnalyze,
}

// predictCmd runs a single prediction pass.
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict emerging patterns",
	RunE:  runPredict,
}

// missionsCmd runs a single assignment pass.
var missionsCmd = &cobra.Command{
	Use:   "missions",
	Short: "Identify gaps and assign missions",
	RunE:  runMissions,
}

// improveCmd runs a single evolution cycle.
var improveCmd = &cobra.Command{
	Use:   "improve",
	Short: "Run one self-improvement cycle",
	Long: `Finds the weakest harmony categories, applies the calibration
changes that clear the value-alignment bar, and prints the resulting
evolution report.`,
	RunE: runImprove,
}

func init() {
	for _, c := range []*cobra.Command{analyzeCmd, predictCmd, missionsCmd, improveCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "print raw JSON instead of a summary")
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	engine, _, db, err := buildEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := engine.AnalyzeTeamHarmony()
	if err != nil {
		return err
	}
	if err := db.RecordSnapshot(snap); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(snap)
	}

	fmt.Printf("Overall harmony: %.0f\n\n", snap.Overall)
	fmt.Printf("  Value alignment: %.1f\n", snap.ValueAlign.Average())
	fmt.Printf("  Collaboration:   %.1f\n", snap.Collaboration.Average())
	fmt.Printf("  Wellbeing:       %.1f\n", snap.Wellbeing.Average())
	fmt.Printf("  Communication:   %.1f\n", snap.Communication.Average())
	fmt.Printf("  Technical:       %.1f\n", snap.Technical.Average())

	if len(snap.Trends) > 0 {
		fmt.Println("\nTrends:")
		for _, t := range snap.Trends {
			fmt.Printf("  %-16s %s (%.1f)\n", t.Metric, t.Direction, t.Magnitude)
		}
	}

	suggestions, err := engine.SuggestHarmonyImprovements()
	if err != nil {
		return err
	}
	fmt.Println("\nSuggestions:")
	for _, s := range suggestions {
		fmt.Printf("  - %s\n", s)
	}
	return nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	engine, _, db, err := buildEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	// Predictions read the latest snapshot, so analyze first.
	if _, err := engine.AnalyzeTeamHarmony(); err != nil {
		return err
	}
	preds, err := engine.PredictPatterns()
	if err != nil {
		return err
	}
	if err := db.RecordPredictions(preds); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(preds)
	}

	if len(preds) == 0 {
		fmt.Println("No emerging patterns predicted.")
		return nil
	}
	fmt.Printf("%d emerging patterns:\n\n", len(preds))
	for _, p := range preds {
		fmt.Printf("  [%3.0f%%] %-45s %s/%s\n", p.Confidence, p.Name, p.Category, p.Impact)
	}
	return nil
}

func runMissions(cmd *cobra.Command, args []string) error {
	engine, _, db, err := buildEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := engine.AnalyzeTeamHarmony(); err != nil {
		return err
	}
	if _, err := engine.PredictPatterns(); err != nil {
		return err
	}
	missions, err := engine.AssignMissions()
	if err != nil {
		return err
	}
	if err := db.RecordMissions(missions); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(missions)
	}

	if len(missions) == 0 {
		fmt.Println("No missions generated.")
		return nil
	}
	fmt.Printf("%d missions:\n\n", len(missions))
	for _, m := range missions {
		assignee := m.AssignedTo()
		if assignee == "" {
			assignee = "(unassigned)"
		}
		due := "no due date"
		if m.DueDate != nil {
			due = "due " + m.DueDate.Format("2006-01-02")
		}
		fmt.Printf("  [%-8s] %-50s -> %-12s %s\n", m.Priority, m.Title, assignee, due)
	}
	return nil
}

func runImprove(cmd *cobra.Command, args []string) error {
	engine, _, db, err := buildEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := engine.SelfImprove()
	if err != nil {
		return err
	}
	if err := db.RecordReport(report); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(report)
	}

	fmt.Printf("Evolution cycle complete (%d/%d changes applied)\n\n",
		report.Metrics.ChangesApplied, report.Metrics.ChangesProposed)
	for _, c := range report.Changes {
		fmt.Printf("  [%s] %s: %s\n", c.Type, c.Area, c.Description)
	}
	fmt.Printf("\nSystem health:   %.0f -> %.0f\n", report.SystemHealth.Before, report.SystemHealth.After)
	fmt.Printf("Value alignment: %.0f -> %.0f\n", report.ValueAlignment.Before, report.ValueAlignment.After)
	if len(report.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, r := range report.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
