// Package steward is the orchestration layer of the harmonia engine.
// It owns the engine-wide state, schedules the periodic analyses, and
// aggregates analyzer output into evolution reports.
package steward

import (
	"time"

	"harmonia/internal/harmony"
	"harmonia/internal/mission"
	"harmonia/internal/prediction"
)

// SystemState is the engine-wide state owned by the Orchestrator.
// Every mutation happens while holding the orchestrator mutex; cycles
// compute results outside the lock and apply them as a replacement.
type SystemState struct {
	LastEvolution     time.Time                      `json:"last_evolution"`
	EvolutionCount    int                            `json:"evolution_count"`
	PredictionCount   int                            `json:"prediction_count"`
	ActivePredictions []prediction.PatternPrediction `json:"active_predictions"`
	ActiveMissions    []mission.Mission              `json:"active_missions"`
	CurrentSnapshot   *harmony.Snapshot              `json:"current_snapshot,omitempty"`
	SystemHealth      float64                        `json:"system_health"`   // 0-100, rolling
	ValueAlignment    float64                        `json:"value_alignment"` // 0-100, rolling
	Learnings         CriticalLearnings              `json:"learnings"`
}

// CriticalLearnings survive a reset: the distilled experience worth
// carrying into a fresh state.
type CriticalLearnings struct {
	BestPractices    []string `json:"best_practices"`
	SuccessPatterns  []string `json:"success_patterns"`
	HistoricalHealth float64  `json:"historical_health"`
	HistoricalAlign  float64  `json:"historical_alignment"`
}

// newSystemState returns the neutral defaults used at initialization
// and after reset.
func newSystemState() *SystemState {
	return &SystemState{
		SystemHealth:   100,
		ValueAlignment: 100,
	}
}

// StateStore is the pluggable persistence boundary. Storage format and
// location belong to the embedding application.
type StateStore interface {
	Load() (*SystemState, error)
	Save(state *SystemState) error
}

// ChangeType classifies an applied evolution change.
type ChangeType string

const (
	ChangeOptimization ChangeType = "optimization"
	ChangeCalibration  ChangeType = "calibration"
	ChangeProcess      ChangeType = "process"
)

// Change is one improvement applied (or proposed) by an evolution cycle.
type Change struct {
	Area           string     `json:"area"`
	Description    string     `json:"description"`
	Type           ChangeType `json:"type"`
	Impact         float64    `json:"impact"`          // estimated 0-100 delta contribution
	ValueAlignment float64    `json:"value_alignment"` // 0-100
}

// MetricDelta is a before/after/improvement triple.
type MetricDelta struct {
	Before      float64 `json:"before"`
	After       float64 `json:"after"`
	Improvement float64 `json:"improvement"`
}

// EvolutionMetrics are derived measures summarizing a cycle.
type EvolutionMetrics struct {
	ChangesProposed int     `json:"changes_proposed"`
	ChangesApplied  int     `json:"changes_applied"`
	MeanAlignment   float64 `json:"mean_alignment"`
}

// EvolutionReport records one evolution cycle. Reports are immutable and
// appended to history.
type EvolutionReport struct {
	ID              string           `json:"id"`
	Timestamp       time.Time        `json:"timestamp"`
	Version         string           `json:"version"`
	Changes         []Change         `json:"changes"`
	SystemHealth    MetricDelta      `json:"system_health"`
	ValueAlignment  MetricDelta      `json:"value_alignment"`
	TeamHarmony     MetricDelta      `json:"team_harmony"`
	Productivity    MetricDelta      `json:"productivity"`
	Metrics         EvolutionMetrics `json:"metrics"`
	Recommendations []string         `json:"recommendations"`
	NextEvolution   time.Time        `json:"next_evolution"`
}
