// Package prediction forecasts emerging patterns - architectural,
// collaborative, technical, process - from codebase telemetry, trend
// records, and the current harmony snapshot. Rules are threshold-based;
// confidence and impact are rule-specific constants, not learned.
package prediction

import (
	"time"

	"harmonia/internal/harmony"
	"harmonia/internal/telemetry"
)

// Category tags the kind of pattern a prediction describes.
type Category string

const (
	CategoryArchitecture   Category = "architecture"
	CategoryCollaboration  Category = "collaboration"
	CategoryValueAlignment Category = "value_alignment"
	CategoryTechnical      Category = "technical"
	CategoryProcess        Category = "process"
	CategoryUIUX           Category = "ui_ux"
)

// Impact grades how much a pattern would matter if it emerges.
type Impact string

const (
	ImpactLow      Impact = "low"
	ImpactMedium   Impact = "medium"
	ImpactHigh     Impact = "high"
	ImpactCritical Impact = "critical"
)

// impactWeight maps impact grades to ranking weights.
func impactWeight(i Impact) float64 {
	switch i {
	case ImpactCritical:
		return 4
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	default:
		return 1
	}
}

// Status tracks a prediction through its lifecycle.
// Transitions are monotonic: a terminal prediction never reverts to pending.
type Status string

const (
	StatusPending   Status = "pending"
	StatusValidated Status = "validated"
	StatusRejected  Status = "rejected"
	StatusEvolved   Status = "evolved"
)

// PatternPrediction is a forecast that a named pattern will emerge.
// Predictions are never deleted, only re-tagged by validation.
type PatternPrediction struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Confidence       float64   `json:"confidence"` // 0-100
	EmergenceDate    time.Time `json:"emergence_date"`
	PredictedDate    time.Time `json:"predicted_date"`
	Category         Category  `json:"category"`
	Impact           Impact    `json:"impact"`
	ValueAlignment   float64   `json:"value_alignment"` // 0-100
	Evidence         []string  `json:"evidence"`
	SuggestedActions []string  `json:"suggested_actions"`
	Status           Status    `json:"status"`
}

// Context carries everything one prediction pass reads.
type Context struct {
	Codebase    telemetry.CodebaseMetrics
	Snapshot    *harmony.Snapshot
	Trends      []telemetry.TrendAnalysis
	TeamSize    int
	Phase       telemetry.ProjectPhase
	HorizonDays int
	Now         time.Time
}
