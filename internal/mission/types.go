// Package mission converts detected gaps, opportunities, and high-value
// predictions into prioritized work items and assigns them to team
// members under workload and skill constraints.
package mission

import (
	"time"

	"harmonia/internal/harmony"
	"harmonia/internal/prediction"
	"harmonia/internal/telemetry"
)

// Priority grades how urgently a mission should be worked.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
)

// priorityWeight maps priorities to scoring weights.
func priorityWeight(p Priority) float64 {
	switch p {
	case PriorityCritical:
		return 100
	case PriorityUrgent:
		return 80
	case PriorityHigh:
		return 60
	case PriorityMedium:
		return 40
	default:
		return 20
	}
}

// Category classifies the kind of work a mission represents.
type Category string

const (
	CategoryArchitecture   Category = "architecture"
	CategoryFeature        Category = "feature"
	CategoryRefactor       Category = "refactor"
	CategoryDocumentation  Category = "documentation"
	CategoryTesting        Category = "testing"
	CategoryValueAlignment Category = "value_alignment"
	CategoryProcess        Category = "process"
)

// Status tracks a mission through its lifecycle.
type Status string

const (
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// AssignedToPrefix marks the member tag on an assigned mission.
const AssignedToPrefix = "assigned-to:"

// Mission is a discrete, assignable unit of work.
type Mission struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Priority         Priority   `json:"priority"`
	Category         Category   `json:"category"`
	AssignedDate     time.Time  `json:"assigned_date"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Progress         float64    `json:"progress"` // 0-100
	Status           Status     `json:"status"`
	ValueBenefit     string     `json:"value_benefit"`
	TechnicalBenefit string     `json:"technical_benefit"`
	Requirements     []string   `json:"requirements"`
	Deliverables     []string   `json:"deliverables"`
	Dependencies     []string   `json:"dependencies"`
	EstimatedEffort  float64    `json:"estimated_effort"` // hours
	ActualEffort     *float64   `json:"actual_effort,omitempty"`
	ValueAlignment   float64    `json:"value_alignment"` // 0-100
	Tags             []string   `json:"tags"`
}

// AssignedTo returns the member ID from the assigned-to tag, or "".
func (m *Mission) AssignedTo() string {
	for _, tag := range m.Tags {
		if len(tag) > len(AssignedToPrefix) && tag[:len(AssignedToPrefix)] == AssignedToPrefix {
			return tag[len(AssignedToPrefix):]
		}
	}
	return ""
}

// HasTag reports whether the mission carries the given tag.
func (m *Mission) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Severity grades a detected gap.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Gap is a detected shortfall in the project or team.
type Gap struct {
	Area               string   `json:"area"`
	Description        string   `json:"description"`
	Severity           Severity `json:"severity"`
	Impact             string   `json:"impact"`
	Evidence           []string `json:"evidence"`
	SuggestedSolutions []string `json:"suggested_solutions"`
	ValueAlignment     float64  `json:"value_alignment"`
	TechnicalDebt      float64  `json:"technical_debt"`
	Urgency            float64  `json:"urgency"`
}

// Opportunity is a detected chance to create value.
type Opportunity struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Category         Category `json:"category"`
	PotentialValue   float64  `json:"potential_value"`
	Complexity       float64  `json:"complexity"`
	ValueBenefit     string   `json:"value_benefit"`
	TechnicalBenefit string   `json:"technical_benefit"`
	GrowthPotential  float64  `json:"growth_potential"`
	EstimatedEffort  float64  `json:"estimated_effort"` // hours
	Dependencies     []string `json:"dependencies"`
}

// TimeConstraints carries the planning horizons the scheduler may use.
type TimeConstraints struct {
	SprintDays    int `json:"sprint_days"`
	ReleaseDays   int `json:"release_days"`
	MilestoneDays int `json:"milestone_days"`
}

// Context carries everything one assignment pass reads.
type Context struct {
	Gaps          []Gap
	Opportunities []Opportunity
	Roster        []*telemetry.TeamMember
	Snapshot      *harmony.Snapshot
	Predictions   []prediction.PatternPrediction
	Priorities    []string
	Constraints   TimeConstraints
	Now           time.Time
}

// Strategy toggles the assignment heuristics. All default to true.
type Strategy struct {
	PrioritizeValueAlignment bool
	BalanceWorkload          bool
	FocusOnGrowth            bool
	ConsiderReciprocity      bool
	RespectPreferences       bool
}

// DefaultStrategy returns the all-enabled strategy.
func DefaultStrategy() Strategy {
	return Strategy{
		PrioritizeValueAlignment: true,
		BalanceWorkload:          true,
		FocusOnGrowth:            true,
		ConsiderReciprocity:      true,
		RespectPreferences:       true,
	}
}
