// Package telemetry defines the activity, wellbeing, and reciprocity data
// the harmonia engine scores, plus the hub that accumulates it.
// Collection mechanics (git hooks, chat bots, surveys) live outside the
// engine; everything arrives here as plain records.
package telemetry

import (
	"time"
)

// =============================================================================
// ACTIVITY TELEMETRY
// =============================================================================

// ActivityKind categorizes a team activity.
type ActivityKind string

const (
	ActivityCommit  ActivityKind = "commit"
	ActivityReview  ActivityKind = "review"
	ActivityComment ActivityKind = "comment"
	ActivityMerge   ActivityKind = "merge"
	ActivityIssue   ActivityKind = "issue"
	ActivityMeeting ActivityKind = "meeting"
)

// Activity is a single recorded team activity.
type Activity struct {
	Actor          string       `json:"actor"`
	Timestamp      time.Time    `json:"timestamp"`
	Kind           ActivityKind `json:"kind"`
	Impact         float64      `json:"impact"`          // 0-100
	Collaborators  []string     `json:"collaborators"`
	ValueAlignment float64      `json:"value_alignment"` // 0-100
}

// =============================================================================
// WELLBEING TELEMETRY
// =============================================================================

// Tone classifies the communication tone of a wellbeing sample.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNeutral  Tone = "neutral"
	ToneNegative Tone = "negative"
)

// WellbeingIndicator is a single wellbeing sample for one team member.
type WellbeingIndicator struct {
	Actor           string    `json:"actor"`
	Timestamp       time.Time `json:"timestamp"`
	WorkHours       float64   `json:"work_hours"`
	Stress          float64   `json:"stress"`       // 0-100
	Satisfaction    float64   `json:"satisfaction"` // 0-100
	Tone            Tone      `json:"tone"`
	ResponseMinutes float64   `json:"response_minutes"`
}

// =============================================================================
// RECIPROCITY TELEMETRY
// =============================================================================

// ContributionKind categorizes a reciprocity contribution.
type ContributionKind string

const (
	ContributionKnowledge ContributionKind = "knowledge"
	ContributionCode      ContributionKind = "code"
	ContributionReview    ContributionKind = "review"
	ContributionSupport   ContributionKind = "support"
	ContributionMentoring ContributionKind = "mentoring"
)

// Contribution records one member giving something to another.
type Contribution struct {
	Giver          string           `json:"giver"`
	Receiver       string           `json:"receiver"`
	Kind           ContributionKind `json:"kind"`
	Value          float64          `json:"value"` // 0-100
	Timestamp      time.Time        `json:"timestamp"`
	ValueAlignment float64          `json:"value_alignment"`
}

// =============================================================================
// TEAM ROSTER
// =============================================================================

// TeamMember describes one member of the stewarded team.
// The mission assigner mutates only CurrentWorkload and ReciprocityScore;
// everything else is owned by the embedder.
type TeamMember struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Skills           []string `json:"skills" yaml:"skills"`
	CurrentWorkload  float64  `json:"current_workload" yaml:"current_workload"` // 0-100
	Preferences      []string `json:"preferences" yaml:"preferences"`
	GrowthAreas      []string `json:"growth_areas" yaml:"growth_areas"`
	ReciprocityScore float64  `json:"reciprocity_score" yaml:"reciprocity_score"`
	ValueAlignment   float64  `json:"value_alignment" yaml:"value_alignment"`
	Availability     float64  `json:"availability" yaml:"availability"` // 0-100
}

// =============================================================================
// CODEBASE AND TREND TELEMETRY (pattern predictor inputs)
// =============================================================================

// CodebaseMetrics is a point-in-time codebase snapshot.
type CodebaseMetrics struct {
	FileCount     int      `json:"file_count"`
	LinesOfCode   int      `json:"lines_of_code"`
	Complexity    float64  `json:"complexity"`
	TestCoverage  float64  `json:"test_coverage"` // 0-100
	Dependencies  []string `json:"dependencies"`
	ArchPatterns  []string `json:"arch_patterns"` // detected architecture-pattern tags
	RecentChanges []string `json:"recent_changes"`
}

// TrendDirection classifies the direction of a metric trend.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// TrendAnalysis describes how one metric has been moving.
type TrendAnalysis struct {
	Metric       string         `json:"metric"`
	Values       []float64      `json:"values"`
	Direction    TrendDirection `json:"direction"`
	Velocity     float64        `json:"velocity"`
	Acceleration float64        `json:"acceleration"`
	Confidence   float64        `json:"confidence"` // 0-100
}

// ProjectPhase indicates where the project is in its lifecycle.
type ProjectPhase string

const (
	PhaseInception   ProjectPhase = "inception"
	PhaseDevelopment ProjectPhase = "development"
	PhaseMaintenance ProjectPhase = "maintenance"
	PhaseEvolution   ProjectPhase = "evolution"
)
