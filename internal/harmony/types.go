// Package harmony scores team collaboration health from accumulated
// telemetry. One analysis pass produces a Snapshot: five category scores,
// each an average of named sub-metrics, combined into a weighted overall
// score. Snapshots are immutable; trend analysis diffs the two most
// recent ones.
package harmony

import (
	"time"

	"harmonia/internal/telemetry"
)

// Category weights for the overall score. They always sum to 1.0.
const (
	WeightValueAlignment = 0.30
	WeightCollaboration  = 0.25
	WeightWellbeing      = 0.20
	WeightCommunication  = 0.15
	WeightTechnical      = 0.10
)

// scoreWindow is the trailing window for windowed sub-metrics.
const scoreWindow = 7 * 24 * time.Hour

// Snapshot is a point-in-time composite score of team harmony.
// All scores are 0-100.
type Snapshot struct {
	Overall       float64            `json:"overall"`
	Collaboration CollaborationScore `json:"collaboration"`
	ValueAlign    ValueAlignScore    `json:"value_alignment"`
	Technical     TechnicalScore     `json:"technical"`
	Communication CommunicationScore `json:"communication"`
	Wellbeing     WellbeingScore     `json:"wellbeing"`
	Timestamp     time.Time          `json:"timestamp"`
	Trends        []Trend            `json:"trends"`
}

// CollaborationScore groups the collaboration sub-metrics.
type CollaborationScore struct {
	ReciprocityBalance      float64 `json:"reciprocity_balance"`
	PairActivityRatio       float64 `json:"pair_activity_ratio"`
	ReviewToCommitRatio     float64 `json:"review_to_commit_ratio"`
	KnowledgeSharingDensity float64 `json:"knowledge_sharing_density"`
	ConflictResolution      float64 `json:"conflict_resolution"`
}

// Average returns the category average.
func (c CollaborationScore) Average() float64 {
	return (c.ReciprocityBalance + c.PairActivityRatio + c.ReviewToCommitRatio +
		c.KnowledgeSharingDensity + c.ConflictResolution) / 5
}

// ValueAlignScore groups the value-alignment sub-metrics.
type ValueAlignScore struct {
	ActivityAlignment float64 `json:"activity_alignment"`
	CooperationRatio  float64 `json:"cooperation_ratio"`
	Sustainability    float64 `json:"sustainability"`
	Transparency      float64 `json:"transparency"`
	Inclusivity       float64 `json:"inclusivity"`
}

// Average returns the category average.
func (v ValueAlignScore) Average() float64 {
	return (v.ActivityAlignment + v.CooperationRatio + v.Sustainability +
		v.Transparency + v.Inclusivity) / 5
}

// TechnicalScore groups the technical sub-metrics.
// These come from the injectable TechnicalMetricsProvider.
type TechnicalScore struct {
	CodeQuality    float64 `json:"code_quality"`
	TestCoverage   float64 `json:"test_coverage"`
	ArchCompliance float64 `json:"arch_compliance"`
	Performance    float64 `json:"performance"`
	Security       float64 `json:"security"`
}

// Average returns the category average.
func (t TechnicalScore) Average() float64 {
	return (t.CodeQuality + t.TestCoverage + t.ArchCompliance +
		t.Performance + t.Security) / 5
}

// CommunicationScore groups the communication sub-metrics.
type CommunicationScore struct {
	TonePositivity  float64 `json:"tone_positivity"`
	Responsiveness  float64 `json:"responsiveness"`
	Empathy         float64 `json:"empathy"`
	FeedbackQuality float64 `json:"feedback_quality"`
}

// Average returns the category average.
func (c CommunicationScore) Average() float64 {
	return (c.TonePositivity + c.Responsiveness + c.Empathy + c.FeedbackQuality) / 4
}

// WellbeingScore groups the wellbeing sub-metrics.
type WellbeingScore struct {
	WorkLifeBalance float64 `json:"work_life_balance"`
	StressFreedom   float64 `json:"stress_freedom"` // 100 - mean stress
	Satisfaction    float64 `json:"satisfaction"`
	BurnoutSafety   float64 `json:"burnout_safety"` // 100 - burnout risk
}

// Average returns the category average.
func (w WellbeingScore) Average() float64 {
	return (w.WorkLifeBalance + w.StressFreedom + w.Satisfaction + w.BurnoutSafety) / 4
}

// TrendDirection classifies how a metric moved between snapshots.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// Trend records how one metric moved since the previous snapshot.
type Trend struct {
	Metric    string         `json:"metric"`
	Direction TrendDirection `json:"direction"`
	Magnitude float64        `json:"magnitude"`
	Period    string         `json:"period"`
}

// Input carries everything one analysis pass reads.
// The analyzer is a pure function of this input plus its snapshot history.
type Input struct {
	Activities    []telemetry.Activity
	Wellbeing     []telemetry.WellbeingIndicator
	Contributions []telemetry.Contribution
	Members       []*telemetry.TeamMember
	Now           time.Time
}

// TechnicalMetricsProvider supplies the technical sub-metrics.
// The reference constants pend richer instrumentation, so the embedder
// can inject real ones.
type TechnicalMetricsProvider interface {
	TechnicalMetrics() TechnicalScore
}

// StaticTechnicalMetrics is a fixed-value provider.
type StaticTechnicalMetrics struct {
	Score TechnicalScore
}

// TechnicalMetrics returns the fixed scores.
func (s StaticTechnicalMetrics) TechnicalMetrics() TechnicalScore {
	return s.Score
}

// DefaultTechnicalMetrics returns the reference baseline provider.
func DefaultTechnicalMetrics() TechnicalMetricsProvider {
	return StaticTechnicalMetrics{Score: TechnicalScore{
		CodeQuality:    85,
		TestCoverage:   75,
		ArchCompliance: 88,
		Performance:    82,
		Security:       90,
	}}
}

// clamp bounds a score to [0,100].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
