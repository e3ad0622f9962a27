package harmony

import (
	"fmt"
	"math"
	"sync"
	"time"

	"harmonia/internal/logging"
	"harmonia/internal/telemetry"
)

// Baseline constants used when telemetry carries no signal for a metric.
// Absence of data is treated as health, not failure.
const (
	defaultReciprocity     = 100.0
	defaultAlignment       = 100.0
	defaultTonePositivity  = 80.0
	defaultResponsiveness  = 85.0
	defaultFeedbackQuality = 75.0
	defaultStress          = 20.0
	defaultSatisfaction    = 85.0
	conflictBaseline       = 85.0
)

// maxHistory bounds the snapshot buffer.
const maxHistory = 50

// Analyzer computes harmony snapshots. It keeps its own snapshot history
// for trend analysis but otherwise has no shared state with the rest of
// the engine.
type Analyzer struct {
	mu      sync.RWMutex
	tech    TechnicalMetricsProvider
	history []*Snapshot
}

// NewAnalyzer creates an analyzer with the given technical metrics
// provider. A nil provider falls back to the reference baseline.
func NewAnalyzer(tech TechnicalMetricsProvider) *Analyzer {
	if tech == nil {
		tech = DefaultTechnicalMetrics()
	}
	return &Analyzer{tech: tech}
}

// Analyze computes a new snapshot from the given input and records it
// in the history buffer.
func (a *Analyzer) Analyze(input Input) *Snapshot {
	timer := logging.StartTimer(logging.CategoryHarmony, "Analyze")
	defer timer.Stop()

	snap := a.compute(input)

	a.mu.Lock()
	if len(a.history) > 0 {
		snap.Trends = diffSnapshots(a.history[len(a.history)-1], snap)
	}
	a.history = append(a.history, snap)
	if len(a.history) > maxHistory {
		a.history = a.history[len(a.history)-maxHistory:]
	}
	a.mu.Unlock()

	logging.Harmony("snapshot: overall=%.0f collab=%.1f va=%.1f tech=%.1f comm=%.1f well=%.1f",
		snap.Overall, snap.Collaboration.Average(), snap.ValueAlign.Average(),
		snap.Technical.Average(), snap.Communication.Average(), snap.Wellbeing.Average())

	return snap
}

// Preview computes a snapshot without recording it. Trends are still
// diffed against the last recorded snapshot, but the history buffer and
// future trend baselines are untouched.
func (a *Analyzer) Preview(input Input) *Snapshot {
	snap := a.compute(input)

	a.mu.RLock()
	if len(a.history) > 0 {
		snap.Trends = diffSnapshots(a.history[len(a.history)-1], snap)
	}
	a.mu.RUnlock()

	return snap
}

func (a *Analyzer) compute(input Input) *Snapshot {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	snap := &Snapshot{
		Collaboration: a.scoreCollaboration(input, now),
		ValueAlign:    a.scoreValueAlignment(input, now),
		Technical:     a.scoreTechnical(),
		Communication: a.scoreCommunication(input, now),
		Wellbeing:     a.scoreWellbeing(input),
		Timestamp:     now,
	}
	snap.Overall = weightedOverall(snap)
	return snap
}

// Latest returns the most recent snapshot, or nil.
func (a *Analyzer) Latest() *Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.history) == 0 {
		return nil
	}
	return a.history[len(a.history)-1]
}

// History returns a copy of the snapshot buffer, oldest first.
func (a *Analyzer) History() []*Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*Snapshot, len(a.history))
	copy(out, a.history)
	return out
}

// weightedOverall combines the five category averages with the fixed
// weights. A category without numeric sub-metrics is excluded and the
// remaining weights are used as given (no renormalization).
func weightedOverall(s *Snapshot) float64 {
	pairs := []struct {
		avg    float64
		weight float64
	}{
		{s.ValueAlign.Average(), WeightValueAlignment},
		{s.Collaboration.Average(), WeightCollaboration},
		{s.Wellbeing.Average(), WeightWellbeing},
		{s.Communication.Average(), WeightCommunication},
		{s.Technical.Average(), WeightTechnical},
	}

	sum := 0.0
	for _, p := range pairs {
		if math.IsNaN(p.avg) {
			continue
		}
		sum += p.avg * p.weight
	}
	return clamp(math.Round(sum))
}

// =============================================================================
// COLLABORATION
// =============================================================================

func (a *Analyzer) scoreCollaboration(input Input, now time.Time) CollaborationScore {
	return CollaborationScore{
		ReciprocityBalance:      ReciprocityBalanceScore(input.Contributions, now),
		PairActivityRatio:       pairActivityRatio(input.Activities),
		ReviewToCommitRatio:     reviewToCommitRatio(input.Activities),
		KnowledgeSharingDensity: knowledgeSharingDensity(input.Contributions, now),
		ConflictResolution:      conflictBaseline,
	}
}

// ReciprocityBalanceScore measures how evenly give and take balance
// across the team over the trailing window. 100 means perfectly balanced
// or no qualifying contributions.
func ReciprocityBalanceScore(contributions []telemetry.Contribution, now time.Time) float64 {
	cutoff := now.Add(-scoreWindow)

	given := make(map[string]float64)
	received := make(map[string]float64)
	for _, c := range contributions {
		if c.Timestamp.Before(cutoff) {
			continue
		}
		given[c.Giver] += c.Value
		received[c.Receiver] += c.Value
	}

	participants := make(map[string]bool)
	for p := range given {
		participants[p] = true
	}
	for p := range received {
		participants[p] = true
	}

	sum, count := 0.0, 0
	for p := range participants {
		g, r := given[p], received[p]
		if g+r <= 0 {
			continue
		}
		lo, hi := math.Min(g, r), math.Max(g, r)
		sum += lo / hi * 100
		count++
	}

	if count == 0 {
		return defaultReciprocity
	}
	return clamp(sum / float64(count))
}

func pairActivityRatio(activities []telemetry.Activity) float64 {
	if len(activities) == 0 {
		return 100
	}
	paired := 0
	for _, act := range activities {
		if len(act.Collaborators) > 0 {
			paired++
		}
	}
	return clamp(float64(paired) / float64(len(activities)) * 100)
}

func reviewToCommitRatio(activities []telemetry.Activity) float64 {
	commits, reviews := 0, 0
	for _, act := range activities {
		switch act.Kind {
		case telemetry.ActivityCommit:
			commits++
		case telemetry.ActivityReview:
			reviews++
		}
	}
	if commits == 0 {
		return 100
	}
	return clamp(float64(reviews) / float64(commits) * 100)
}

func knowledgeSharingDensity(contributions []telemetry.Contribution, now time.Time) float64 {
	cutoff := now.Add(-scoreWindow)
	count := 0
	for _, c := range contributions {
		if c.Timestamp.Before(cutoff) {
			continue
		}
		if c.Kind == telemetry.ContributionKnowledge || c.Kind == telemetry.ContributionMentoring {
			count++
		}
	}
	return clamp(float64(count) * 10)
}

// =============================================================================
// VALUE ALIGNMENT
// =============================================================================

func (a *Analyzer) scoreValueAlignment(input Input, now time.Time) ValueAlignScore {
	return ValueAlignScore{
		ActivityAlignment: activityAlignment(input.Activities, now),
		CooperationRatio:  pairActivityRatio(input.Activities),
		Sustainability:    workHoursScore(input.Wellbeing),
		Transparency:      transparencyScore(input.Activities),
		Inclusivity:       inclusivityScore(input.Activities),
	}
}

func activityAlignment(activities []telemetry.Activity, now time.Time) float64 {
	cutoff := now.Add(-scoreWindow)
	sum, count := 0.0, 0
	for _, act := range activities {
		if act.Timestamp.Before(cutoff) {
			continue
		}
		sum += act.ValueAlignment
		count++
	}
	if count == 0 {
		return defaultAlignment
	}
	return clamp(sum / float64(count))
}

// workHoursScore buckets mean daily work hours into a sustainability
// score. Shared by the value-alignment and wellbeing categories.
func workHoursScore(samples []telemetry.WellbeingIndicator) float64 {
	if len(samples) == 0 {
		return 100
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.WorkHours
	}
	mean := sum / float64(len(samples))

	switch {
	case mean <= 8:
		return 100
	case mean <= 9:
		return 85
	case mean <= 10:
		return 70
	default:
		return 50
	}
}

func transparencyScore(activities []telemetry.Activity) float64 {
	comments := 0
	for _, act := range activities {
		if act.Kind == telemetry.ActivityComment {
			comments++
		}
	}
	return clamp(float64(comments) * 5)
}

// inclusivityScore is 100 minus 100 times the coefficient of variation of
// per-member activity counts, floored at 0.
func inclusivityScore(activities []telemetry.Activity) float64 {
	counts := make(map[string]int)
	for _, act := range activities {
		counts[act.Actor]++
	}
	if len(counts) < 2 {
		return 100
	}

	sum := 0.0
	for _, c := range counts {
		sum += float64(c)
	}
	mean := sum / float64(len(counts))

	variance := 0.0
	for _, c := range counts {
		d := float64(c) - mean
		variance += d * d
	}
	variance /= float64(len(counts))
	cv := math.Sqrt(variance) / mean

	return clamp(100 - cv*100)
}

// =============================================================================
// TECHNICAL
// =============================================================================

func (a *Analyzer) scoreTechnical() TechnicalScore {
	t := a.tech.TechnicalMetrics()
	t.CodeQuality = clamp(t.CodeQuality)
	t.TestCoverage = clamp(t.TestCoverage)
	t.ArchCompliance = clamp(t.ArchCompliance)
	t.Performance = clamp(t.Performance)
	t.Security = clamp(t.Security)
	return t
}

// =============================================================================
// COMMUNICATION
// =============================================================================

func (a *Analyzer) scoreCommunication(input Input, now time.Time) CommunicationScore {
	return CommunicationScore{
		TonePositivity:  tonePositivity(input.Wellbeing, now),
		Responsiveness:  responsivenessScore(input.Wellbeing),
		Empathy:         empathyScore(input.Contributions, now),
		FeedbackQuality: feedbackQuality(input.Activities),
	}
}

func tonePositivity(samples []telemetry.WellbeingIndicator, now time.Time) float64 {
	cutoff := now.Add(-scoreWindow)
	positive, total := 0, 0
	for _, s := range samples {
		if s.Timestamp.Before(cutoff) {
			continue
		}
		total++
		if s.Tone == telemetry.TonePositive {
			positive++
		}
	}
	if total == 0 {
		return defaultTonePositivity
	}
	return clamp(float64(positive) / float64(total) * 100)
}

func responsivenessScore(samples []telemetry.WellbeingIndicator) float64 {
	if len(samples) == 0 {
		return defaultResponsiveness
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.ResponseMinutes
	}
	mean := sum / float64(len(samples))

	switch {
	case mean <= 60:
		return 100
	case mean <= 240:
		return 85
	case mean <= 480:
		return 70
	default:
		return 50
	}
}

func empathyScore(contributions []telemetry.Contribution, now time.Time) float64 {
	cutoff := now.Add(-scoreWindow)
	count := 0
	for _, c := range contributions {
		if c.Timestamp.Before(cutoff) {
			continue
		}
		if c.Kind == telemetry.ContributionSupport || c.Kind == telemetry.ContributionMentoring {
			count++
		}
	}
	return clamp(float64(count) * 20)
}

func feedbackQuality(activities []telemetry.Activity) float64 {
	sum, count := 0.0, 0
	for _, act := range activities {
		if act.Kind == telemetry.ActivityReview {
			sum += act.Impact
			count++
		}
	}
	if count == 0 {
		return defaultFeedbackQuality
	}
	return clamp(sum / float64(count))
}

// =============================================================================
// WELLBEING
// =============================================================================

func (a *Analyzer) scoreWellbeing(input Input) WellbeingScore {
	wlb := workHoursScore(input.Wellbeing)
	stress := meanStress(input.Wellbeing)
	satisfaction := meanSatisfaction(input.Wellbeing)

	risk := BurnoutRisk(stress, wlb, satisfaction)

	return WellbeingScore{
		WorkLifeBalance: wlb,
		StressFreedom:   clamp(100 - stress),
		Satisfaction:    clamp(satisfaction),
		BurnoutSafety:   clamp(100 - risk),
	}
}

// BurnoutRisk combines stress, work-life balance, and satisfaction into a
// composite 0-100 risk score.
func BurnoutRisk(stress, workLifeBalance, satisfaction float64) float64 {
	return clamp(0.4*stress + 0.3*(100-workLifeBalance) + 0.3*(100-satisfaction))
}

func meanStress(samples []telemetry.WellbeingIndicator) float64 {
	if len(samples) == 0 {
		return defaultStress
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.Stress
	}
	return sum / float64(len(samples))
}

func meanSatisfaction(samples []telemetry.WellbeingIndicator) float64 {
	if len(samples) == 0 {
		return defaultSatisfaction
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.Satisfaction
	}
	return sum / float64(len(samples))
}

// =============================================================================
// TRENDS
// =============================================================================

// diffSnapshots compares the two most recent snapshots and emits one
// trend per category plus the overall score.
func diffSnapshots(prev, curr *Snapshot) []Trend {
	period := fmt.Sprintf("since %s", prev.Timestamp.Format("2006-01-02 15:04"))

	metrics := []struct {
		name string
		prev float64
		curr float64
	}{
		{"overall", prev.Overall, curr.Overall},
		{"collaboration", prev.Collaboration.Average(), curr.Collaboration.Average()},
		{"value_alignment", prev.ValueAlign.Average(), curr.ValueAlign.Average()},
		{"technical", prev.Technical.Average(), curr.Technical.Average()},
		{"communication", prev.Communication.Average(), curr.Communication.Average()},
		{"wellbeing", prev.Wellbeing.Average(), curr.Wellbeing.Average()},
	}

	trends := make([]Trend, 0, len(metrics))
	for _, m := range metrics {
		delta := m.curr - m.prev
		direction := TrendStable
		if delta >= 2 {
			direction = TrendUp
		} else if delta <= -2 {
			direction = TrendDown
		}
		trends = append(trends, Trend{
			Metric:    m.name,
			Direction: direction,
			Magnitude: math.Abs(delta),
			Period:    period,
		})
	}
	return trends
}
