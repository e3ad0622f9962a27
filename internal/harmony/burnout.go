package harmony

import (
	"fmt"
	"sort"

	"harmonia/internal/logging"
	"harmonia/internal/telemetry"
)

// =============================================================================
// BURNOUT DETECTION
// =============================================================================

// RiskLevel classifies team-wide burnout risk.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// BurnoutReport is the result of a burnout pattern scan.
type BurnoutReport struct {
	RiskLevel       RiskLevel `json:"risk_level"`
	AffectedMembers []string  `json:"affected_members"`
	Indicators      []string  `json:"indicators"`
	Recommendations []string  `json:"recommendations"`
}

// overworkHoursThreshold flags a member whose mean work hours exceed it.
const overworkHoursThreshold = 10.0

// DetectBurnoutPatterns scans wellbeing and activity telemetry for three
// independent patterns: overwork, communication decline, and isolation.
func (a *Analyzer) DetectBurnoutPatterns(input Input) *BurnoutReport {
	report := &BurnoutReport{
		Indicators:      []string{},
		AffectedMembers: []string{},
	}
	affected := make(map[string]bool)

	// Overwork: mean work hours above threshold.
	hoursSum := make(map[string]float64)
	hoursCount := make(map[string]int)
	for _, s := range input.Wellbeing {
		hoursSum[s.Actor] += s.WorkHours
		hoursCount[s.Actor]++
	}
	for actor, count := range hoursCount {
		mean := hoursSum[actor] / float64(count)
		if mean > overworkHoursThreshold {
			report.Indicators = append(report.Indicators,
				fmt.Sprintf("overwork: %s averages %.1f hours/day", actor, mean))
			affected[actor] = true
		}
	}

	// Communication decline: any negative-tone sample.
	negSeen := make(map[string]bool)
	for _, s := range input.Wellbeing {
		if s.Tone == telemetry.ToneNegative && !negSeen[s.Actor] {
			negSeen[s.Actor] = true
			report.Indicators = append(report.Indicators,
				fmt.Sprintf("communication decline: negative tone from %s", s.Actor))
			affected[s.Actor] = true
		}
	}

	// Isolation: collaborator count below half the team mean.
	collabCount := make(map[string]int)
	for _, act := range input.Activities {
		collabCount[act.Actor] += len(act.Collaborators)
	}
	if len(collabCount) > 1 {
		total := 0
		for _, c := range collabCount {
			total += c
		}
		mean := float64(total) / float64(len(collabCount))
		for actor, c := range collabCount {
			if float64(c) < mean*0.5 {
				report.Indicators = append(report.Indicators,
					fmt.Sprintf("isolation: %s collaborates well below team average", actor))
				affected[actor] = true
			}
		}
	}

	for actor := range affected {
		report.AffectedMembers = append(report.AffectedMembers, actor)
	}
	sort.Strings(report.AffectedMembers)

	report.RiskLevel = riskLevelFor(len(report.Indicators), len(report.AffectedMembers))
	report.Recommendations = burnoutRecommendations(report.RiskLevel)

	logging.Harmony("burnout scan: risk=%s indicators=%d affected=%d",
		report.RiskLevel, len(report.Indicators), len(report.AffectedMembers))

	return report
}

// riskLevelFor maps indicator and affected-member counts to a risk level.
func riskLevelFor(indicators, affected int) RiskLevel {
	switch {
	case indicators >= 3 || affected >= 3:
		return RiskCritical
	case indicators >= 2 || affected >= 2:
		return RiskHigh
	case indicators >= 1 || affected >= 1:
		return RiskMedium
	default:
		return RiskLow
	}
}

func burnoutRecommendations(level RiskLevel) []string {
	switch level {
	case RiskCritical:
		return []string{
			"Pause non-essential work and rebalance immediately",
			"Schedule one-on-ones with every affected member this week",
			"Review on-call and deadline commitments with leadership",
		}
	case RiskHigh:
		return []string{
			"Redistribute workload away from affected members",
			"Encourage time off for members showing overwork",
			"Increase pairing to reduce isolation",
		}
	case RiskMedium:
		return []string{
			"Monitor affected members over the next sprint",
			"Check in informally on workload and satisfaction",
		}
	default:
		return []string{
			"No intervention needed; keep monitoring",
		}
	}
}
