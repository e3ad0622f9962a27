package mission

import (
	"fmt"

	"harmonia/internal/harmony"
	"harmonia/internal/prediction"
	"harmonia/internal/telemetry"
)

// =============================================================================
// GAP CATALOG
// =============================================================================

// IdentifyProjectGaps runs the fixed rule catalog against the latest
// harmony snapshot.
func IdentifyProjectGaps(snap *harmony.Snapshot) []Gap {
	if snap == nil {
		return nil
	}

	var gaps []Gap

	if snap.Technical.TestCoverage < 80 {
		gaps = append(gaps, Gap{
			Area:        "testing",
			Description: "Test coverage is below the 80% bar",
			Severity:    severityForDeficit(80 - snap.Technical.TestCoverage),
			Impact:      "Regressions slip through unnoticed",
			Evidence:    []string{fmt.Sprintf("test coverage at %.1f%%", snap.Technical.TestCoverage)},
			SuggestedSolutions: []string{
				"Backfill tests for the least-covered packages",
				"Gate merges on coverage",
			},
			ValueAlignment: 85,
			TechnicalDebt:  80 - snap.Technical.TestCoverage,
			Urgency:        70,
		})
	}

	if snap.Communication.Average() < 75 {
		gaps = append(gaps, Gap{
			Area:        "documentation",
			Description: "Communication quality is low enough that decisions are getting lost",
			Severity:    SeverityMedium,
			Impact:      "Knowledge stays siloed and onboarding slows",
			Evidence:    []string{fmt.Sprintf("communication average at %.1f", snap.Communication.Average())},
			SuggestedSolutions: []string{
				"Write down recurring decisions in a shared log",
			},
			ValueAlignment: 80,
			TechnicalDebt:  20,
			Urgency:        50,
		})
	}

	if snap.ValueAlign.Average() < 85 {
		gaps = append(gaps, Gap{
			Area:        "philosophy",
			Description: "Work selection is drifting from the stated collective-benefit principles",
			Severity:    SeverityHigh,
			Impact:      "Effort flows to work that serves nobody",
			Evidence:    []string{fmt.Sprintf("value alignment at %.1f", snap.ValueAlign.Average())},
			SuggestedSolutions: []string{
				"Run an alignment workshop",
				"Review the backlog against stated values",
			},
			ValueAlignment: 95,
			TechnicalDebt:  10,
			Urgency:        60,
		})
	}

	if snap.Collaboration.ReciprocityBalance < 80 {
		gaps = append(gaps, Gap{
			Area:        "collaboration",
			Description: "Give-and-take between members is out of balance",
			Severity:    SeverityMedium,
			Impact:      "A few members carry the support burden",
			Evidence:    []string{fmt.Sprintf("reciprocity balance at %.1f", snap.Collaboration.ReciprocityBalance)},
			SuggestedSolutions: []string{
				"Schedule rotating pairing sessions",
			},
			ValueAlignment: 90,
			TechnicalDebt:  0,
			Urgency:        55,
		})
	}

	if snap.Wellbeing.Average() < 70 {
		gaps = append(gaps, Gap{
			Area:        "wellbeing",
			Description: "Wellbeing scores indicate sustained strain",
			Severity:    SeverityHigh,
			Impact:      "Burnout risk and attrition",
			Evidence:    []string{fmt.Sprintf("wellbeing average at %.1f", snap.Wellbeing.Average())},
			SuggestedSolutions: []string{
				"Review workload distribution with the team",
			},
			ValueAlignment: 95,
			TechnicalDebt:  0,
			Urgency:        80,
		})
	}

	return gaps
}

func severityForDeficit(deficit float64) Severity {
	switch {
	case deficit >= 30:
		return SeverityCritical
	case deficit >= 15:
		return SeverityHigh
	case deficit >= 5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// =============================================================================
// OPPORTUNITY CATALOG
// =============================================================================

// IdentifyOpportunities derives opportunities from member growth areas
// and high-confidence predictions.
func IdentifyOpportunities(roster []*telemetry.TeamMember, predictions []prediction.PatternPrediction) []Opportunity {
	var opportunities []Opportunity

	for _, member := range roster {
		for _, area := range member.GrowthAreas {
			opportunities = append(opportunities, Opportunity{
				Name:             fmt.Sprintf("Grow %s in %s", member.Name, area),
				Description:      fmt.Sprintf("%s wants to develop %s; route matching work their way", member.Name, area),
				Category:         CategoryFeature,
				PotentialValue:   60,
				Complexity:       30,
				ValueBenefit:     "Invests in member growth",
				TechnicalBenefit: fmt.Sprintf("Builds team depth in %s", area),
				GrowthPotential:  90,
				EstimatedEffort:  8,
			})
		}
	}

	for _, pred := range predictions {
		if pred.Confidence < 85 {
			continue
		}
		opportunities = append(opportunities, Opportunity{
			Name:             fmt.Sprintf("Prepare for %s", pred.Name),
			Description:      pred.Description,
			Category:         categoryForPrediction(pred.Category),
			PotentialValue:   pred.Confidence,
			Complexity:       50,
			ValueBenefit:     "Moves early on a high-confidence prediction",
			TechnicalBenefit: pred.Description,
			GrowthPotential:  40,
			EstimatedEffort:  16,
			Dependencies:     []string{pred.ID},
		})
	}

	return opportunities
}
