package mission

import (
	"testing"

	"harmonia/internal/harmony"
	"harmonia/internal/prediction"
	"harmonia/internal/telemetry"
)

// healthySnapshot scores every category above every gap threshold.
func healthySnapshot() *harmony.Snapshot {
	return &harmony.Snapshot{
		Overall: 95,
		Collaboration: harmony.CollaborationScore{
			ReciprocityBalance: 95, PairActivityRatio: 95, ReviewToCommitRatio: 95,
			KnowledgeSharingDensity: 95, ConflictResolution: 95,
		},
		ValueAlign: harmony.ValueAlignScore{
			ActivityAlignment: 95, CooperationRatio: 95, Sustainability: 95,
			Transparency: 95, Inclusivity: 95,
		},
		Technical: harmony.TechnicalScore{
			CodeQuality: 95, TestCoverage: 95, ArchCompliance: 95, Performance: 95, Security: 95,
		},
		Communication: harmony.CommunicationScore{
			TonePositivity: 95, Responsiveness: 95, Empathy: 95, FeedbackQuality: 95,
		},
		Wellbeing: harmony.WellbeingScore{
			WorkLifeBalance: 95, StressFreedom: 95, Satisfaction: 95, BurnoutSafety: 95,
		},
	}
}

func TestIdentifyProjectGaps_HealthySnapshotHasNone(t *testing.T) {
	t.Parallel()

	if gaps := IdentifyProjectGaps(healthySnapshot()); len(gaps) != 0 {
		t.Errorf("gaps = %d, want none for a healthy snapshot", len(gaps))
	}
}

func TestIdentifyProjectGaps_NilSnapshot(t *testing.T) {
	t.Parallel()

	if gaps := IdentifyProjectGaps(nil); gaps != nil {
		t.Errorf("gaps = %v, want nil without a snapshot", gaps)
	}
}

func TestIdentifyProjectGaps_CoverageDeficitSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		coverage float64
		want     Severity
	}{
		{45, SeverityCritical}, // deficit 35
		{60, SeverityHigh},     // deficit 20
		{72, SeverityMedium},   // deficit 8
		{78, SeverityLow},      // deficit 2
	}

	for _, tt := range tests {
		snap := healthySnapshot()
		snap.Technical.TestCoverage = tt.coverage

		gaps := IdentifyProjectGaps(snap)
		if len(gaps) != 1 {
			t.Fatalf("coverage %v: gaps = %d, want 1", tt.coverage, len(gaps))
		}
		if gaps[0].Area != "testing" || gaps[0].Severity != tt.want {
			t.Errorf("coverage %v: %s/%s, want testing/%s", tt.coverage, gaps[0].Area, gaps[0].Severity, tt.want)
		}
	}
}

func TestIdentifyProjectGaps_AllCategories(t *testing.T) {
	t.Parallel()

	snap := healthySnapshot()
	snap.Technical.TestCoverage = 50
	snap.Communication = harmony.CommunicationScore{
		TonePositivity: 60, Responsiveness: 60, Empathy: 60, FeedbackQuality: 60,
	}
	snap.ValueAlign.ActivityAlignment = 20 // drags the average under 85
	snap.Collaboration.ReciprocityBalance = 70
	snap.Wellbeing = harmony.WellbeingScore{
		WorkLifeBalance: 60, StressFreedom: 60, Satisfaction: 60, BurnoutSafety: 60,
	}

	gaps := IdentifyProjectGaps(snap)
	areas := make(map[string]bool)
	for _, g := range gaps {
		areas[g.Area] = true
	}
	for _, want := range []string{"testing", "documentation", "philosophy", "collaboration", "wellbeing"} {
		if !areas[want] {
			t.Errorf("missing %s gap; got areas %v", want, areas)
		}
	}
}

func TestIdentifyOpportunities_GrowthAreas(t *testing.T) {
	t.Parallel()

	roster := []*telemetry.TeamMember{
		{ID: "ada", Name: "Ada", GrowthAreas: []string{"testing", "facilitation"}},
		{ID: "bo", Name: "Bo"},
	}

	opps := IdentifyOpportunities(roster, nil)
	if len(opps) != 2 {
		t.Fatalf("opportunities = %d, want one per growth area", len(opps))
	}
	for _, o := range opps {
		if o.GrowthPotential != 90 {
			t.Errorf("growth potential = %v, want 90", o.GrowthPotential)
		}
	}
}

func TestIdentifyOpportunities_HighConfidencePredictionsOnly(t *testing.T) {
	t.Parallel()

	preds := []prediction.PatternPrediction{
		{ID: "p1", Name: "high", Confidence: 85},
		{ID: "p2", Name: "low", Confidence: 84},
	}

	opps := IdentifyOpportunities(nil, preds)
	if len(opps) != 1 {
		t.Fatalf("opportunities = %d, want only the confidence>=85 prediction", len(opps))
	}
	if opps[0].Dependencies[0] != "p1" {
		t.Errorf("dependencies = %v, want the prediction ID", opps[0].Dependencies)
	}
}
