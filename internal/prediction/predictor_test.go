package prediction

import (
	"strings"
	"testing"
	"time"

	"harmonia/internal/harmony"
	"harmonia/internal/telemetry"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

// healthySnapshot scores everything well above every rule threshold.
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
		Timestamp: testNow,
	}
}

// healthyContext triggers nothing except the always-on linting rule,
// which the automated-linting marker suppresses.
func healthyContext() Context {
	return Context{
		Codebase: telemetry.CodebaseMetrics{
			FileCount:    100,
			Complexity:   10,
			TestCoverage: 90,
			ArchPatterns: []string{"automated-linting", "automated-testing"},
		},
		Snapshot:    healthySnapshot(),
		TeamSize:    4,
		HorizonDays: 30,
		Now:         testNow,
	}
}

func findByName(preds []PatternPrediction, name string) *PatternPrediction {
	for i := range preds {
		if preds[i].Name == name {
			return &preds[i]
		}
	}
	return nil
}

// =============================================================================
// RULE TRIGGER TESTS
// =============================================================================

func TestPredict_HealthyContextPredictsNothing(t *testing.T) {
	t.Parallel()

	p := NewPredictor()
	preds := p.PredictEmergingPatterns(healthyContext())
	if len(preds) != 0 {
		names := make([]string, len(preds))
		for i, pr := range preds {
			names[i] = pr.Name
		}
		t.Errorf("expected no predictions, got %v", names)
	}
}

func TestPredict_ComplexityTrendTriggersRefactor(t *testing.T) {
	t.Parallel()

	ctx := healthyContext()
	ctx.Trends = []telemetry.TrendAnalysis{
		{Metric: "complexity", Direction: telemetry.TrendIncreasing, Velocity: 0.5, Confidence: 80},
	}

	preds := NewPredictor().PredictEmergingPatterns(ctx)
	pred := findByName(preds, "Architectural refactor needed")
	if pred == nil {
		t.Fatal("expected architectural refactor prediction")
	}
	if pred.Confidence != 75 || pred.Category != CategoryArchitecture || pred.Impact != ImpactHigh {
		t.Errorf("unexpected prediction shape: conf=%v cat=%s impact=%s",
			pred.Confidence, pred.Category, pred.Impact)
	}
	if pred.Status != StatusPending {
		t.Errorf("status = %s, want pending", pred.Status)
	}
}

func TestPredict_SlowComplexityGrowthIgnored(t *testing.T) {
	t.Parallel()

	ctx := healthyContext()
	ctx.Trends = []telemetry.TrendAnalysis{
		{Metric: "complexity", Direction: telemetry.TrendIncreasing, Velocity: 0.05},
	}

	preds := NewPredictor().PredictEmergingPatterns(ctx)
	if findByName(preds, "Architectural refactor needed") != nil {
		t.Error("velocity 0.05 should not trigger the refactor rule")
	}
}

func TestPredict_DependencyCountTriggersDecomposition(t *testing.T) {
	t.Parallel()

	ctx := healthyContext()
	ctx.Codebase.Dependencies = make([]string, 51)

	preds := NewPredictor().PredictEmergingPatterns(ctx)
	pred := findByName(preds, "Service decomposition")
	if pred == nil {
		t.Fatal("expected service decomposition prediction")
	}
	if pred.Impact != ImpactCritical {
		t.Errorf("impact = %s, want critical", pred.Impact)
	}
}

func TestPredict_ReciprocityImbalanceTriggersPairing(t *testing.T) {
	t.Parallel()

	ctx := healthyContext()
	ctx.Snapshot.Collaboration.ReciprocityBalance = 60

	preds := NewPredictor().PredictEmergingPatterns(ctx)
	if findByName(preds, "Structured pairing needed") == nil {
		t.Error("expected structured pairing prediction")
	}
}

func TestPredict_LargeTeamTriggersCommunicationStructure(t *testing.T) {
	t.Parallel()

	ctx := healthyContext()
	ctx.TeamSize = 9

	preds := NewPredictor().PredictEmergingPatterns(ctx)
	if findByName(preds, "Scalable communication structure needed") == nil {
		t.Error("expected communication structure prediction for team of 9")
	}
}

func TestPredict_MissingLintingTriggersAutomation(t *testing.T) {
	t.Parallel()

	ctx := healthyContext()
	ctx.Codebase.ArchPatterns = []string{"automated-testing"}

	preds := NewPredictor().PredictEmergingPatterns(ctx)
	if findByName(preds, "Linting automation") == nil {
		t.Error("expected linting automation prediction without the marker")
	}
}

func TestPredict_UIChurnTriggersDesignSystem(t *testing.T) {
	t.Parallel()

	ctx := healthyContext()
	ctx.Codebase.RecentChanges = []string{
		"ui: new modal", "Frontend tweaks", "CSS cleanup", "fix UI overflow", "frontend routing",
	}

	preds := NewPredictor().PredictEmergingPatterns(ctx)
	if findByName(preds, "Design system emergence") == nil {
		t.Error("expected design system prediction for 5 UI changes")
	}
}

func TestPredict_ZeroCoverageDoesNotTriggerTestingRule(t *testing.T) {
	t.Parallel()

	// Zero coverage means uninstrumented, not untested.
	ctx := healthyContext()
	ctx.Codebase.TestCoverage = 0

	preds := NewPredictor().PredictEmergingPatterns(ctx)
	if findByName(preds, "Testing automation emergence") != nil {
		t.Error("coverage 0 should be treated as no signal")
	}
}

// =============================================================================
// POST-PROCESSING TESTS
// =============================================================================

func TestQualityFilter(t *testing.T) {
	t.Parallel()

	preds := []PatternPrediction{
		{Name: "a", Confidence: 59, ValueAlignment: 90},
		{Name: "b", Confidence: 80, ValueAlignment: 69},
		{Name: "c", Confidence: 70, ValueAlignment: 80},
		{Name: "c", Confidence: 85, ValueAlignment: 80},
	}

	out := qualityFilter(preds)
	if len(out) != 1 {
		t.Fatalf("filtered length = %d, want 1", len(out))
	}
	if out[0].Name != "c" || out[0].Confidence != 85 {
		t.Errorf("kept %s conf=%v, want c conf=85 (higher-confidence duplicate)", out[0].Name, out[0].Confidence)
	}
}

func TestRankScore_OrdersByComposite(t *testing.T) {
	t.Parallel()

	soon := testNow.AddDate(0, 0, 7)
	later := testNow.AddDate(0, 0, 28)

	high := PatternPrediction{Confidence: 90, Impact: ImpactCritical, ValueAlignment: 95, PredictedDate: soon}
	low := PatternPrediction{Confidence: 61, Impact: ImpactLow, ValueAlignment: 71, PredictedDate: later}

	if rankScore(high, testNow) <= rankScore(low, testNow) {
		t.Error("high-confidence critical prediction should outrank a marginal one")
	}

	ranked := rank([]PatternPrediction{low, high}, testNow)
	if ranked[0].Confidence != 90 {
		t.Error("rank should place the stronger prediction first")
	}
}

func TestPredict_CapsAtMaxPredictions(t *testing.T) {
	t.Parallel()

	// Many candidates share names, so drive the count through the filter
	// directly instead.
	var preds []PatternPrediction
	for i := 0; i < maxPredictions+5; i++ {
		preds = append(preds, PatternPrediction{
			Name:           strings.Repeat("x", i+1),
			Confidence:     80,
			ValueAlignment: 80,
			PredictedDate:  testNow.AddDate(0, 0, 14),
		})
	}

	ranked := rank(qualityFilter(preds), testNow)
	if len(ranked) > maxPredictions {
		ranked = ranked[:maxPredictions]
	}
	if len(ranked) != maxPredictions {
		t.Errorf("capped length = %d, want %d", len(ranked), maxPredictions)
	}
}

func TestPredict_HorizonCapsPredictedDate(t *testing.T) {
	t.Parallel()

	ctx := healthyContext()
	ctx.HorizonDays = 5
	ctx.Codebase.Dependencies = make([]string, 51) // rule predicts 30 days out

	preds := NewPredictor().PredictEmergingPatterns(ctx)
	pred := findByName(preds, "Service decomposition")
	if pred == nil {
		t.Fatal("expected service decomposition prediction")
	}
	want := testNow.AddDate(0, 0, 5)
	if !pred.PredictedDate.Equal(want) {
		t.Errorf("predicted date = %v, want horizon-capped %v", pred.PredictedDate, want)
	}
}

func TestPredictions_HistoryAccumulates(t *testing.T) {
	t.Parallel()

	p := NewPredictor()
	ctx := healthyContext()
	ctx.TeamSize = 9

	p.PredictEmergingPatterns(ctx)
	p.PredictEmergingPatterns(ctx)

	if got := len(p.Predictions()); got != 2 {
		t.Errorf("history length = %d, want 2 (one per pass)", got)
	}
}
