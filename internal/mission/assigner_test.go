package mission

import (
	"testing"
	"time"

	"harmonia/internal/prediction"
	"harmonia/internal/telemetry"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func testRoster() []*telemetry.TeamMember {
	return []*telemetry.TeamMember{
		{
			ID: "ada", Name: "Ada",
			Skills:          []string{"testing", "automation", "architecture"},
			CurrentWorkload: 20, Availability: 80,
			ValueAlignment: 90, ReciprocityScore: 70,
		},
		{
			ID: "bo", Name: "Bo",
			Skills:          []string{"documentation", "writing"},
			CurrentWorkload: 40, Availability: 60,
			ValueAlignment: 85, ReciprocityScore: 60,
			GrowthAreas: []string{"testing"},
		},
	}
}

// =============================================================================
// CANDIDATE GENERATION
// =============================================================================

func TestCreateMissionsFromGap_OnePerSolution(t *testing.T) {
	t.Parallel()

	gap := Gap{
		Area:        "testing",
		Description: "coverage collapsed",
		Severity:    SeverityCritical,
		Impact:      "regressions ship",
		SuggestedSolutions: []string{
			"Backfill tests for the least-covered packages",
			"Gate merges on coverage",
		},
		ValueAlignment: 85,
	}

	missions := CreateMissionsFromGap(gap, testNow)
	if len(missions) != 2 {
		t.Fatalf("missions = %d, want one per solution", len(missions))
	}
	for _, m := range missions {
		if m.Priority != PriorityCritical {
			t.Errorf("priority = %s, want critical", m.Priority)
		}
		if m.EstimatedEffort != 24 {
			t.Errorf("effort = %v, want 24 for a critical gap", m.EstimatedEffort)
		}
		if m.Category != CategoryTesting {
			t.Errorf("category = %s, want testing", m.Category)
		}
		if m.ValueAlignment != 85 {
			t.Errorf("value alignment = %v, want inherited 85", m.ValueAlignment)
		}
		if !m.HasTag("gap") || !m.HasTag("testing") {
			t.Errorf("tags = %v, want gap and area tags", m.Tags)
		}
	}
}

func TestEffortForSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity Severity
		want     float64
	}{
		{SeverityCritical, 24},
		{SeverityHigh, 16},
		{SeverityMedium, 8},
		{SeverityLow, 4},
	}
	for _, tt := range tests {
		if got := effortForSeverity(tt.severity); got != tt.want {
			t.Errorf("effortForSeverity(%s) = %v, want %v", tt.severity, got, tt.want)
		}
	}
}

func TestMissionFromOpportunity_PriorityByValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value float64
		want  Priority
	}{
		{85, PriorityHigh},
		{80, PriorityHigh},
		{60, PriorityMedium},
		{50, PriorityMedium},
		{30, PriorityLow},
	}
	for _, tt := range tests {
		m := missionFromOpportunity(Opportunity{Name: "x", PotentialValue: tt.value}, testNow)
		if m.Priority != tt.want {
			t.Errorf("potential %v -> priority %s, want %s", tt.value, m.Priority, tt.want)
		}
	}
}

func TestMissionFromOpportunity_GrowthTag(t *testing.T) {
	t.Parallel()

	m := missionFromOpportunity(Opportunity{Name: "x", GrowthPotential: 60}, testNow)
	if !m.HasTag("growth") {
		t.Error("growth potential 60 should carry the growth tag")
	}
	m = missionFromOpportunity(Opportunity{Name: "x", GrowthPotential: 40}, testNow)
	if m.HasTag("growth") {
		t.Error("growth potential 40 should not carry the growth tag")
	}
}

func TestMissionsFromPrediction_CarriesCategoryTag(t *testing.T) {
	t.Parallel()

	pred := prediction.PatternPrediction{
		ID:               "p1",
		Name:             "Structured pairing needed",
		Category:         prediction.CategoryCollaboration,
		Impact:           prediction.ImpactHigh,
		ValueAlignment:   90,
		SuggestedActions: []string{"Set up rotating pairing sessions"},
	}

	missions := missionsFromPrediction(pred, testNow)
	if len(missions) != 1 {
		t.Fatalf("missions = %d, want one per action", len(missions))
	}
	m := missions[0]
	if !m.HasTag("collaboration") {
		t.Errorf("tags = %v, want the prediction category as a tag", m.Tags)
	}
	if m.Dependencies[0] != "p1" {
		t.Errorf("dependencies = %v, want the prediction ID", m.Dependencies)
	}
	if m.Priority != PriorityHigh {
		t.Errorf("priority = %s, want high for high impact", m.Priority)
	}
}

// =============================================================================
// PRIORITIZATION
// =============================================================================

func TestHarmonyImpact(t *testing.T) {
	t.Parallel()

	m := &Mission{Category: CategoryTesting}
	if got := harmonyImpact(m); got != 50 {
		t.Errorf("base harmony impact = %v, want 50", got)
	}

	m = &Mission{Category: CategoryValueAlignment, Tags: []string{"collaboration", "growth"}}
	if got := harmonyImpact(m); got != 100 {
		t.Errorf("stacked harmony impact = %v, want capped 100", got)
	}
}

func TestUrgencyScore_DeadlineProximity(t *testing.T) {
	t.Parallel()

	due := testNow.AddDate(0, 0, 3)
	m := &Mission{Priority: PriorityMedium, DueDate: &due}
	// 50 + 40*0.3 + 30 = 92
	if got := urgencyScore(m, testNow); got != 92 {
		t.Errorf("urgency = %v, want 92", got)
	}

	far := testNow.AddDate(0, 0, 10)
	m.DueDate = &far
	// 50 + 12 + 15 = 77
	if got := urgencyScore(m, testNow); got != 77 {
		t.Errorf("urgency = %v, want 77", got)
	}
}

func TestPrioritize_CriticalGapFirst(t *testing.T) {
	t.Parallel()

	a := NewAssigner(0.4)
	ctx := Context{
		Gaps: []Gap{
			{Area: "documentation", Severity: SeverityLow, ValueAlignment: 60,
				SuggestedSolutions: []string{"Write a decision log"}},
			{Area: "testing", Severity: SeverityCritical, ValueAlignment: 90,
				SuggestedSolutions: []string{"Backfill tests"}},
		},
		Roster: testRoster(),
		Now:    testNow,
	}

	missions := a.AssignMissions(ctx, DefaultStrategy())
	if missions[0].Priority != PriorityCritical {
		t.Errorf("first mission priority = %s, want critical", missions[0].Priority)
	}
}

// =============================================================================
// RESOURCE ASSIGNMENT
// =============================================================================

func TestAssignMissions_PrefersSkilledMember(t *testing.T) {
	t.Parallel()

	a := NewAssigner(0.4)
	ctx := Context{
		Gaps: []Gap{{
			Area: "testing", Severity: SeverityHigh, ValueAlignment: 85,
			SuggestedSolutions: []string{"Backfill tests"},
		}},
		Roster: testRoster(),
		Now:    testNow,
	}

	missions := a.AssignMissions(ctx, DefaultStrategy())
	if got := missions[0].AssignedTo(); got != "ada" {
		t.Errorf("assigned to %q, want ada (skill match)", got)
	}
}

func TestAssignMissions_WorkloadIncrementCapped(t *testing.T) {
	t.Parallel()

	a := NewAssigner(0.4)
	roster := testRoster()
	ctx := Context{
		Gaps: []Gap{{
			Area: "testing", Severity: SeverityCritical, ValueAlignment: 85,
			SuggestedSolutions: []string{"Backfill tests"},
		}},
		Roster: roster,
		Now:    testNow,
	}

	a.AssignMissions(ctx, DefaultStrategy())
	// Effort 24 doubles to 48 but the increment caps at 30.
	if roster[0].CurrentWorkload != 50 {
		t.Errorf("workload = %v, want 20 + capped 30", roster[0].CurrentWorkload)
	}
}

func TestAssignMissions_NoEligibleMemberBlocks(t *testing.T) {
	t.Parallel()

	a := NewAssigner(0.4)
	roster := []*telemetry.TeamMember{
		{ID: "ada", CurrentWorkload: 95, Availability: 50, ValueAlignment: 90},
	}
	ctx := Context{
		Gaps: []Gap{{
			Area: "testing", Severity: SeverityHigh, ValueAlignment: 85,
			SuggestedSolutions: []string{"Backfill tests"},
		}},
		Roster: roster,
		Now:    testNow,
	}

	missions := a.AssignMissions(ctx, DefaultStrategy())
	if missions[0].Status != StatusBlocked {
		t.Errorf("status = %s, want blocked when everyone is over the cutoff", missions[0].Status)
	}
	if missions[0].AssignedTo() != "" {
		t.Errorf("assigned to %q, want unassigned", missions[0].AssignedTo())
	}
}

func TestAssignMissions_SoftCutoffBlocksAtSelection(t *testing.T) {
	t.Parallel()

	// Workload 85 sits between the soft (80) and hard (90) cutoffs.
	// Selection already skips the member, so the mission is blocked
	// before validation ever sees an assignee.
	a := NewAssigner(0.4)
	roster := []*telemetry.TeamMember{
		{ID: "ada", CurrentWorkload: 85, Availability: 50, ValueAlignment: 90},
	}
	ctx := Context{
		Gaps: []Gap{{
			Area: "testing", Severity: SeverityHigh, ValueAlignment: 85,
			SuggestedSolutions: []string{"Backfill tests"},
		}},
		Roster: roster,
		Now:    testNow,
	}

	missions := a.AssignMissions(ctx, DefaultStrategy())
	if missions[0].Status != StatusBlocked {
		t.Errorf("status = %s, want blocked by the soft cutoff", missions[0].Status)
	}
	if missions[0].AssignedTo() != "" {
		t.Errorf("assigned to %q, want unassigned", missions[0].AssignedTo())
	}
	if roster[0].CurrentWorkload != 85 {
		t.Errorf("workload = %v, want untouched 85", roster[0].CurrentWorkload)
	}
}

func TestAssignMissions_ReciprocityBonusOnAlignmentMissions(t *testing.T) {
	t.Parallel()

	a := NewAssigner(0.4)
	roster := testRoster()
	ctx := Context{
		Gaps: []Gap{{
			Area: "philosophy", Severity: SeverityHigh, ValueAlignment: 95,
			SuggestedSolutions: []string{"Run an alignment workshop"},
		}},
		Roster: roster,
		Now:    testNow,
	}

	before := map[string]float64{}
	for _, m := range roster {
		before[m.ID] = m.ReciprocityScore
	}

	missions := a.AssignMissions(ctx, DefaultStrategy())
	assignee := missions[0].AssignedTo()
	if assignee == "" {
		t.Fatal("expected the mission to be assigned")
	}
	for _, m := range roster {
		if m.ID == assignee {
			if m.ReciprocityScore != before[m.ID]+5 {
				t.Errorf("reciprocity = %v, want +5 on a value-alignment mission", m.ReciprocityScore)
			}
		}
	}
}

func TestSkillsMatch(t *testing.T) {
	t.Parallel()

	if got := skillsMatch(nil, []string{"go"}); got != 100 {
		t.Errorf("no requirements = %v, want 100", got)
	}
	if got := skillsMatch([]string{"testing", "automation"}, []string{"Testing"}); got != 50 {
		t.Errorf("half overlap (case-insensitive) = %v, want 50", got)
	}
}

func TestGrowthPotential(t *testing.T) {
	t.Parallel()

	member := &telemetry.TeamMember{
		Skills:      []string{"documentation"},
		GrowthAreas: []string{"testing"},
	}
	if got := growthPotential([]string{"testing", "automation"}, member); got != 50 {
		t.Errorf("growth potential = %v, want 50 (one of two required is a growth area)", got)
	}
}

// =============================================================================
// SCHEDULING
// =============================================================================

func TestSchedule_DueDateByPriority(t *testing.T) {
	t.Parallel()

	a := NewAssigner(0.4)
	tests := []struct {
		priority Priority
		effort   float64
		wantDays int
	}{
		{PriorityCritical, 24, 2}, // ceil(24/8*0.5)
		{PriorityUrgent, 24, 2},
		{PriorityHigh, 16, 2}, // ceil(16/8*0.7)
		{PriorityMedium, 8, 1},
		{PriorityLow, 4, 1}, // ceil(4/8*1.5) = 1
		{PriorityLow, 40, 8},
	}

	for _, tt := range tests {
		missions := []Mission{{Priority: tt.priority, EstimatedEffort: tt.effort}}
		a.schedule(missions, testNow)
		want := testNow.AddDate(0, 0, tt.wantDays)
		if !missions[0].DueDate.Equal(want) {
			t.Errorf("%s/%v due %v, want %v", tt.priority, tt.effort, missions[0].DueDate, want)
		}
	}
}

func TestSchedule_KeepsExistingDueDate(t *testing.T) {
	t.Parallel()

	a := NewAssigner(0.4)
	due := testNow.AddDate(0, 0, 30)
	missions := []Mission{{Priority: PriorityCritical, EstimatedEffort: 24, DueDate: &due}}
	a.schedule(missions, testNow)
	if !missions[0].DueDate.Equal(due) {
		t.Error("schedule must not overwrite an existing due date")
	}
}

// =============================================================================
// VALIDATION AND PROGRESS
// =============================================================================

func TestValidate_HardCutoffBlocks(t *testing.T) {
	t.Parallel()

	a := NewAssigner(0.4)
	member := &telemetry.TeamMember{ID: "ada", CurrentWorkload: 95}
	missions := []Mission{{
		Title:  "x",
		Status: StatusAssigned,
		Tags:   []string{AssignedToPrefix + "ada"},
	}}

	a.validate(missions, []*telemetry.TeamMember{member})
	if missions[0].Status != StatusBlocked {
		t.Errorf("status = %s, want blocked above the hard cutoff", missions[0].Status)
	}
}

func TestUpdateProgress(t *testing.T) {
	t.Parallel()

	m := &Mission{ID: "m1", Status: StatusAssigned, EstimatedEffort: 16}

	if err := UpdateProgress(m, 101); err == nil {
		t.Error("expected error for progress above 100")
	}
	if err := UpdateProgress(m, -1); err == nil {
		t.Error("expected error for negative progress")
	}

	if err := UpdateProgress(m, 40); err != nil {
		t.Fatalf("UpdateProgress error: %v", err)
	}
	if m.Status != StatusInProgress {
		t.Errorf("status = %s, want in_progress", m.Status)
	}

	if err := UpdateProgress(m, 100); err != nil {
		t.Fatalf("UpdateProgress error: %v", err)
	}
	if m.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", m.Status)
	}
	if m.ActualEffort == nil || *m.ActualEffort != 16 {
		t.Errorf("actual effort = %v, want frozen to estimate 16", m.ActualEffort)
	}
}

func TestUpdateProgress_CancelledRejected(t *testing.T) {
	t.Parallel()

	m := &Mission{ID: "m1", Status: StatusCancelled}
	if err := UpdateProgress(m, 50); err == nil {
		t.Error("expected error updating a cancelled mission")
	}
}
