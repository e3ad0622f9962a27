package mission

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"harmonia/internal/logging"
	"harmonia/internal/prediction"
	"harmonia/internal/telemetry"
)

// Workload thresholds. Selection uses the soft cutoff, final validation
// the hard one; the gap between them is a deliberate capacity buffer
// rather than a single limit.
const (
	softWorkloadCutoff = 80.0
	hardWorkloadCutoff = 90.0
)

// maxWorkloadIncrement caps how much one assignment can add to a
// member's workload.
const maxWorkloadIncrement = 30.0

// rebalanceFactor flags members whose workload exceeds this multiple of
// the team mean.
const rebalanceFactor = 1.3

// Assigner turns gaps, opportunities, and predictions into assigned
// missions.
type Assigner struct {
	philosophyWeight float64
}

// NewAssigner creates an assigner. philosophyWeight is the configured
// weight applied to value alignment during prioritization.
func NewAssigner(philosophyWeight float64) *Assigner {
	return &Assigner{philosophyWeight: philosophyWeight}
}

// AssignMissions runs the full pipeline: generate candidates,
// prioritize, assign members, rebalance, schedule, validate.
func (a *Assigner) AssignMissions(ctx Context, strategy Strategy) []Mission {
	timer := logging.StartTimer(logging.CategoryMission, "AssignMissions")
	defer timer.Stop()

	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}
	ctx.Now = now

	missions := a.generateCandidates(ctx)
	a.prioritize(missions, strategy, now)
	a.assignResources(missions, ctx.Roster, strategy)
	if strategy.BalanceWorkload {
		a.detectOverload(missions, ctx.Roster)
	}
	a.schedule(missions, now)
	a.validate(missions, ctx.Roster)

	assigned := 0
	for i := range missions {
		if missions[i].AssignedTo() != "" && missions[i].Status != StatusBlocked {
			assigned++
		}
	}
	logging.Mission("assignment pass: %d missions generated, %d assigned", len(missions), assigned)

	return missions
}

// =============================================================================
// STEP 1 - CANDIDATE GENERATION
// =============================================================================

func (a *Assigner) generateCandidates(ctx Context) []Mission {
	var missions []Mission
	for _, gap := range ctx.Gaps {
		missions = append(missions, CreateMissionsFromGap(gap, ctx.Now)...)
	}
	for _, opp := range ctx.Opportunities {
		missions = append(missions, missionFromOpportunity(opp, ctx.Now))
	}
	for _, pred := range ctx.Predictions {
		missions = append(missions, missionsFromPrediction(pred, ctx.Now)...)
	}
	return missions
}

// CreateMissionsFromGap yields one mission per suggested solution.
func CreateMissionsFromGap(gap Gap, now time.Time) []Mission {
	missions := make([]Mission, 0, len(gap.SuggestedSolutions))
	for _, solution := range gap.SuggestedSolutions {
		missions = append(missions, Mission{
			ID:               uuid.NewString(),
			Title:            solution,
			Description:      fmt.Sprintf("%s gap: %s", gap.Area, gap.Description),
			Priority:         priorityForSeverity(gap.Severity),
			Category:         categoryForArea(gap.Area),
			AssignedDate:     now,
			Status:           StatusAssigned,
			ValueBenefit:     fmt.Sprintf("Closes the %s gap", gap.Area),
			TechnicalBenefit: gap.Impact,
			Requirements:     gap.Evidence,
			Deliverables:     []string{solution},
			EstimatedEffort:  effortForSeverity(gap.Severity),
			ValueAlignment:   gap.ValueAlignment,
			Tags:             []string{"gap", gap.Area},
		})
	}
	return missions
}

func missionFromOpportunity(opp Opportunity, now time.Time) Mission {
	effort := opp.EstimatedEffort
	if effort <= 0 {
		effort = 8
	}

	priority := PriorityLow
	switch {
	case opp.PotentialValue >= 80:
		priority = PriorityHigh
	case opp.PotentialValue >= 50:
		priority = PriorityMedium
	}

	tags := []string{"opportunity"}
	if opp.GrowthPotential >= 50 {
		tags = append(tags, "growth")
	}

	return Mission{
		ID:               uuid.NewString(),
		Title:            opp.Name,
		Description:      opp.Description,
		Priority:         priority,
		Category:         opp.Category,
		AssignedDate:     now,
		Status:           StatusAssigned,
		ValueBenefit:     opp.ValueBenefit,
		TechnicalBenefit: opp.TechnicalBenefit,
		Deliverables:     []string{opp.Name},
		Dependencies:     opp.Dependencies,
		EstimatedEffort:  effort,
		ValueAlignment:   opp.PotentialValue,
		Tags:             tags,
	}
}

// missionsFromPrediction yields one mission per suggested action.
func missionsFromPrediction(pred prediction.PatternPrediction, now time.Time) []Mission {
	missions := make([]Mission, 0, len(pred.SuggestedActions))
	for _, action := range pred.SuggestedActions {
		missions = append(missions, Mission{
			ID:               uuid.NewString(),
			Title:            action,
			Description:      fmt.Sprintf("Prepare for predicted pattern: %s", pred.Name),
			Priority:         priorityForImpact(pred.Impact),
			Category:         categoryForPrediction(pred.Category),
			AssignedDate:     now,
			Status:           StatusAssigned,
			ValueBenefit:     fmt.Sprintf("Gets ahead of %s before it becomes urgent", pred.Name),
			TechnicalBenefit: pred.Description,
			Requirements:     pred.Evidence,
			Deliverables:     []string{action},
			Dependencies:     []string{pred.ID},
			EstimatedEffort:  8,
			ValueAlignment:   pred.ValueAlignment,
			Tags:             []string{"prediction", string(pred.Category)},
		})
	}
	return missions
}

func priorityForSeverity(s Severity) Priority {
	switch s {
	case SeverityCritical:
		return PriorityCritical
	case SeverityHigh:
		return PriorityHigh
	case SeverityMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func effortForSeverity(s Severity) float64 {
	switch s {
	case SeverityCritical:
		return 24
	case SeverityHigh:
		return 16
	case SeverityMedium:
		return 8
	default:
		return 4
	}
}

func priorityForImpact(i prediction.Impact) Priority {
	switch i {
	case prediction.ImpactCritical:
		return PriorityCritical
	case prediction.ImpactHigh:
		return PriorityHigh
	case prediction.ImpactMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func categoryForPrediction(c prediction.Category) Category {
	switch c {
	case prediction.CategoryArchitecture:
		return CategoryArchitecture
	case prediction.CategoryCollaboration, prediction.CategoryValueAlignment:
		return CategoryValueAlignment
	case prediction.CategoryTechnical:
		return CategoryRefactor
	case prediction.CategoryProcess:
		return CategoryProcess
	default:
		return CategoryFeature
	}
}

func categoryForArea(area string) Category {
	switch strings.ToLower(area) {
	case "testing":
		return CategoryTesting
	case "documentation", "communication":
		return CategoryDocumentation
	case "philosophy", "values", "collaboration":
		return CategoryValueAlignment
	case "architecture":
		return CategoryArchitecture
	case "process", "wellbeing":
		return CategoryProcess
	default:
		return CategoryFeature
	}
}

// =============================================================================
// STEP 2 - PRIORITIZATION
// =============================================================================

func (a *Assigner) prioritize(missions []Mission, strategy Strategy, now time.Time) {
	vaWeight := a.philosophyWeight
	if !strategy.PrioritizeValueAlignment {
		vaWeight = 0.25
	}

	sort.SliceStable(missions, func(i, j int) bool {
		return a.priorityScore(&missions[i], vaWeight, now) > a.priorityScore(&missions[j], vaWeight, now)
	})
}

func (a *Assigner) priorityScore(m *Mission, vaWeight float64, now time.Time) float64 {
	return priorityWeight(m.Priority)*0.3 +
		m.ValueAlignment*vaWeight +
		harmonyImpact(m)*0.2 +
		urgencyScore(m, now)*0.1
}

// harmonyImpact starts at 50 and adds fixed bonuses, capped at 100.
func harmonyImpact(m *Mission) float64 {
	score := 50.0
	if m.Category == CategoryValueAlignment {
		score += 30
	}
	if m.HasTag("collaboration") {
		score += 20
	}
	if m.HasTag("growth") {
		score += 15
	}
	return math.Min(score, 100)
}

// urgencyScore starts at 50, adds a priority share and a
// deadline-proximity bonus.
func urgencyScore(m *Mission, now time.Time) float64 {
	score := 50.0 + priorityWeight(m.Priority)*0.3
	if m.DueDate != nil {
		until := m.DueDate.Sub(now)
		if until < 7*24*time.Hour {
			score += 30
		} else if until < 14*24*time.Hour {
			score += 15
		}
	}
	return math.Min(score, 100)
}

// =============================================================================
// STEP 3 - RESOURCE ASSIGNMENT
// =============================================================================

func (a *Assigner) assignResources(missions []Mission, roster []*telemetry.TeamMember, strategy Strategy) {
	for i := range missions {
		m := &missions[i]

		best := a.selectMember(m, roster, strategy)
		if best == nil {
			m.Status = StatusBlocked
			logging.MissionDebug("mission %q blocked: no eligible member", m.Title)
			continue
		}

		m.Tags = append(m.Tags, AssignedToPrefix+best.ID)
		best.CurrentWorkload += math.Min(maxWorkloadIncrement, m.EstimatedEffort*2)

		if strategy.ConsiderReciprocity &&
			(m.Category == CategoryValueAlignment || m.HasTag("collaboration")) {
			best.ReciprocityScore += 5
		}

		logging.MissionDebug("mission %q assigned to %s (workload now %.0f)",
			m.Title, best.ID, best.CurrentWorkload)
	}
}

// selectMember picks the eligible member maximizing the candidate score,
// or nil when nobody is under the soft workload cutoff.
func (a *Assigner) selectMember(m *Mission, roster []*telemetry.TeamMember, strategy Strategy) *telemetry.TeamMember {
	required := inferRequiredSkills(m)

	var best *telemetry.TeamMember
	bestScore := -1.0
	for _, member := range roster {
		if member.CurrentWorkload > softWorkloadCutoff {
			continue
		}
		score := a.candidateScore(m, member, required, strategy)
		if score > bestScore {
			best = member
			bestScore = score
		}
	}
	return best
}

func (a *Assigner) candidateScore(m *Mission, member *telemetry.TeamMember, required []string, strategy Strategy) float64 {
	growth := growthPotential(required, member)
	if !strategy.FocusOnGrowth {
		growth = 0
	}

	score := skillsMatch(required, member.Skills)*0.3 +
		member.Availability*0.2 +
		member.ValueAlignment*0.25 +
		growth*0.15 +
		member.ReciprocityScore*0.1

	if strategy.RespectPreferences && matchesPreference(m, member) {
		score += 5
	}
	return score
}

// skillsMatch is the overlap ratio between required and member skills,
// as a 0-100 score.
func skillsMatch(required, skills []string) float64 {
	if len(required) == 0 {
		return 100
	}
	have := make(map[string]bool, len(skills))
	for _, s := range skills {
		have[strings.ToLower(s)] = true
	}
	matched := 0
	for _, r := range required {
		if have[strings.ToLower(r)] {
			matched++
		}
	}
	return float64(matched) / float64(len(required)) * 100
}

// growthPotential is the share of required skills the member lacks but
// lists as a growth area, as a 0-100 score.
func growthPotential(required []string, member *telemetry.TeamMember) float64 {
	if len(required) == 0 {
		return 0
	}
	have := make(map[string]bool, len(member.Skills))
	for _, s := range member.Skills {
		have[strings.ToLower(s)] = true
	}
	wants := make(map[string]bool, len(member.GrowthAreas))
	for _, g := range member.GrowthAreas {
		wants[strings.ToLower(g)] = true
	}
	count := 0
	for _, r := range required {
		lr := strings.ToLower(r)
		if !have[lr] && wants[lr] {
			count++
		}
	}
	return float64(count) / float64(len(required)) * 100
}

func matchesPreference(m *Mission, member *telemetry.TeamMember) bool {
	for _, pref := range member.Preferences {
		lp := strings.ToLower(pref)
		if lp == string(m.Category) || m.HasTag(lp) {
			return true
		}
	}
	return false
}

// inferRequiredSkills derives skill requirements from the mission's
// category and wording.
func inferRequiredSkills(m *Mission) []string {
	var skills []string
	switch m.Category {
	case CategoryArchitecture:
		skills = []string{"architecture", "design"}
	case CategoryRefactor:
		skills = []string{"refactoring", "architecture"}
	case CategoryTesting:
		skills = []string{"testing", "automation"}
	case CategoryDocumentation:
		skills = []string{"documentation", "writing"}
	case CategoryValueAlignment:
		skills = []string{"facilitation", "mentoring"}
	case CategoryProcess:
		skills = []string{"process", "facilitation"}
	default:
		skills = []string{"development"}
	}

	text := strings.ToLower(m.Title + " " + m.Description)
	for keyword, skill := range map[string]string{
		"test":     "testing",
		"pipeline": "ci",
		"review":   "review",
		"pair":     "mentoring",
		"monitor":  "observability",
	} {
		if strings.Contains(text, keyword) && !containsSkill(skills, skill) {
			skills = append(skills, skill)
		}
	}
	return skills
}

func containsSkill(skills []string, s string) bool {
	for _, skill := range skills {
		if skill == s {
			return true
		}
	}
	return false
}

// =============================================================================
// STEP 4 - OVERLOAD DETECTION
// =============================================================================

// detectOverload logs members whose workload exceeds 130% of the team
// mean. Reassignment stays a human decision.
func (a *Assigner) detectOverload(missions []Mission, roster []*telemetry.TeamMember) {
	if len(roster) == 0 {
		return
	}
	total := 0.0
	for _, member := range roster {
		total += member.CurrentWorkload
	}
	mean := total / float64(len(roster))
	if mean <= 0 {
		return
	}

	for _, member := range roster {
		if member.CurrentWorkload > mean*rebalanceFactor {
			logging.Mission("workload imbalance: %s at %.0f vs team mean %.0f",
				member.ID, member.CurrentWorkload, mean)
		}
	}
}

// =============================================================================
// STEP 5 - SCHEDULING
// =============================================================================

// priorityMultiplier compresses or stretches the due date by priority.
func priorityMultiplier(p Priority) float64 {
	switch p {
	case PriorityCritical, PriorityUrgent:
		return 0.5
	case PriorityHigh:
		return 0.7
	case PriorityLow:
		return 1.5
	default:
		return 1.0
	}
}

func (a *Assigner) schedule(missions []Mission, now time.Time) {
	for i := range missions {
		m := &missions[i]
		if m.DueDate != nil {
			continue
		}
		days := int(math.Max(1, math.Ceil(m.EstimatedEffort/8*priorityMultiplier(m.Priority))))
		due := now.AddDate(0, 0, days)
		m.DueDate = &due
	}
}

// =============================================================================
// STEP 6 - VALIDATION
// =============================================================================

// validate blocks any assigned mission whose member ended up over the
// hard workload cutoff.
func (a *Assigner) validate(missions []Mission, roster []*telemetry.TeamMember) {
	byID := make(map[string]*telemetry.TeamMember, len(roster))
	for _, member := range roster {
		byID[member.ID] = member
	}

	for i := range missions {
		m := &missions[i]
		id := m.AssignedTo()
		if id == "" {
			continue
		}
		member := byID[id]
		if member == nil || member.CurrentWorkload > hardWorkloadCutoff {
			m.Status = StatusBlocked
			logging.Mission("mission %q blocked in validation: member %s over capacity", m.Title, id)
		}
	}
}

// =============================================================================
// PROGRESS UPDATES
// =============================================================================

// UpdateProgress applies an external progress report to a mission.
// Reaching 100 completes the mission and freezes actual effort.
func UpdateProgress(m *Mission, progress float64) error {
	if progress < 0 || progress > 100 {
		return fmt.Errorf("progress must be in [0,100], got %g", progress)
	}
	if m.Status == StatusCancelled {
		return fmt.Errorf("mission %s is cancelled", m.ID)
	}

	m.Progress = progress
	if progress == 100 {
		m.Status = StatusCompleted
		if m.ActualEffort == nil {
			effort := m.EstimatedEffort
			m.ActualEffort = &effort
		}
		return nil
	}
	if progress > 0 && m.Status == StatusAssigned {
		m.Status = StatusInProgress
	}
	return nil
}
