package steward

import (
	"context"
	"fmt"
	"math"
	"sync"

	"harmonia/internal/config"
	"harmonia/internal/harmony"
	"harmonia/internal/logging"
	"harmonia/internal/mission"
	"harmonia/internal/prediction"
	"harmonia/internal/scheduler"
	"harmonia/internal/telemetry"
)

// Trigger names used with the scheduler.
const (
	triggerEvolution = "evolution"
	triggerHarmony   = "harmony-analysis"
	triggerMissions  = "mission-assignment"
)

// Orchestrator owns SystemState and coordinates the analyzers.
// It is the only component with mutable shared state; the analyzers are
// pure functions of their inputs plus their own history buffers.
type Orchestrator struct {
	cfg       *config.Config
	hub       *telemetry.Hub
	analyzer  *harmony.Analyzer
	predictor *prediction.Predictor
	assigner  *mission.Assigner
	store     StateStore
	clock     scheduler.Clock

	mu          sync.RWMutex
	state       *SystemState
	sched       *scheduler.Scheduler
	reports     []*EvolutionReport
	initialized bool
	running     bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStateStore attaches a persistence hook.
func WithStateStore(store StateStore) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithClock injects a clock, used by tests to drive triggers manually.
func WithClock(clock scheduler.Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithTechnicalMetrics injects the technical sub-metric provider.
func WithTechnicalMetrics(provider harmony.TechnicalMetricsProvider) Option {
	return func(o *Orchestrator) { o.analyzer = harmony.NewAnalyzer(provider) }
}

// NewOrchestrator validates the configuration and builds an engine.
// Invalid configuration fails construction.
func NewOrchestrator(cfg *config.Config, hub *telemetry.Hub, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if hub == nil {
		return nil, fmt.Errorf("telemetry hub required")
	}

	o := &Orchestrator{
		cfg:       cfg,
		hub:       hub,
		analyzer:  harmony.NewAnalyzer(nil),
		predictor: prediction.NewPredictor(),
		assigner:  mission.NewAssigner(cfg.PhilosophyWeight),
		clock:     scheduler.RealClock{},
		state:     newSystemState(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Initialize loads persisted state, starts the periodic triggers, and
// performs one synchronous harmony analysis and prediction pass.
// Calling it again while initialized is a logged no-op.
func (o *Orchestrator) Initialize() error {
	o.mu.Lock()
	if o.initialized {
		o.mu.Unlock()
		logging.Steward("already initialized, ignoring")
		return nil
	}

	// Configuration must be valid before any trigger starts.
	if err := o.cfg.Validate(); err != nil {
		o.mu.Unlock()
		return fmt.Errorf("initialization failed: %w", err)
	}

	if o.store != nil {
		loaded, err := o.store.Load()
		if err != nil {
			o.mu.Unlock()
			return fmt.Errorf("failed to load previous state: %w", err)
		}
		if loaded != nil {
			o.state = loaded
			logging.Steward("restored state: %d evolutions, health %.0f",
				loaded.EvolutionCount, loaded.SystemHealth)
		}
	}

	sched := scheduler.New(o.clock)
	if o.cfg.AutoEvolutionEnabled {
		sched.Every(triggerEvolution, o.cfg.EvolutionInterval(), o.evolutionCycle)
	}
	sched.Every(triggerHarmony, o.cfg.HarmonyInterval(), o.harmonyCycle)
	sched.Every(triggerMissions, o.cfg.MissionInterval(), o.missionCycle)
	o.sched = sched
	o.initialized = true
	o.running = true
	o.mu.Unlock()

	logging.Steward("initialized: %d triggers running", sched.TaskCount())

	// Initial synchronous pass.
	if _, err := o.AnalyzeTeamHarmony(); err != nil {
		return err
	}
	if _, err := o.PredictPatterns(); err != nil {
		return err
	}
	return nil
}

// Running reports whether the engine has started its triggers.
func (o *Orchestrator) Running() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.running
}

// TriggerCount returns how many periodic triggers are active.
func (o *Orchestrator) TriggerCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.sched == nil {
		return 0
	}
	return o.sched.TaskCount()
}

// =============================================================================
// SCHEDULED CYCLE WRAPPERS
// Errors returned here are logged and swallowed by the scheduler, so a
// failing cycle never stops its own trigger or its siblings.
// =============================================================================

func (o *Orchestrator) evolutionCycle(ctx context.Context) error {
	_, err := o.SelfImprove()
	return err
}

func (o *Orchestrator) harmonyCycle(ctx context.Context) error {
	_, err := o.AnalyzeTeamHarmony()
	return err
}

func (o *Orchestrator) missionCycle(ctx context.Context) error {
	_, err := o.AssignMissions()
	return err
}

// =============================================================================
// ANALYSIS OPERATIONS
// =============================================================================

// AnalyzeTeamHarmony runs one harmony analysis and folds the result into
// the rolling health and alignment averages.
func (o *Orchestrator) AnalyzeTeamHarmony() (*harmony.Snapshot, error) {
	input := o.harmonyInput()
	snap := o.analyzer.Analyze(input)

	o.mu.Lock()
	o.state.CurrentSnapshot = snap
	o.state.SystemHealth = twoPointAverage(o.state.SystemHealth, snap.Overall)
	o.state.ValueAlignment = twoPointAverage(o.state.ValueAlignment, snap.ValueAlign.Average())
	o.mu.Unlock()

	return snap, nil
}

// twoPointAverage is the rolling update rule: round((prev+current)/2).
func twoPointAverage(prev, current float64) float64 {
	return math.Round((prev + current) / 2)
}

func (o *Orchestrator) harmonyInput() harmony.Input {
	return harmony.Input{
		Activities:    o.hub.Activities(),
		Wellbeing:     o.hub.Wellbeing(),
		Contributions: o.hub.Contributions(),
		Members:       o.hub.Roster(),
		Now:           o.clock.Now(),
	}
}

// PredictPatterns runs one prediction pass and replaces the active
// prediction set.
func (o *Orchestrator) PredictPatterns() ([]prediction.PatternPrediction, error) {
	preds := o.predictor.PredictEmergingPatterns(o.predictionContext())

	o.mu.Lock()
	o.state.ActivePredictions = preds
	o.state.PredictionCount++
	o.mu.Unlock()

	return preds, nil
}

func (o *Orchestrator) predictionContext() prediction.Context {
	o.mu.RLock()
	snap := o.state.CurrentSnapshot
	o.mu.RUnlock()

	return prediction.Context{
		Codebase:    o.hub.CodebaseMetrics(),
		Snapshot:    snap,
		Trends:      o.hub.Trends(),
		TeamSize:    len(o.hub.Roster()),
		Phase:       o.hub.Phase(),
		HorizonDays: o.cfg.PredictionHorizonDays,
		Now:         o.clock.Now(),
	}
}

// ValidatePredictions re-checks pending predictions against current
// telemetry.
func (o *Orchestrator) ValidatePredictions() (validated, rejected int) {
	return o.predictor.ValidatePredictions(o.predictionContext())
}

// PredictionAccuracy returns the predictor's running accuracy.
func (o *Orchestrator) PredictionAccuracy() float64 {
	return o.predictor.Accuracy()
}

// AssignMissions derives gaps and opportunities from the latest
// snapshot, runs the assigner, and replaces the active mission set.
func (o *Orchestrator) AssignMissions() ([]mission.Mission, error) {
	o.mu.RLock()
	snap := o.state.CurrentSnapshot
	preds := append([]prediction.PatternPrediction(nil), o.state.ActivePredictions...)
	o.mu.RUnlock()

	if snap == nil {
		var err error
		snap, err = o.AnalyzeTeamHarmony()
		if err != nil {
			return nil, err
		}
	}

	roster := o.hub.Roster()
	ctx := mission.Context{
		Gaps:          mission.IdentifyProjectGaps(snap),
		Opportunities: mission.IdentifyOpportunities(roster, preds),
		Roster:        roster,
		Snapshot:      snap,
		Predictions:   preds,
		Now:           o.clock.Now(),
	}
	missions := o.assigner.AssignMissions(ctx, mission.DefaultStrategy())

	o.mu.Lock()
	o.state.ActiveMissions = missions
	o.mu.Unlock()

	return missions, nil
}

// UpdateMissionProgress applies an external progress report to an
// active mission.
func (o *Orchestrator) UpdateMissionProgress(missionID string, progress float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := range o.state.ActiveMissions {
		if o.state.ActiveMissions[i].ID == missionID {
			return mission.UpdateProgress(&o.state.ActiveMissions[i], progress)
		}
	}
	return fmt.Errorf("mission %s not found", missionID)
}

// SuggestHarmonyImprovements runs a fresh analysis and applies the fixed
// threshold rules to produce human-readable suggestions.
func (o *Orchestrator) SuggestHarmonyImprovements() ([]string, error) {
	snap, err := o.AnalyzeTeamHarmony()
	if err != nil {
		return nil, err
	}

	var suggestions []string
	if snap.Collaboration.ReciprocityBalance < 70 {
		suggestions = append(suggestions,
			"Reciprocity is one-sided: set up structured pairing so knowledge flows both ways")
	}
	if snap.ValueAlign.Average() < 80 {
		suggestions = append(suggestions,
			"Value alignment is slipping: schedule an alignment workshop")
	}
	if snap.Wellbeing.StressFreedom < 40 { // mean stress above 60
		suggestions = append(suggestions,
			"Stress levels are high: review workload distribution this week")
	}
	if snap.Communication.Responsiveness < 70 {
		suggestions = append(suggestions,
			"Responses are slow: agree on response-time expectations per channel")
	}
	if snap.Wellbeing.WorkLifeBalance < 70 {
		suggestions = append(suggestions,
			"Work hours are unsustainable: protect evenings and weekends")
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Team harmony looks healthy; keep the current rhythm")
	}
	return suggestions, nil
}

// =============================================================================
// STATE ACCESS AND RESET
// =============================================================================

// State returns a read-only copy of the system state.
func (o *Orchestrator) State() SystemState {
	o.mu.RLock()
	defer o.mu.RUnlock()

	copied := *o.state
	copied.ActivePredictions = append([]prediction.PatternPrediction(nil), o.state.ActivePredictions...)
	copied.ActiveMissions = append([]mission.Mission(nil), o.state.ActiveMissions...)
	return copied
}

// Reports returns the evolution report history, oldest first.
func (o *Orchestrator) Reports() []*EvolutionReport {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*EvolutionReport, len(o.reports))
	copy(out, o.reports)
	return out
}

// Stop halts every trigger and waits for in-flight cycles to finish.
// State is untouched; Initialize starts the engine again.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	sched := o.sched
	o.sched = nil
	o.running = false
	o.initialized = false
	o.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	logging.Steward("engine stopped")
}

// Reset extracts the critical learnings, stops every trigger, reseeds
// the state to defaults with the learnings restored, and re-initializes
// if the engine had been running. The scheduler is fully stopped before
// the state is replaced so no stale trigger can mutate fresh state.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	learnings := o.extractLearningsLocked()
	wasRunning := o.running
	sched := o.sched
	o.sched = nil
	o.running = false
	o.initialized = false
	o.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}

	o.mu.Lock()
	o.state = newSystemState()
	o.state.Learnings = learnings
	o.reports = nil
	o.predictor = prediction.NewPredictor()
	stateCopy := *o.state
	o.mu.Unlock()

	// Persist before re-initializing so a restart loads the fresh state,
	// not the pre-reset one.
	if o.store != nil {
		if err := o.store.Save(&stateCopy); err != nil {
			return fmt.Errorf("failed to persist reset state: %w", err)
		}
	}

	logging.Steward("reset complete: learnings carried over (%d practices, %d patterns)",
		len(learnings.BestPractices), len(learnings.SuccessPatterns))

	if wasRunning {
		return o.Initialize()
	}
	return nil
}

// extractLearningsLocked distills what is worth keeping across a reset.
// Caller holds the mutex.
func (o *Orchestrator) extractLearningsLocked() CriticalLearnings {
	learnings := CriticalLearnings{
		HistoricalHealth: o.state.SystemHealth,
		HistoricalAlign:  o.state.ValueAlignment,
		BestPractices:    append([]string(nil), o.state.Learnings.BestPractices...),
		SuccessPatterns:  append([]string(nil), o.state.Learnings.SuccessPatterns...),
	}

	for _, pred := range o.state.ActivePredictions {
		if pred.Status == prediction.StatusValidated {
			learnings.SuccessPatterns = append(learnings.SuccessPatterns, pred.Name)
		}
	}
	for _, m := range o.state.ActiveMissions {
		if m.Status == mission.StatusCompleted {
			learnings.BestPractices = append(learnings.BestPractices, m.Title)
		}
	}
	return learnings
}
