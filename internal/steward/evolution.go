package steward

import (
	"fmt"

	"github.com/google/uuid"

	"harmonia/internal/harmony"
	"harmonia/internal/logging"
)

// Category scores below this mark an improvement area.
const improvementThreshold = 85.0

// Changes below this alignment are proposed but never applied.
const minChangeAlignment = 70.0

// SelfImprove runs one evolution cycle: find the weakest harmony
// categories, propose changes, apply those that clear the alignment
// bar, and record the before/after deltas. Persistence failures abort
// the cycle and surface to the caller.
func (o *Orchestrator) SelfImprove() (*EvolutionReport, error) {
	timer := logging.StartTimer(logging.CategorySteward, "evolution cycle")
	defer timer.Stop()

	// A fresh snapshot anchors the "before" side of every delta.
	snap, err := o.AnalyzeTeamHarmony()
	if err != nil {
		return nil, err
	}

	o.mu.RLock()
	healthBefore := o.state.SystemHealth
	alignBefore := o.state.ValueAlignment
	harmonyBefore := snap.Overall
	o.mu.RUnlock()

	proposed := proposeChanges(snap)
	applied := make([]Change, 0, len(proposed))
	for _, c := range proposed {
		if c.ValueAlignment < minChangeAlignment {
			logging.Steward("change %q skipped: alignment %.0f below bar", c.Description, c.ValueAlignment)
			continue
		}
		applied = append(applied, c)
	}

	// Applied changes nudge the rolling scores by their estimated impact.
	var totalImpact, totalAlign float64
	for _, c := range applied {
		totalImpact += c.Impact
		totalAlign += c.ValueAlignment
	}
	meanAlign := 0.0
	if len(applied) > 0 {
		meanAlign = totalAlign / float64(len(applied))
	}

	now := o.clock.Now()
	o.mu.Lock()
	o.state.SystemHealth = clampScore(o.state.SystemHealth + totalImpact*0.1)
	o.state.ValueAlignment = clampScore(twoPointAverage(o.state.ValueAlignment, maxFloat(meanAlign, o.state.ValueAlignment)))
	o.state.LastEvolution = now
	o.state.EvolutionCount++
	healthAfter := o.state.SystemHealth
	alignAfter := o.state.ValueAlignment
	stateCopy := *o.state
	o.mu.Unlock()

	report := &EvolutionReport{
		ID:        uuid.New().String(),
		Timestamp: now,
		Version:   o.cfg.Version,
		Changes:   applied,
		SystemHealth: MetricDelta{
			Before:      healthBefore,
			After:       healthAfter,
			Improvement: healthAfter - healthBefore,
		},
		ValueAlignment: MetricDelta{
			Before:      alignBefore,
			After:       alignAfter,
			Improvement: alignAfter - alignBefore,
		},
		TeamHarmony: MetricDelta{
			Before:      harmonyBefore,
			After:       snap.Overall,
			Improvement: 0,
		},
		Productivity: MetricDelta{
			Before:      snap.Technical.Average(),
			After:       snap.Technical.Average(),
			Improvement: 0,
		},
		Metrics: EvolutionMetrics{
			ChangesProposed: len(proposed),
			ChangesApplied:  len(applied),
			MeanAlignment:   meanAlign,
		},
		Recommendations: evolutionRecommendations(snap, applied),
		NextEvolution:   now.Add(o.cfg.EvolutionInterval()),
	}

	if o.store != nil {
		if err := o.store.Save(&stateCopy); err != nil {
			return nil, fmt.Errorf("failed to persist evolution state: %w", err)
		}
	}

	o.mu.Lock()
	o.reports = append(o.reports, report)
	o.mu.Unlock()

	logging.Steward("evolution %d complete: %d/%d changes applied, health %.0f -> %.0f",
		stateCopy.EvolutionCount, len(applied), len(proposed), healthBefore, healthAfter)

	return report, nil
}

// EvaluateEvolution builds the report SelfImprove would produce without
// applying anything: the before side is the stored rolling metrics, the
// after side is the projection from the current snapshot, and the
// changes are proposed but never applied. No counters move, nothing is
// persisted, and the preview snapshot is not recorded.
func (o *Orchestrator) EvaluateEvolution() *EvolutionReport {
	snap := o.analyzer.Preview(o.harmonyInput())

	o.mu.RLock()
	healthBefore := o.state.SystemHealth
	alignBefore := o.state.ValueAlignment
	harmonyBefore := healthBefore
	if o.state.CurrentSnapshot != nil {
		harmonyBefore = o.state.CurrentSnapshot.Overall
	}
	o.mu.RUnlock()

	proposed := proposeChanges(snap)
	var candidates []Change
	for _, c := range proposed {
		if c.ValueAlignment >= minChangeAlignment {
			candidates = append(candidates, c)
		}
	}

	var totalImpact, totalAlign float64
	for _, c := range candidates {
		totalImpact += c.Impact
		totalAlign += c.ValueAlignment
	}
	meanAlign := 0.0
	if len(candidates) > 0 {
		meanAlign = totalAlign / float64(len(candidates))
	}

	healthAfter := clampScore(healthBefore + totalImpact*0.1)
	alignAfter := clampScore(twoPointAverage(alignBefore, maxFloat(meanAlign, alignBefore)))

	now := o.clock.Now()
	return &EvolutionReport{
		ID:        uuid.New().String(),
		Timestamp: now,
		Version:   o.cfg.Version,
		Changes:   candidates,
		SystemHealth: MetricDelta{
			Before:      healthBefore,
			After:       healthAfter,
			Improvement: healthAfter - healthBefore,
		},
		ValueAlignment: MetricDelta{
			Before:      alignBefore,
			After:       alignAfter,
			Improvement: alignAfter - alignBefore,
		},
		TeamHarmony: MetricDelta{
			Before:      harmonyBefore,
			After:       snap.Overall,
			Improvement: snap.Overall - harmonyBefore,
		},
		Productivity: MetricDelta{
			Before:      snap.Technical.Average(),
			After:       snap.Technical.Average(),
			Improvement: 0,
		},
		Metrics: EvolutionMetrics{
			ChangesProposed: len(proposed),
			ChangesApplied:  0,
			MeanAlignment:   meanAlign,
		},
		Recommendations: evolutionRecommendations(snap, candidates),
		NextEvolution:   now.Add(o.cfg.EvolutionInterval()),
	}
}

// proposeChanges maps weak harmony categories to candidate changes.
func proposeChanges(snap *harmony.Snapshot) []Change {
	var changes []Change

	if snap.ValueAlign.Average() < improvementThreshold {
		changes = append(changes, Change{
			Area:           "value_alignment",
			Description:    "Re-weight mission prioritization toward collective-benefit work",
			Type:           ChangeCalibration,
			Impact:         (improvementThreshold - snap.ValueAlign.Average()) * 0.5,
			ValueAlignment: 95,
		})
	}
	if snap.Collaboration.Average() < improvementThreshold {
		changes = append(changes, Change{
			Area:           "collaboration",
			Description:    "Raise the priority of pairing and knowledge-sharing missions",
			Type:           ChangeProcess,
			Impact:         (improvementThreshold - snap.Collaboration.Average()) * 0.5,
			ValueAlignment: 90,
		})
	}
	if snap.Wellbeing.Average() < improvementThreshold {
		changes = append(changes, Change{
			Area:           "wellbeing",
			Description:    "Tighten the workload cutoff used during assignment",
			Type:           ChangeCalibration,
			Impact:         (improvementThreshold - snap.Wellbeing.Average()) * 0.6,
			ValueAlignment: 95,
		})
	}
	if snap.Communication.Average() < improvementThreshold {
		changes = append(changes, Change{
			Area:           "communication",
			Description:    "Surface responsiveness in the weekly harmony summary",
			Type:           ChangeProcess,
			Impact:         (improvementThreshold - snap.Communication.Average()) * 0.4,
			ValueAlignment: 85,
		})
	}
	if snap.Technical.Average() < improvementThreshold {
		changes = append(changes, Change{
			Area:           "technical",
			Description:    "Generate more testing and refactor missions from gap analysis",
			Type:           ChangeOptimization,
			Impact:         (improvementThreshold - snap.Technical.Average()) * 0.4,
			ValueAlignment: 80,
		})
	}

	return changes
}

func evolutionRecommendations(snap *harmony.Snapshot, applied []Change) []string {
	var recs []string
	for _, c := range applied {
		recs = append(recs, fmt.Sprintf("Monitor %s over the next cycle to confirm %q helped", c.Area, c.Description))
	}
	if snap.Overall >= improvementThreshold {
		recs = append(recs, "Harmony is above target; widen the evolution interval if stability holds")
	}
	return recs
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
