package prediction

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"harmonia/internal/logging"
	"harmonia/internal/telemetry"
)

// Quality gates applied before predictions leave the predictor.
const (
	minConfidence     = 60.0
	minValueAlignment = 70.0
	maxPredictions    = 20
)

// rejectionGrace is how long past the predicted date a pending
// prediction may wait before it is rejected.
const rejectionGrace = 7 * 24 * time.Hour

// Predictor runs the rule sets and keeps the prediction history used by
// validation and accuracy tracking.
type Predictor struct {
	mu      sync.RWMutex
	history []*PatternPrediction
}

// NewPredictor creates an empty predictor.
func NewPredictor() *Predictor {
	return &Predictor{}
}

// PredictEmergingPatterns runs all six rule sets over the context,
// filters low-quality predictions, ranks the survivors, and records them
// in the prediction history.
func (p *Predictor) PredictEmergingPatterns(ctx Context) []PatternPrediction {
	timer := logging.StartTimer(logging.CategoryPrediction, "PredictEmergingPatterns")
	defer timer.Stop()

	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}
	ctx.Now = now

	var candidates []PatternPrediction
	candidates = append(candidates, architecturalRules(ctx)...)
	candidates = append(candidates, collaborationRules(ctx)...)
	candidates = append(candidates, valueAlignmentRules(ctx)...)
	candidates = append(candidates, technicalRules(ctx)...)
	candidates = append(candidates, processRules(ctx)...)
	candidates = append(candidates, uiuxRules(ctx)...)

	filtered := qualityFilter(candidates)
	ranked := rank(filtered, now)
	if len(ranked) > maxPredictions {
		ranked = ranked[:maxPredictions]
	}

	p.mu.Lock()
	for i := range ranked {
		stored := ranked[i]
		p.history = append(p.history, &stored)
	}
	p.mu.Unlock()

	logging.Prediction("predicted %d patterns (%d candidates, %d after filter)",
		len(ranked), len(candidates), len(filtered))

	return ranked
}

// Predictions returns a copy of the full prediction history.
func (p *Predictor) Predictions() []PatternPrediction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PatternPrediction, 0, len(p.history))
	for _, pred := range p.history {
		out = append(out, *pred)
	}
	return out
}

// newPrediction builds a pending prediction with rule-supplied fields.
func newPrediction(ctx Context, name, description string, category Category, impact Impact,
	confidence, valueAlignment float64, daysOut int, evidence, actions []string) PatternPrediction {

	if ctx.HorizonDays > 0 && daysOut > ctx.HorizonDays {
		daysOut = ctx.HorizonDays
	}
	return PatternPrediction{
		ID:               uuid.NewString(),
		Name:             name,
		Description:      description,
		Confidence:       confidence,
		EmergenceDate:    ctx.Now,
		PredictedDate:    ctx.Now.AddDate(0, 0, daysOut),
		Category:         category,
		Impact:           impact,
		ValueAlignment:   valueAlignment,
		Evidence:         evidence,
		SuggestedActions: actions,
		Status:           StatusPending,
	}
}

// =============================================================================
// RULE SETS
// =============================================================================

func architecturalRules(ctx Context) []PatternPrediction {
	var out []PatternPrediction

	for _, t := range ctx.Trends {
		if t.Metric == "complexity" && t.Direction == telemetry.TrendIncreasing && t.Velocity > 0.1 {
			out = append(out, newPrediction(ctx,
				"Architectural refactor needed",
				"Complexity is climbing fast enough that a structural refactor will become unavoidable",
				CategoryArchitecture, ImpactHigh, 75, 85, 21,
				[]string{
					fmt.Sprintf("complexity trend increasing with velocity %.2f", t.Velocity),
					fmt.Sprintf("current complexity %.1f", ctx.Codebase.Complexity),
				},
				[]string{
					"Identify the highest-complexity modules and plan a refactor",
					"Introduce architecture review for new modules",
				}))
		}
	}

	if len(ctx.Codebase.Dependencies) > 50 {
		out = append(out, newPrediction(ctx,
			"Service decomposition",
			"Dependency growth suggests the system wants to split into smaller services",
			CategoryArchitecture, ImpactCritical, 70, 80, 30,
			[]string{fmt.Sprintf("%d dependencies exceeds the 50-dependency threshold", len(ctx.Codebase.Dependencies))},
			[]string{
				"Map dependency clusters to candidate service boundaries",
				"Extract the most isolated cluster first",
			}))
	}

	if ctx.Codebase.FileCount > 500 && ctx.Codebase.Complexity > 50 {
		out = append(out, newPrediction(ctx,
			"Modular restructuring",
			"File count and complexity together point at a package-level restructure",
			CategoryArchitecture, ImpactMedium, 65, 80, 28,
			[]string{fmt.Sprintf("%d files with complexity %.1f", ctx.Codebase.FileCount, ctx.Codebase.Complexity)},
			[]string{"Group related files into cohesive modules"}))
	}

	return out
}

func collaborationRules(ctx Context) []PatternPrediction {
	var out []PatternPrediction

	if ctx.Snapshot != nil && ctx.Snapshot.Collaboration.ReciprocityBalance < 80 {
		out = append(out, newPrediction(ctx,
			"Structured pairing needed",
			"Reciprocity imbalance indicates knowledge flows one way; structured pairing will emerge",
			CategoryCollaboration, ImpactHigh, 72, 90, 14,
			[]string{fmt.Sprintf("reciprocity balance %.1f below 80", ctx.Snapshot.Collaboration.ReciprocityBalance)},
			[]string{
				"Set up rotating pairing sessions",
				"Track give-and-take contributions explicitly",
			}))
	}

	if ctx.TeamSize > 8 {
		out = append(out, newPrediction(ctx,
			"Scalable communication structure needed",
			"Team size has passed the point where ad-hoc communication scales",
			CategoryCollaboration, ImpactHigh, 80, 85, 14,
			[]string{fmt.Sprintf("team size %d exceeds 8", ctx.TeamSize)},
			[]string{
				"Introduce squad-level sync points",
				"Write decisions down instead of re-discussing them",
			}))
	}

	return out
}

func valueAlignmentRules(ctx Context) []PatternPrediction {
	var out []PatternPrediction

	if ctx.Snapshot != nil && ctx.Snapshot.ValueAlign.Average() < 85 {
		out = append(out, newPrediction(ctx,
			"Value alignment workshop emergence",
			"Alignment scores are drifting; a structured realignment will be needed",
			CategoryValueAlignment, ImpactMedium, 68, 95, 21,
			[]string{fmt.Sprintf("value alignment average %.1f below 85", ctx.Snapshot.ValueAlign.Average())},
			[]string{
				"Run a collective-benefit alignment workshop",
				"Revisit how work is selected against stated values",
			}))
	}

	if ctx.Snapshot != nil && ctx.Snapshot.ValueAlign.Inclusivity < 70 {
		out = append(out, newPrediction(ctx,
			"Contribution rebalancing",
			"Activity is concentrated in few hands; contribution spread needs widening",
			CategoryValueAlignment, ImpactHigh, 71, 92, 14,
			[]string{fmt.Sprintf("inclusivity score %.1f below 70", ctx.Snapshot.ValueAlign.Inclusivity)},
			[]string{"Route starter tasks to quieter contributors"}))
	}

	return out
}

func technicalRules(ctx Context) []PatternPrediction {
	var out []PatternPrediction

	if ctx.Codebase.TestCoverage > 0 && ctx.Codebase.TestCoverage < 70 {
		out = append(out, newPrediction(ctx,
			"Testing automation emergence",
			"Coverage is low enough that automated test generation and CI gates will emerge",
			CategoryTechnical, ImpactHigh, 78, 85, 14,
			[]string{fmt.Sprintf("test coverage %.1f%% below 70%%", ctx.Codebase.TestCoverage)},
			[]string{
				"Add coverage gates to the merge pipeline",
				"Backfill tests for the most-changed files",
			}))
	}

	if !hasPattern(ctx.Codebase.ArchPatterns, "automated-linting") {
		out = append(out, newPrediction(ctx,
			"Linting automation",
			"No automated linting detected; style drift will force its adoption",
			CategoryTechnical, ImpactMedium, 66, 80, 10,
			[]string{"no automated-linting marker in detected architecture patterns"},
			[]string{"Wire a linter into the pre-merge checks"}))
	}

	return out
}

func processRules(ctx Context) []PatternPrediction {
	var out []PatternPrediction

	for _, t := range ctx.Trends {
		if t.Metric == "velocity" && t.Direction == telemetry.TrendDecreasing && t.Confidence >= 60 {
			out = append(out, newPrediction(ctx,
				"Process streamlining",
				"Delivery velocity is declining; process overhead needs trimming",
				CategoryProcess, ImpactMedium, 70, 80, 21,
				[]string{fmt.Sprintf("velocity trend decreasing (confidence %.0f)", t.Confidence)},
				[]string{
					"Audit recurring meetings against outcomes",
					"Shorten the review turnaround loop",
				}))
		}
	}

	if ctx.Snapshot != nil && ctx.Snapshot.Communication.Responsiveness < 75 {
		out = append(out, newPrediction(ctx,
			"Async communication process",
			"Slow response times point toward formalized async communication",
			CategoryProcess, ImpactMedium, 65, 82, 14,
			[]string{fmt.Sprintf("responsiveness %.1f below 75", ctx.Snapshot.Communication.Responsiveness)},
			[]string{"Agree on response-time expectations per channel"}))
	}

	return out
}

func uiuxRules(ctx Context) []PatternPrediction {
	var out []PatternPrediction

	uiChanges := 0
	for _, c := range ctx.Codebase.RecentChanges {
		if containsFold(c, "ui") || containsFold(c, "frontend") || containsFold(c, "css") {
			uiChanges++
		}
	}
	if uiChanges >= 5 {
		out = append(out, newPrediction(ctx,
			"Design system emergence",
			"Heavy UI churn without a design system predicts one will be extracted",
			CategoryUIUX, ImpactMedium, 64, 78, 30,
			[]string{fmt.Sprintf("%d recent UI-related changes", uiChanges)},
			[]string{"Extract shared components into a design system package"}))
	}

	return out
}

// =============================================================================
// POST-PROCESSING
// =============================================================================

// qualityFilter drops predictions below the confidence or alignment
// gates and removes duplicates by name, keeping the higher-confidence
// instance.
func qualityFilter(preds []PatternPrediction) []PatternPrediction {
	byName := make(map[string]PatternPrediction)
	order := make([]string, 0, len(preds))

	for _, pred := range preds {
		if pred.Confidence < minConfidence || pred.ValueAlignment < minValueAlignment {
			continue
		}
		existing, seen := byName[pred.Name]
		if !seen {
			byName[pred.Name] = pred
			order = append(order, pred.Name)
			continue
		}
		if pred.Confidence > existing.Confidence {
			byName[pred.Name] = pred
		}
	}

	out := make([]PatternPrediction, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

// rank orders predictions by the composite ranking score, descending.
func rank(preds []PatternPrediction, now time.Time) []PatternPrediction {
	out := make([]PatternPrediction, len(preds))
	copy(out, preds)
	sort.SliceStable(out, func(i, j int) bool {
		return rankScore(out[i], now) > rankScore(out[j], now)
	})
	return out
}

// rankScore blends confidence, impact, alignment, and urgency.
func rankScore(p PatternPrediction, now time.Time) float64 {
	days := math.Max(1, p.PredictedDate.Sub(now).Hours()/24)
	return p.Confidence*0.3 +
		impactWeight(p.Impact)*25*0.3 +
		p.ValueAlignment*0.3 +
		(1/days)*100*0.1
}

func hasPattern(patterns []string, want string) bool {
	for _, p := range patterns {
		if p == want {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
