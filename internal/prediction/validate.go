package prediction

import (
	"harmonia/internal/logging"
)

// ValidatePredictions re-examines every pending prediction against the
// current context. Realized predictions become validated; predictions
// whose grace period has lapsed become rejected; the rest stay pending.
// Terminal statuses never revert.
func (p *Predictor) ValidatePredictions(ctx Context) (validated, rejected int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pred := range p.history {
		if pred.Status != StatusPending {
			continue
		}

		if realized(pred, ctx) {
			pred.Status = StatusValidated
			validated++
			continue
		}

		if ctx.Now.After(pred.PredictedDate.Add(rejectionGrace)) {
			pred.Status = StatusRejected
			rejected++
		}
	}

	if validated > 0 || rejected > 0 {
		logging.Prediction("validation pass: %d validated, %d rejected", validated, rejected)
	}
	return validated, rejected
}

// realized runs the category-specific realization check for a prediction.
func realized(pred *PatternPrediction, ctx Context) bool {
	switch pred.Name {
	case "Linting automation":
		return hasPattern(ctx.Codebase.ArchPatterns, "automated-linting")
	case "Testing automation emergence":
		return ctx.Codebase.TestCoverage >= 80 ||
			hasPattern(ctx.Codebase.ArchPatterns, "automated-testing")
	case "Architectural refactor needed", "Modular restructuring":
		return hasPattern(ctx.Codebase.ArchPatterns, "modular")
	case "Service decomposition":
		return hasPattern(ctx.Codebase.ArchPatterns, "microservices")
	case "Design system emergence":
		return hasPattern(ctx.Codebase.ArchPatterns, "design-system")
	}

	// Snapshot-derived patterns realize when the metric that triggered
	// them has recovered.
	if ctx.Snapshot == nil {
		return false
	}
	switch pred.Name {
	case "Structured pairing needed":
		return ctx.Snapshot.Collaboration.ReciprocityBalance >= 80
	case "Value alignment workshop emergence":
		return ctx.Snapshot.ValueAlign.Average() >= 85
	case "Contribution rebalancing":
		return ctx.Snapshot.ValueAlign.Inclusivity >= 70
	case "Async communication process":
		return ctx.Snapshot.Communication.Responsiveness >= 75
	case "Scalable communication structure needed":
		return ctx.Snapshot.Communication.Average() >= 85
	case "Process streamlining":
		return ctx.Snapshot.Overall >= 85
	}
	return false
}

// Accuracy returns validated / (validated + rejected) as a percentage.
// With no terminal predictions it returns 100.
func (p *Predictor) Accuracy() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	validated, rejected := 0, 0
	for _, pred := range p.history {
		switch pred.Status {
		case StatusValidated:
			validated++
		case StatusRejected:
			rejected++
		}
	}

	total := validated + rejected
	if total == 0 {
		return 100
	}
	return float64(validated) / float64(total) * 100
}
