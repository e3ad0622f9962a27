package prediction

import (
	"testing"
	"time"
)

func seedPredictor(ctx Context) *Predictor {
	p := NewPredictor()
	p.PredictEmergingPatterns(ctx)
	return p
}

func TestValidatePredictions_RealizedBecomesValidated(t *testing.T) {
	t.Parallel()

	trigger := healthyContext()
	trigger.Codebase.ArchPatterns = []string{"automated-testing"} // no linting marker
	p := seedPredictor(trigger)

	// The marker appears later: the prediction realized.
	check := healthyContext()
	check.Now = testNow.AddDate(0, 0, 3)

	validated, rejected := p.ValidatePredictions(check)
	if validated != 1 || rejected != 0 {
		t.Errorf("validated=%d rejected=%d, want 1/0", validated, rejected)
	}

	for _, pred := range p.Predictions() {
		if pred.Name == "Linting automation" && pred.Status != StatusValidated {
			t.Errorf("status = %s, want validated", pred.Status)
		}
	}
}

func TestValidatePredictions_GracePeriodThenRejected(t *testing.T) {
	t.Parallel()

	trigger := healthyContext()
	trigger.Codebase.ArchPatterns = []string{"automated-testing"}
	p := seedPredictor(trigger) // linting prediction, 10 days out

	stillMissing := trigger

	// Within the grace window: still pending.
	stillMissing.Now = testNow.AddDate(0, 0, 15)
	validated, rejected := p.ValidatePredictions(stillMissing)
	if validated != 0 || rejected != 0 {
		t.Errorf("inside grace: validated=%d rejected=%d, want 0/0", validated, rejected)
	}

	// Past predicted date plus grace: rejected.
	stillMissing.Now = testNow.AddDate(0, 0, 18)
	validated, rejected = p.ValidatePredictions(stillMissing)
	if validated != 0 || rejected != 1 {
		t.Errorf("past grace: validated=%d rejected=%d, want 0/1", validated, rejected)
	}
}

func TestValidatePredictions_TerminalStatusNeverReverts(t *testing.T) {
	t.Parallel()

	trigger := healthyContext()
	trigger.Codebase.ArchPatterns = []string{"automated-testing"}
	p := seedPredictor(trigger)

	realizedCtx := healthyContext()
	realizedCtx.Now = testNow.AddDate(0, 0, 3)
	p.ValidatePredictions(realizedCtx)

	// Re-validating with the trigger context again must not flip the
	// validated prediction back.
	trigger.Now = testNow.AddDate(0, 0, 60)
	validated, rejected := p.ValidatePredictions(trigger)
	if validated != 0 || rejected != 0 {
		t.Errorf("revalidation: validated=%d rejected=%d, want 0/0", validated, rejected)
	}
	for _, pred := range p.Predictions() {
		if pred.Name == "Linting automation" && pred.Status != StatusValidated {
			t.Errorf("status = %s, want validated to stick", pred.Status)
		}
	}
}

func TestAccuracy(t *testing.T) {
	t.Parallel()

	p := NewPredictor()
	if got := p.Accuracy(); got != 100 {
		t.Errorf("empty accuracy = %v, want 100", got)
	}

	p.history = []*PatternPrediction{
		{Status: StatusValidated},
		{Status: StatusValidated},
		{Status: StatusValidated},
		{Status: StatusRejected},
		{Status: StatusPending}, // pending never counts
	}
	if got := p.Accuracy(); got != 75 {
		t.Errorf("accuracy = %v, want 75", got)
	}
}

func TestAccuracy_PendingOnlyIsPerfect(t *testing.T) {
	t.Parallel()

	p := NewPredictor()
	p.history = []*PatternPrediction{
		{Status: StatusPending, PredictedDate: testNow.Add(24 * time.Hour)},
	}
	if got := p.Accuracy(); got != 100 {
		t.Errorf("accuracy with only pending = %v, want 100", got)
	}
}
