package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"harmonia/internal/harmony"
	"harmonia/internal/mission"
	"harmonia/internal/prediction"
	"harmonia/internal/steward"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if s.Path() == "" {
		t.Error("expected non-empty path")
	}
}

func TestStore_LoadEmptyReturnsNil(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	state, err := s.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if state != nil {
		t.Errorf("state = %+v, want nil for an empty database", state)
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	state := &steward.SystemState{
		LastEvolution:   testNow,
		EvolutionCount:  3,
		PredictionCount: 7,
		SystemHealth:    88,
		ValueAlignment:  92,
		ActiveMissions: []mission.Mission{
			{ID: "m1", Title: "Backfill tests", Priority: mission.PriorityHigh, Status: mission.StatusAssigned},
		},
		Learnings: steward.CriticalLearnings{
			BestPractices:    []string{"Gate merges on coverage"},
			HistoricalHealth: 90,
		},
	}

	if err := s.Save(state); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected state")
	}
	if diff := cmp.Diff(state, loaded); diff != "" {
		t.Errorf("state round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestStore_SaveReplacesPrevious(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Save(&steward.SystemState{EvolutionCount: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(&steward.SystemState{EvolutionCount: 2}); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.EvolutionCount != 2 {
		t.Errorf("evolution count = %d, want the latest save", loaded.EvolutionCount)
	}
}

func TestStore_SnapshotHistory(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		snap := &harmony.Snapshot{
			Overall:   float64(70 + i),
			Timestamp: testNow.Add(time.Duration(i) * time.Hour),
		}
		if err := s.RecordSnapshot(snap); err != nil {
			t.Fatalf("RecordSnapshot error: %v", err)
		}
	}

	snaps, err := s.RecentSnapshots(2)
	if err != nil {
		t.Fatalf("RecentSnapshots error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("snapshots = %d, want limit 2", len(snaps))
	}
	if snaps[0].Overall != 72 {
		t.Errorf("newest overall = %v, want 72 (newest first)", snaps[0].Overall)
	}
}

func TestStore_ReportHistory(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	report := &steward.EvolutionReport{
		ID:        "r1",
		Timestamp: testNow,
		Version:   "1.0.0",
		SystemHealth: steward.MetricDelta{
			Before: 80, After: 85, Improvement: 5,
		},
	}
	if err := s.RecordReport(report); err != nil {
		t.Fatalf("RecordReport error: %v", err)
	}

	reports, err := s.RecentReports(10)
	if err != nil {
		t.Fatalf("RecentReports error: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}
	if reports[0].ID != "r1" || reports[0].SystemHealth.After != 85 {
		t.Errorf("report = %+v, want preserved fields", reports[0])
	}
}

func TestStore_PredictionHistoryUpsertsByID(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	pred := prediction.PatternPrediction{
		ID:            "p1",
		Name:          "Linting automation",
		Confidence:    75,
		PredictedDate: testNow,
		Status:        prediction.StatusPending,
	}
	if err := s.RecordPredictions([]prediction.PatternPrediction{pred}); err != nil {
		t.Fatalf("RecordPredictions error: %v", err)
	}

	// A later validation pass re-records the same ID with a new status.
	pred.Status = prediction.StatusValidated
	if err := s.RecordPredictions([]prediction.PatternPrediction{pred}); err != nil {
		t.Fatalf("RecordPredictions error: %v", err)
	}

	preds, err := s.RecentPredictions(10)
	if err != nil {
		t.Fatalf("RecentPredictions error: %v", err)
	}
	if len(preds) != 1 {
		t.Fatalf("predictions = %d, want 1 after upsert", len(preds))
	}
	if preds[0].Status != prediction.StatusValidated {
		t.Errorf("status = %s, want latest status kept", preds[0].Status)
	}
}

func TestStore_MissionHistory(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	missions := []mission.Mission{
		{ID: "m1", Title: "Backfill tests", Priority: mission.PriorityHigh,
			Status: mission.StatusAssigned, AssignedDate: testNow},
		{ID: "m2", Title: "Document onboarding", Priority: mission.PriorityMedium,
			Status: mission.StatusAssigned, AssignedDate: testNow.Add(time.Hour)},
	}
	if err := s.RecordMissions(missions); err != nil {
		t.Fatalf("RecordMissions error: %v", err)
	}

	missions[0].Status = mission.StatusCompleted
	if err := s.RecordMissions(missions[:1]); err != nil {
		t.Fatalf("RecordMissions error: %v", err)
	}

	got, err := s.RecentMissions(10)
	if err != nil {
		t.Fatalf("RecentMissions error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("missions = %d, want 2", len(got))
	}
	if got[0].ID != "m2" {
		t.Errorf("newest mission = %s, want m2 (newest first)", got[0].ID)
	}
	if got[1].Status != mission.StatusCompleted {
		t.Errorf("status = %s, want latest status kept", got[1].Status)
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(&steward.SystemState{SystemHealth: 77}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { reopened.Close() })

	loaded, err := reopened.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil || loaded.SystemHealth != 77 {
		t.Errorf("loaded = %+v, want persisted health 77", loaded)
	}
}
