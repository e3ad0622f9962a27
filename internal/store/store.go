// Package store persists engine state and analysis history to SQLite.
// The current SystemState lives in a single-row table; snapshots,
// predictions, and evolution reports are append-only history.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"harmonia/internal/harmony"
	"harmonia/internal/logging"
	"harmonia/internal/mission"
	"harmonia/internal/prediction"
	"harmonia/internal/steward"
)

// Store is the SQLite-backed implementation of steward.StateStore.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

var _ steward.StateStore = (*Store)(nil)

// NewStore creates or opens the engine database under dir.
func NewStore(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "harmonia.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Store("database opened at %s", dbPath)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	-- Single-row current engine state
	CREATE TABLE IF NOT EXISTS engine_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		state_json TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	-- Harmony snapshot history
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		overall REAL NOT NULL,
		snapshot_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON snapshots(timestamp);

	-- Evolution report history
	CREATE TABLE IF NOT EXISTS evolution_reports (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		version TEXT NOT NULL,
		health_after REAL NOT NULL,
		report_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON evolution_reports(timestamp);

	-- Pattern prediction history
	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		confidence REAL NOT NULL,
		predicted_at DATETIME NOT NULL,
		prediction_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_predicted_at ON predictions(predicted_at);

	-- Mission history
	CREATE TABLE IF NOT EXISTS missions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		status TEXT NOT NULL,
		priority TEXT NOT NULL,
		assigned_at DATETIME NOT NULL,
		mission_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_missions_assigned_at ON missions(assigned_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENGINE STATE
// =============================================================================

// Save writes the current engine state, replacing the previous row.
func (s *Store) Save(state *steward.SystemState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO engine_state (id, state_json, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at
	`, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	logging.Store("state saved: %d evolutions, %d active missions",
		state.EvolutionCount, len(state.ActiveMissions))
	return nil
}

// Load reads the persisted engine state. A missing row returns
// (nil, nil) so a fresh database starts with defaults.
func (s *Store) Load() (*steward.SystemState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow(`SELECT state_json FROM engine_state WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var state steward.SystemState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &state, nil
}

// =============================================================================
// HISTORY
// =============================================================================

// RecordSnapshot appends a harmony snapshot to history.
func (s *Store) RecordSnapshot(snap *harmony.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO snapshots (timestamp, overall, snapshot_json)
		VALUES (?, ?, ?)
	`, snap.Timestamp, snap.Overall, string(data))
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// RecentSnapshots returns up to limit snapshots, newest first.
func (s *Store) RecentSnapshots(limit int) ([]harmony.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT snapshot_json FROM snapshots
		ORDER BY timestamp DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []harmony.Snapshot
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		var snap harmony.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// RecordReport appends an evolution report to history.
func (s *Store) RecordReport(r *steward.EvolutionReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO evolution_reports (id, timestamp, version, health_after, report_json)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.Timestamp, r.Version, r.SystemHealth.After, string(data))
	if err != nil {
		return fmt.Errorf("failed to record report: %w", err)
	}
	return nil
}

// RecentReports returns up to limit evolution reports, newest first.
func (s *Store) RecentReports(limit int) ([]steward.EvolutionReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT report_json FROM evolution_reports
		ORDER BY timestamp DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []steward.EvolutionReport
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		var r steward.EvolutionReport
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// RecordPredictions upserts a prediction pass into history. Re-recording
// an existing ID keeps the latest status, so validation passes update
// the stored rows in place.
func (s *Store) RecordPredictions(preds []prediction.PatternPrediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range preds {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode prediction: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO predictions (id, name, status, confidence, predicted_at, prediction_json)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				status = excluded.status,
				confidence = excluded.confidence,
				prediction_json = excluded.prediction_json
		`, p.ID, p.Name, string(p.Status), p.Confidence, p.PredictedDate, string(data))
		if err != nil {
			return fmt.Errorf("failed to record prediction: %w", err)
		}
	}
	return tx.Commit()
}

// RecentPredictions returns up to limit predictions, newest first.
func (s *Store) RecentPredictions(limit int) ([]prediction.PatternPrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT prediction_json FROM predictions
		ORDER BY predicted_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var preds []prediction.PatternPrediction
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		var p prediction.PatternPrediction
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to decode prediction: %w", err)
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

// RecordMissions upserts an assignment pass into history, keeping the
// latest status and progress per mission.
func (s *Store) RecordMissions(missions []mission.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range missions {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to encode mission: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO missions (id, title, status, priority, assigned_at, mission_json)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				status = excluded.status,
				mission_json = excluded.mission_json
		`, m.ID, m.Title, string(m.Status), string(m.Priority), m.AssignedDate, string(data))
		if err != nil {
			return fmt.Errorf("failed to record mission: %w", err)
		}
	}
	return tx.Commit()
}

// RecentMissions returns up to limit missions, newest first.
func (s *Store) RecentMissions(limit int) ([]mission.Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT mission_json FROM missions
		ORDER BY assigned_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query missions: %w", err)
	}
	defer rows.Close()

	var missions []mission.Mission
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		var m mission.Mission
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("failed to decode mission: %w", err)
		}
		missions = append(missions, m)
	}
	return missions, rows.Err()
}
