package runner

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmunix/scriptarr/internal/event"
)

// Store persists run outcomes to SQLite for history and telemetry.
type Store struct {
	db *sql.DB
}

// NewStore creates a run-history store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record persists one result.
func (s *Store) Record(r Result) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, setting_id, setting_name, event_type, outcome,
			exit_code, duration_ms, error, stderr_tail, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.SettingID, r.SettingName, string(r.EventType), string(r.Outcome),
		r.ExitCode, r.Duration.Milliseconds(), r.Error, r.StderrTail, r.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the newest runs, most recent first.
func (s *Store) Recent(limit int) ([]Result, error) {
	rows, err := s.db.Query(`
		SELECT run_id, setting_id, setting_name, event_type, outcome,
			exit_code, duration_ms, error, stderr_tail, started_at
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var eventType, outcome string
		var durationMS int64
		if err := rows.Scan(&r.RunID, &r.SettingID, &r.SettingName, &eventType, &outcome,
			&r.ExitCode, &durationMS, &r.Error, &r.StderrTail, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.EventType = event.Type(eventType)
		r.Outcome = Outcome(outcome)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}

// Prune removes runs older than the given duration.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := s.db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return result.RowsAffected()
}
