package events

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/vmunix/scriptarr/internal/event"
)

// Log persists dispatched events to SQLite.
type Log struct {
	db *sql.DB
}

// NewLog creates a new event log.
func NewLog(db *sql.DB) *Log {
	return &Log{db: db}
}

// Append persists an event and returns its ID.
func (l *Log) Append(e event.Data) (int64, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}

	result, err := l.db.Exec(`
		INSERT INTO events (event_type, payload, occurred_at)
		VALUES (?, ?, ?)`,
		string(e.Type), string(payload), e.Timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}

	return result.LastInsertId()
}

// RawEvent represents a persisted event with its raw payload.
type RawEvent struct {
	ID         int64
	EventType  string
	Payload    string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// Since returns all events since the given time.
func (l *Log) Since(t time.Time) ([]RawEvent, error) {
	rows, err := l.db.Query(`
		SELECT id, event_type, payload, occurred_at, created_at
		FROM events
		WHERE occurred_at >= ?
		ORDER BY id ASC`,
		t,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Prune removes events older than the given duration.
func (l *Log) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := l.db.Exec(`DELETE FROM events WHERE occurred_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return result.RowsAffected()
}

// Decode unmarshals a persisted payload back into event data.
func (r RawEvent) Decode() (event.Data, error) {
	var e event.Data
	if err := json.Unmarshal([]byte(r.Payload), &e); err != nil {
		return event.Data{}, fmt.Errorf("unmarshal event payload: %w", err)
	}
	return e, nil
}

func scanEvents(rows *sql.Rows) ([]RawEvent, error) {
	var events []RawEvent
	for rows.Next() {
		var e RawEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
