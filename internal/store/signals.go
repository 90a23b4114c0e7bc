package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lazypower/tidemark/internal/signals"
)

// UpsertSignals writes the weekly signals record for (person, week_start).
func (db *DB) UpsertSignals(rec signals.Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode signals: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO weekly_signals (person_id, week_start, doc, confidence, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(person_id, week_start) DO UPDATE SET
			doc = excluded.doc, confidence = excluded.confidence, updated_at = excluded.updated_at
	`, rec.PersonID, toMillis(rec.WeekStart), string(doc), rec.Confidence, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert signals: %w", err)
	}
	return nil
}

// GetSignals returns the record for the exact week start, or nil.
func (db *DB) GetSignals(personID string, weekStart time.Time) (*signals.Record, error) {
	var raw string
	err := db.QueryRow(`
		SELECT doc FROM weekly_signals WHERE person_id = ? AND week_start = ?
	`, personID, toMillis(weekStart)).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get signals: %w", err)
	}
	return decodeSignals(raw)
}

// LatestSignals returns the most recent record for the person, or nil.
func (db *DB) LatestSignals(personID string) (*signals.Record, error) {
	var raw string
	err := db.QueryRow(`
		SELECT doc FROM weekly_signals WHERE person_id = ? ORDER BY week_start DESC LIMIT 1
	`, personID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest signals: %w", err)
	}
	return decodeSignals(raw)
}

func decodeSignals(raw string) (*signals.Record, error) {
	var rec signals.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode signals: %w", err)
	}
	return &rec, nil
}
