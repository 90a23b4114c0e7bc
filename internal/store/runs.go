package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunPartial   = "partial"
	RunCancelled = "cancelled"
)

// Run is one audited job invocation.
type Run struct {
	ID         string
	Component  string
	PersonID   *string
	StartedAt  int64
	FinishedAt *int64
	Processed  int
	Updated    int
	Failed     int
	Status     string
}

// StartRun records a new running job.
func (db *DB) StartRun(id, component string, personID *string) (*Run, error) {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO runs (id, component, person_id, started_at, status)
		VALUES (?, ?, ?, ?, 'running')
	`, id, component, personID, now)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{
		ID:        id,
		Component: component,
		PersonID:  personID,
		StartedAt: now,
		Status:    RunRunning,
	}, nil
}

// FinishRun stores the counts and final status of a run.
func (db *DB) FinishRun(id string, processed, updated, failed int, status string) error {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE runs SET finished_at = ?, processed = ?, updated = ?, failed = ?, status = ?
		WHERE id = ? AND status = 'running'
	`, now, processed, updated, failed, status, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("no running run with id %s", id)
	}
	return nil
}

// GetRun returns a run by id, or nil if not found.
func (db *DB) GetRun(id string) (*Run, error) {
	r, err := scanRun(db.QueryRow(`
		SELECT id, component, person_id, started_at, finished_at, processed, updated, failed, status
		FROM runs WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// RecentRuns returns the most recently started runs.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	rows, err := db.Query(`
		SELECT id, component, person_id, started_at, finished_at, processed, updated, failed, status
		FROM runs ORDER BY started_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var person sql.NullString
	var finished sql.NullInt64
	if err := row.Scan(&r.ID, &r.Component, &person, &r.StartedAt, &finished,
		&r.Processed, &r.Updated, &r.Failed, &r.Status); err != nil {
		return nil, err
	}
	if person.Valid {
		r.PersonID = &person.String
	}
	if finished.Valid {
		r.FinishedAt = &finished.Int64
	}
	return &r, nil
}
