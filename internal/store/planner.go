package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lazypower/tidemark/internal/model"
)

// UpsertItem inserts or updates a planned item keyed by (person, id).
func (db *DB) UpsertItem(it model.PlannedItem) error {
	var due any
	if it.DueAt != nil {
		due = toMillis(*it.DueAt)
	}
	_, err := db.Exec(`
		INSERT INTO planned_items (id, person_id, label, status, due_at, priority, horizon, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(person_id, id) DO UPDATE SET
			label = excluded.label, status = excluded.status, due_at = excluded.due_at,
			priority = excluded.priority, horizon = excluded.horizon, updated_at = excluded.updated_at
	`, it.ID, it.PersonID, it.Label, it.Status, due, it.Priority, it.Horizon, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// ListItems returns the person's current planner snapshot.
func (db *DB) ListItems(personID string) ([]model.PlannedItem, error) {
	rows, err := db.Query(`
		SELECT id, label, status, due_at, priority, horizon
		FROM planned_items WHERE person_id = ? ORDER BY id
	`, personID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.PlannedItem
	for rows.Next() {
		var it model.PlannedItem
		var label, horizon sql.NullString
		var due sql.NullInt64
		if err := rows.Scan(&it.ID, &label, &it.Status, &due, &it.Priority, &horizon); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.PersonID = personID
		it.Label = label.String
		it.Horizon = horizon.String
		if due.Valid {
			t := fromMillis(due.Int64)
			it.DueAt = &t
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpsertPressure writes the weekly pressure for (person, week_start).
func (db *DB) UpsertPressure(personID string, weekStart time.Time, p model.Pressure) error {
	mix := p.HorizonMix
	if mix == nil {
		mix = map[string]int{}
	}
	mixDoc, err := json.Marshal(mix)
	if err != nil {
		return fmt.Errorf("encode horizon mix: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO weekly_planner_pressure (
			person_id, week_start, open_count, overdue_count, due_this_week, carryover_rate,
			urgency_ratio, deadline_density, fragmentation_score, horizon_mix, overload_flag,
			confidence, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(person_id, week_start) DO UPDATE SET
			open_count = excluded.open_count, overdue_count = excluded.overdue_count,
			due_this_week = excluded.due_this_week, carryover_rate = excluded.carryover_rate,
			urgency_ratio = excluded.urgency_ratio, deadline_density = excluded.deadline_density,
			fragmentation_score = excluded.fragmentation_score, horizon_mix = excluded.horizon_mix,
			overload_flag = excluded.overload_flag, confidence = excluded.confidence,
			updated_at = excluded.updated_at
	`, personID, toMillis(model.DayStart(weekStart)), p.OpenCount, p.OverdueCount, p.DueThisWeek, p.CarryoverRate,
		p.UrgencyRatio, p.DeadlineDensity, p.FragmentationScore, string(mixDoc), p.OverloadFlag,
		p.Confidence, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert pressure: %w", err)
	}
	return nil
}

// PressureForWeek returns the pressure stored for exactly this week_start,
// or nil if there is none.
func (db *DB) PressureForWeek(personID string, weekStart time.Time) (*model.WeeklyPressure, error) {
	var wp model.WeeklyPressure
	var stored, updated int64
	var mix string
	err := db.QueryRow(`
		SELECT week_start, open_count, overdue_count, due_this_week, carryover_rate, urgency_ratio,
			deadline_density, fragmentation_score, horizon_mix, overload_flag, confidence, updated_at
		FROM weekly_planner_pressure
		WHERE person_id = ? AND week_start = ?
	`, personID, toMillis(model.DayStart(weekStart))).Scan(
		&stored, &wp.OpenCount, &wp.OverdueCount, &wp.DueThisWeek, &wp.CarryoverRate, &wp.UrgencyRatio,
		&wp.DeadlineDensity, &wp.FragmentationScore, &mix, &wp.OverloadFlag, &wp.Confidence, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pressure: %w", err)
	}
	if err := json.Unmarshal([]byte(mix), &wp.HorizonMix); err != nil {
		return nil, fmt.Errorf("decode horizon mix: %w", err)
	}
	wp.PersonID = personID
	wp.WeekStart = fromMillis(stored)
	wp.UpdatedAt = fromMillis(updated)
	wp.CarryoverRate = model.Clamp(wp.CarryoverRate)
	wp.UrgencyRatio = model.Clamp(wp.UrgencyRatio)
	wp.DeadlineDensity = model.Clamp(wp.DeadlineDensity)
	wp.FragmentationScore = model.Clamp(wp.FragmentationScore)
	wp.Confidence = model.Clamp(wp.Confidence)
	return &wp, nil
}
