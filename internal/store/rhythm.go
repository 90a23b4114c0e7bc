package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/lazypower/tidemark/internal/model"
)

// SaveCurve inserts or replaces one day's energy curve.
func (db *DB) SaveCurve(c model.DailyEnergyCurve) error {
	levels, err := json.Marshal(finiteOrNull(c.Levels))
	if err != nil {
		return fmt.Errorf("encode curve: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO energy_curves (person_id, day, levels, confidence) VALUES (?, ?, ?, ?)
		ON CONFLICT(person_id, day) DO UPDATE SET levels = excluded.levels, confidence = excluded.confidence
	`, c.PersonID, toMillis(model.DayStart(c.Day)), string(levels), nullFloat(c.Confidence))
	if err != nil {
		return fmt.Errorf("save curve: %w", err)
	}
	return nil
}

// finiteOrNull replaces values JSON cannot carry with null so that one bad
// slot does not reject the whole curve.
func finiteOrNull(levels []float64) []*float64 {
	out := make([]*float64, len(levels))
	for i, v := range levels {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		v := v
		out[i] = &v
	}
	return out
}

// CurvesInWindow returns the curves whose day falls inside the window.
// Null slots come back as NaN so positions are preserved.
func (db *DB) CurvesInWindow(personID string, w model.Window) ([]model.DailyEnergyCurve, error) {
	rows, err := db.Query(`
		SELECT day, levels, confidence FROM energy_curves
		WHERE person_id = ? AND day >= ? AND day < ?
		ORDER BY day
	`, personID, toMillis(w.Start), toMillis(w.End))
	if err != nil {
		return nil, fmt.Errorf("query curves: %w", err)
	}
	defer rows.Close()

	var curves []model.DailyEnergyCurve
	for rows.Next() {
		var day int64
		var raw string
		var conf sql.NullFloat64
		if err := rows.Scan(&day, &raw, &conf); err != nil {
			return nil, fmt.Errorf("scan curve: %w", err)
		}
		var slots []*float64
		if err := json.Unmarshal([]byte(raw), &slots); err != nil {
			log.Printf("store: person %s curve %d: invalid levels: %v", personID, day, err)
			continue
		}
		c := model.DailyEnergyCurve{PersonID: personID, Day: fromMillis(day), Levels: make([]float64, len(slots))}
		for i, v := range slots {
			if v == nil {
				c.Levels[i] = math.NaN()
				continue
			}
			c.Levels[i] = *v
		}
		if conf.Valid {
			c.Confidence = &conf.Float64
		}
		curves = append(curves, c)
	}
	return curves, rows.Err()
}

// AddEvent appends a rhythm event.
func (db *DB) AddEvent(ev model.RhythmEvent) error {
	_, err := db.Exec(`
		INSERT INTO rhythm_events (person_id, occurred_at, body_energy, mind_focus, stress_level, confidence)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.PersonID, toMillis(ev.OccurredAt), nullFloat(ev.BodyEnergy), nullFloat(ev.MindFocus),
		nullFloat(ev.StressLevel), nullFloat(ev.Confidence))
	if err != nil {
		return fmt.Errorf("add event: %w", err)
	}
	return nil
}

// EventsInWindow returns the events inside the window, oldest first.
func (db *DB) EventsInWindow(personID string, w model.Window) ([]model.RhythmEvent, error) {
	rows, err := db.Query(`
		SELECT id, occurred_at, body_energy, mind_focus, stress_level, confidence
		FROM rhythm_events
		WHERE person_id = ? AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at, id
	`, personID, toMillis(w.Start), toMillis(w.End))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.RhythmEvent
	for rows.Next() {
		var ev model.RhythmEvent
		var at int64
		var body, mind, stress, conf sql.NullFloat64
		if err := rows.Scan(&ev.ID, &at, &body, &mind, &stress, &conf); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.PersonID = personID
		ev.OccurredAt = fromMillis(at)
		ev.BodyEnergy = floatPtr(body)
		ev.MindFocus = floatPtr(mind)
		ev.StressLevel = floatPtr(stress)
		ev.Confidence = floatPtr(conf)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// UpsertRollup writes the weekly rollup, replacing any earlier one for the
// same (person, week_start).
func (db *DB) UpsertRollup(personID string, weekStart time.Time, channels map[model.Dimension]model.RollupPayload) error {
	doc, err := json.Marshal(channels)
	if err != nil {
		return fmt.Errorf("encode rollup: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO weekly_rhythm_rollups (person_id, week_start, channels, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(person_id, week_start) DO UPDATE SET channels = excluded.channels, updated_at = excluded.updated_at
	`, personID, toMillis(model.DayStart(weekStart)), string(doc), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert rollup: %w", err)
	}
	return nil
}

// RollupForWeek returns the rollup stored for exactly this week_start, or
// nil if there is none. A row written on another day covers a shifted
// window and never stands in for this one.
func (db *DB) RollupForWeek(personID string, weekStart time.Time) (*model.WeeklyRollup, error) {
	var stored, updated int64
	var raw string
	err := db.QueryRow(`
		SELECT week_start, channels, updated_at FROM weekly_rhythm_rollups
		WHERE person_id = ? AND week_start = ?
	`, personID, toMillis(model.DayStart(weekStart))).Scan(&stored, &raw, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rollup: %w", err)
	}
	channels, err := decodeRollupChannels(raw)
	if err != nil {
		return nil, fmt.Errorf("decode rollup: %w", err)
	}
	return &model.WeeklyRollup{
		PersonID:  personID,
		WeekStart: fromMillis(stored),
		Channels:  channels,
		UpdatedAt: fromMillis(updated),
	}, nil
}

// countField decodes a non-negative integer, or 0.
func countField(raw json.RawMessage) int {
	var n int
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil || n < 0 {
		return 0
	}
	return n
}

// rollupRecord is the stored shape of a channel payload. Numbers are kept
// raw so a bad field can be dropped without losing its siblings.
type rollupRecord struct {
	AvgLevel        json.RawMessage `json:"avg_level"`
	Slope           string          `json:"slope"`
	Volatility      string          `json:"volatility"`
	VolatilityValue json.RawMessage `json:"volatility_value"`
	PeakWindows     []string        `json:"peak_windows"`
	DipWindows      []string        `json:"dip_windows"`
	RecoveryLatency string          `json:"recovery_latency"`
	Confidence      json.RawMessage `json:"confidence"`
	Count           json.RawMessage `json:"count"`
	Samples         json.RawMessage `json:"samples"`
}

// decodeRollupChannels validates a stored rollup document. Unknown
// channels are dropped and invalid numeric fields are cleared.
func decodeRollupChannels(raw string) (map[model.Dimension]model.RollupPayload, error) {
	var doc map[string]rollupRecord
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	out := make(map[model.Dimension]model.RollupPayload, len(doc))
	for key, rec := range doc {
		d := model.Dimension(key)
		if !d.IsChannel() {
			continue
		}
		p := model.UnknownRollup()
		p.AvgLevel = unitField(rec.AvgLevel, key, "avg_level")
		p.VolatilityValue = unitField(rec.VolatilityValue, key, "volatility_value")
		if c := unitField(rec.Confidence, key, "confidence"); c != nil {
			p.Confidence = *c
		}
		p.Count = countField(rec.Count)
		p.Samples = countField(rec.Samples)
		p.Slope = label(rec.Slope, model.SlopeUp, model.SlopeDown, model.SlopeStable)
		p.Volatility = label(rec.Volatility, model.VolatilityLow, model.VolatilityMedium, model.VolatilityHigh)
		p.RecoveryLatency = label(rec.RecoveryLatency, model.RecoveryShort, model.RecoveryMedium, model.RecoveryLong)
		if rec.PeakWindows != nil {
			p.PeakWindows = rec.PeakWindows
		}
		if rec.DipWindows != nil {
			p.DipWindows = rec.DipWindows
		}
		out[d] = p
	}
	return out, nil
}

// unitField parses a [0,1] number, returning nil when it is missing, null,
// non-numeric or out of range.
func unitField(raw json.RawMessage, channel, field string) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil || !model.ValidUnit(v) {
		log.Printf("store: rollup %s.%s: skipping invalid value %s", channel, field, raw)
		return nil
	}
	return &v
}

func label(v string, allowed ...string) string {
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return model.LabelUnknown
}

func nullFloat(p *float64) any {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	return *p
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
