package store

import (
	"testing"

	"github.com/lazypower/tidemark/internal/model"
	"github.com/lazypower/tidemark/internal/signals"
)

func TestSignalsUpsertAndLookup(t *testing.T) {
	db := openWithPerson(t)

	rec := signals.Record{
		PersonID:   "p1",
		WeekStart:  testWeek,
		DeltaStats: map[model.Dimension]model.Direction{model.Energy: model.Up},
		Confidence: 0.4,
	}
	if err := db.UpsertSignals(rec); err != nil {
		t.Fatalf("UpsertSignals: %v", err)
	}
	rec.Confidence = 0.55
	if err := db.UpsertSignals(rec); err != nil {
		t.Fatalf("UpsertSignals again: %v", err)
	}
	later := rec
	later.WeekStart = testWeek.AddDate(0, 0, 7)
	later.Confidence = 0.7
	if err := db.UpsertSignals(later); err != nil {
		t.Fatalf("UpsertSignals later: %v", err)
	}

	var n int
	db.QueryRow("SELECT COUNT(*) FROM weekly_signals").Scan(&n)
	if n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}

	got, err := db.GetSignals("p1", testWeek)
	if err != nil {
		t.Fatalf("GetSignals: %v", err)
	}
	if got == nil || got.Confidence != 0.55 || got.DeltaStats[model.Energy] != model.Up {
		t.Errorf("GetSignals = %+v", got)
	}

	latest, err := db.LatestSignals("p1")
	if err != nil {
		t.Fatalf("LatestSignals: %v", err)
	}
	if latest == nil || !latest.WeekStart.Equal(later.WeekStart) {
		t.Errorf("LatestSignals = %+v", latest)
	}

	missing, err := db.GetSignals("p1", testWeek.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("GetSignals missing: %v", err)
	}
	if missing != nil {
		t.Errorf("GetSignals missing = %+v, want nil", missing)
	}
}
