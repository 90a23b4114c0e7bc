package store

import (
	"testing"
	"time"

	"github.com/lazypower/tidemark/internal/model"
)

func TestItemsUpsertAndList(t *testing.T) {
	db := openWithPerson(t)

	due := testWeek.Add(48 * time.Hour)
	items := []model.PlannedItem{
		{ID: "b", PersonID: "p1", Label: "write report", Status: "open", DueAt: &due, Priority: 3, Horizon: "week"},
		{ID: "a", PersonID: "p1", Status: "done"},
	}
	for _, it := range items {
		if err := db.UpsertItem(it); err != nil {
			t.Fatalf("UpsertItem: %v", err)
		}
	}
	items[0].Status = "in_progress"
	if err := db.UpsertItem(items[0]); err != nil {
		t.Fatalf("UpsertItem update: %v", err)
	}

	got, err := db.ListItems("p1")
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2", len(got))
	}
	if got[0].ID != "a" || got[0].DueAt != nil {
		t.Errorf("first item = %+v", got[0])
	}
	b := got[1]
	if b.Status != "in_progress" || b.Priority != 3 || b.Horizon != "week" {
		t.Errorf("second item = %+v", b)
	}
	if b.DueAt == nil || !b.DueAt.Equal(due) {
		t.Errorf("DueAt = %v, want %v", b.DueAt, due)
	}
}

func TestPressureUpsertAndLatest(t *testing.T) {
	db := openWithPerson(t)

	p := model.Pressure{
		OpenCount: 12, OverdueCount: 5, DueThisWeek: 4, CarryoverRate: 5.0 / 12,
		UrgencyRatio: 0.25, DeadlineDensity: 4.0 / 7, FragmentationScore: 0.7,
		HorizonMix: map[string]int{"week": 8, "month": 4}, OverloadFlag: true, Confidence: 0.6,
	}
	if err := db.UpsertPressure("p1", testWeek, p); err != nil {
		t.Fatalf("UpsertPressure: %v", err)
	}
	p.OpenCount = 13
	if err := db.UpsertPressure("p1", testWeek, p); err != nil {
		t.Fatalf("UpsertPressure again: %v", err)
	}

	got, err := db.PressureForWeek("p1", testWeek)
	if err != nil {
		t.Fatalf("PressureForWeek: %v", err)
	}
	if got == nil {
		t.Fatal("PressureForWeek returned nil")
	}
	if got.OpenCount != 13 || !got.OverloadFlag || got.HorizonMix["week"] != 8 {
		t.Errorf("pressure = %+v", got.Pressure)
	}
	if !got.WeekStart.Equal(testWeek) {
		t.Errorf("WeekStart = %v, want %v", got.WeekStart, testWeek)
	}

	prev, err := db.PressureForWeek("p1", testWeek.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("PressureForWeek previous: %v", err)
	}
	if prev != nil {
		t.Errorf("previous week = %+v, want nil", prev)
	}
}

func TestTagsInWindowSkipsUnknownDimension(t *testing.T) {
	db := openWithPerson(t)

	in, err := db.AddMemory(model.Memory{PersonID: "p1", Content: "long run", OccurredAt: testWeek.Add(9 * time.Hour)})
	if err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	out, err := db.AddMemory(model.Memory{PersonID: "p1", Content: "older", OccurredAt: testWeek.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	tags := []model.EpisodicTag{
		{MemoryID: in, Dimension: model.Body, Key: "run", Polarity: model.PolarityUp, Intensity: model.IntensityHigh},
		{MemoryID: in, Dimension: "spirit", Polarity: model.PolarityUp, Intensity: model.IntensityHigh},
		{MemoryID: out, Dimension: model.Body, Polarity: model.PolarityDown, Intensity: model.IntensityLow},
	}
	for _, tag := range tags {
		if _, err := db.AddTag(tag); err != nil {
			t.Fatalf("AddTag: %v", err)
		}
	}

	got, err := db.TagsInWindow("p1", model.WeekOf(testWeek))
	if err != nil {
		t.Fatalf("TagsInWindow: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d tags, want 1", len(got))
	}
	if got[0].Key != "run" || !got[0].OccurredAt.Equal(testWeek.Add(9*time.Hour)) {
		t.Errorf("tag = %+v", got[0])
	}

	memories, err := db.MemoriesInWindow("p1", model.WeekOf(testWeek))
	if err != nil {
		t.Fatalf("MemoriesInWindow: %v", err)
	}
	if len(memories) != 1 || memories[0].Kind != "journal" {
		t.Errorf("memories = %+v", memories)
	}
}
