package store

import (
	"testing"
)

func TestStartAndFinishRun(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	person := "p1"
	r, err := db.StartRun("run-1", "state", &person)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if r.Status != RunRunning {
		t.Errorf("Status = %q, want running", r.Status)
	}

	if err := db.FinishRun("run-1", 1, 1, 0, RunCompleted); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != RunCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if got.FinishedAt == nil {
		t.Error("FinishedAt not set")
	}
	if got.PersonID == nil || *got.PersonID != "p1" {
		t.Errorf("PersonID = %v, want p1", got.PersonID)
	}
	if got.Processed != 1 || got.Updated != 1 || got.Failed != 0 {
		t.Errorf("counts = %d/%d/%d", got.Processed, got.Updated, got.Failed)
	}
}

func TestFinishRunTwice(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if _, err := db.StartRun("run-1", "rollup", nil); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := db.FinishRun("run-1", 3, 2, 1, RunPartial); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := db.FinishRun("run-1", 3, 2, 1, RunPartial); err == nil {
		t.Error("expected error finishing a finished run, got nil")
	}
}

func TestGetRunNotFound(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	r, err := db.GetRun("nope")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if r != nil {
		t.Errorf("expected nil, got %+v", r)
	}
}

func TestRecentRuns(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := db.StartRun(id, "signals", nil); err != nil {
			t.Fatalf("StartRun: %v", err)
		}
	}
	runs, err := db.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs, want 2", len(runs))
	}
}
