package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lazypower/tidemark/internal/longitudinal"
	"github.com/lazypower/tidemark/internal/model"
	"github.com/lazypower/tidemark/internal/planner"
	"github.com/lazypower/tidemark/internal/rhythm"
	"github.com/lazypower/tidemark/internal/signals"
)

// Every job follows read, compute, then a single write. ctx is checked
// immediately before the write so a cancelled run never half-writes.

func (e *Engine) rollupPerson(ctx context.Context, rc runContext, personID string) (bool, error) {
	start := time.Now()
	curves, err := e.DB.CurvesInWindow(personID, rc.current)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	events, err := e.DB.EventsInWindow(personID, rc.current)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	e.stage(ctx, rc.component, "read", start)

	start = time.Now()
	channels := rhythm.Compute(curves, events, rc.current)
	e.stage(ctx, rc.component, "compute", start)

	if err := ctx.Err(); err != nil {
		return false, err
	}
	start = time.Now()
	if err := e.DB.UpsertRollup(personID, rc.current.Start, channels); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	e.stage(ctx, rc.component, "write", start)
	return true, nil
}

func (e *Engine) pressurePerson(ctx context.Context, rc runContext, personID string) (bool, error) {
	start := time.Now()
	items, err := e.DB.ListItems(personID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	e.stage(ctx, rc.component, "read", start)

	start = time.Now()
	p := planner.Compute(items, rc.current)
	e.stage(ctx, rc.component, "compute", start)

	if err := ctx.Err(); err != nil {
		return false, err
	}
	start = time.Now()
	if err := e.DB.UpsertPressure(personID, rc.current.Start, p); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	e.stage(ctx, rc.component, "write", start)
	return true, nil
}

func (e *Engine) statePerson(ctx context.Context, rc runContext, personID string) (bool, error) {
	start := time.Now()
	prior, err := e.DB.GetState(personID)
	if err != nil {
		// An unreadable prior document is treated as absent; the new
		// document replaces it.
		log.Printf("state: person %s: %v", personID, fmt.Errorf("%w: %v", ErrSchemaDrift, err))
		e.Metrics.RecordError(ctx, string(rc.component), ErrTypeSchemaDrift)
		prior = nil
	}
	ev, err := e.readEvidence(personID, rc)
	if err != nil {
		return false, err
	}
	if ev.CurrentRollup == nil && ev.CurrentPressure == nil && len(ev.CurrentTags) == 0 {
		log.Printf("state: person %s: %v for current window", personID, ErrMissingFeederData)
		e.Metrics.RecordError(ctx, string(rc.component), ErrTypeMissingFeeder)
	}
	e.stage(ctx, rc.component, "read", start)

	start = time.Now()
	state := longitudinal.Fuse(personID, rc.now, func(d model.Dimension) (longitudinal.Input, error) {
		return ev.Inputs(d, prior, rc.now)
	})
	e.stage(ctx, rc.component, "compute", start)

	if err := ctx.Err(); err != nil {
		return false, err
	}
	start = time.Now()
	if err := e.DB.SaveState(state); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	e.stage(ctx, rc.component, "write", start)
	return true, nil
}

// readEvidence loads both windows of feeder output. Missing summaries are
// left nil.
func (e *Engine) readEvidence(personID string, rc runContext) (longitudinal.Evidence, error) {
	var ev longitudinal.Evidence

	cur, err := e.DB.RollupForWeek(personID, rc.current.Start)
	if err != nil {
		return ev, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	prev, err := e.DB.RollupForWeek(personID, rc.previous.Start)
	if err != nil {
		return ev, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if cur != nil {
		ev.CurrentRollup = cur.Channels
	}
	if prev != nil {
		ev.PreviousRollup = prev.Channels
	}

	curP, err := e.DB.PressureForWeek(personID, rc.current.Start)
	if err != nil {
		return ev, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	prevP, err := e.DB.PressureForWeek(personID, rc.previous.Start)
	if err != nil {
		return ev, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if curP != nil {
		ev.CurrentPressure = &curP.Pressure
	}
	if prevP != nil {
		ev.PreviousPressure = &prevP.Pressure
	}

	if ev.CurrentTags, err = e.DB.TagsInWindow(personID, rc.current); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if ev.PreviousTags, err = e.DB.TagsInWindow(personID, rc.previous); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return ev, nil
}

func (e *Engine) signalsPerson(ctx context.Context, rc runContext, personID string) (bool, error) {
	start := time.Now()
	in := signals.Inputs{PersonID: personID, Window: rc.current}

	rollup, err := e.DB.RollupForWeek(personID, rc.current.Start)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if rollup != nil {
		in.Rollup = rollup.Channels
	}
	pressure, err := e.DB.PressureForWeek(personID, rc.current.Start)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if pressure != nil {
		in.Pressure = &pressure.Pressure
	}
	if in.Tags, err = e.DB.TagsInWindow(personID, rc.current); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if in.Memories, err = e.DB.MemoriesInWindow(personID, rc.current); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if in.State, err = e.DB.GetState(personID); err != nil {
		log.Printf("signals: person %s: %v", personID, fmt.Errorf("%w: %v", ErrSchemaDrift, err))
		in.State = nil
	}
	e.stage(ctx, rc.component, "read", start)

	start = time.Now()
	rec := signals.Aggregate(in, rc.now)
	e.stage(ctx, rc.component, "compute", start)

	if err := ctx.Err(); err != nil {
		return false, err
	}
	start = time.Now()
	if err := e.DB.UpsertSignals(rec); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	e.stage(ctx, rc.component, "write", start)
	return true, nil
}
