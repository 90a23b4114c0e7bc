package longitudinal

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lazypower/tidemark/internal/model"
)

// Evidence is what was read for one person before computing.
// A missing feeder is left nil.
type Evidence struct {
	CurrentRollup    map[model.Dimension]model.RollupPayload
	PreviousRollup   map[model.Dimension]model.RollupPayload
	CurrentPressure  *model.Pressure
	PreviousPressure *model.Pressure
	CurrentTags      []model.EpisodicTag
	PreviousTags     []model.EpisodicTag
}

// Inputs builds the update input for one dimension.
func (ev Evidence) Inputs(d model.Dimension, prior *model.State, now time.Time) (Input, error) {
	if !d.Valid() {
		return Input{}, fmt.Errorf("unknown dimension %q", d)
	}
	in := Input{
		Window: model.CurrentWindow(now),
		Now:    now,
	}
	if prior != nil {
		if ds, ok := prior.Dimensions[d]; ok {
			in.Prior = &ds
		}
	}
	if d == model.Work {
		in.Current = WorkSnapshot(ev.CurrentPressure)
		in.Previous = WorkSnapshot(ev.PreviousPressure)
		return in, nil
	}
	in.Current = RhythmSnapshot(d, channel(ev.CurrentRollup, d), ev.CurrentTags)
	in.Previous = RhythmSnapshot(d, channel(ev.PreviousRollup, d), ev.PreviousTags)
	return in, nil
}

func channel(rollup map[model.Dimension]model.RollupPayload, d model.Dimension) *model.RollupPayload {
	if rollup == nil {
		return nil
	}
	p, ok := rollup[d]
	if !ok {
		return nil
	}
	return &p
}

// InputFunc produces one dimension's input; an error degrades only that
// dimension.
type InputFunc func(d model.Dimension) (Input, error)

// Fuse computes every dimension concurrently and assembles the complete
// state document. A dimension whose input fails, or whose computation
// panics, is written as Degraded; the others are unaffected.
func Fuse(personID string, now time.Time, inputs InputFunc) *model.State {
	state := model.NewState(personID)
	state.UpdatedAt = now

	results := make([]model.DimensionState, len(model.Dimensions))
	var wg sync.WaitGroup
	for i, d := range model.Dimensions {
		wg.Add(1)
		go func(i int, d model.Dimension) {
			defer wg.Done()
			results[i] = updateDimension(personID, d, now, inputs)
		}(i, d)
	}
	wg.Wait()

	for i, d := range model.Dimensions {
		state.Dimensions[d] = results[i]
	}
	return state
}

func updateDimension(personID string, d model.Dimension, now time.Time, inputs InputFunc) (ds model.DimensionState) {
	window := model.CurrentWindow(now)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("state: person %s dimension %s: recovered: %v", personID, d, r)
			ds = Degraded(window, now)
		}
	}()

	in, err := inputs(d)
	if err != nil {
		log.Printf("state: person %s dimension %s: %v", personID, d, err)
		return Degraded(window, now)
	}
	return Update(in)
}
