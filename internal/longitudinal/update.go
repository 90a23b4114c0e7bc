package longitudinal

import (
	"math"
	"time"

	"github.com/lazypower/tidemark/internal/model"
)

const (
	directionThreshold = 0.05

	// hysteresisWeight is the weight of the stored confidence in the blend.
	hysteresisWeight = 0.4

	// zeroEvidencePenalty is subtracted when a dimension has neither
	// evidence nor a level this window.
	zeroEvidencePenalty = 0.2
	rawFloor            = 0.05

	degradedConfidence = 0.1
)

// Input is everything one dimension's update needs.
type Input struct {
	Current  Snapshot
	Previous Snapshot
	// Prior is the state stored at the start of this run, nil when the
	// dimension was never computed.
	Prior  *model.DimensionState
	Window model.Window
	Now    time.Time
}

// hasPrior reports whether a stored state from an earlier window exists.
func (in Input) hasPrior() bool {
	return in.Prior != nil && !in.Prior.Window.IsZero()
}

func (in Input) priorConfidence() float64 {
	if !in.hasPrior() {
		return 0
	}
	return model.Clamp(in.Prior.Confidence)
}

// Direction compares the current and previous levels. Without a previous
// level it falls back to the hint, and without a current level it is flat.
func Direction(current, previous *float64, hint model.Direction) (model.Direction, float64) {
	switch {
	case current != nil && previous != nil:
		delta := *current - *previous
		dir := model.Flat
		if delta > directionThreshold {
			dir = model.Up
		} else if delta < -directionThreshold {
			dir = model.Down
		}
		return dir, model.Clamp(math.Abs(delta))
	case current != nil:
		dir := model.Flat
		if hint == model.Up || hint == model.Down {
			dir = hint
		}
		return dir, model.Clamp(math.Abs(*current))
	}
	return model.Flat, 0
}

// RawConfidence scores this window's evidence before blending.
func RawConfidence(cur Snapshot, dir model.Direction, prior *model.DimensionState) float64 {
	raw := 0.1
	if cur.Confidence != nil {
		raw += 0.4 * model.Clamp(*cur.Confidence)
	}
	if cur.EvidenceCount >= 3 {
		raw += 0.1
	}
	if cur.EvidenceCount >= 6 {
		raw += 0.05
	}
	if prior != nil && !prior.Window.IsZero() && prior.Direction == dir {
		raw += 0.1
	}
	if dir == model.Flat {
		raw -= 0.05
	}
	if cur.EvidenceCount == 0 && cur.Level == nil {
		raw -= zeroEvidencePenalty
	}
	return math.Max(raw, rawFloor)
}

// BlendConfidence mixes the raw score with the stored confidence so one
// noisy week cannot swing confidence to an extreme.
func BlendConfidence(raw, prior float64) float64 {
	return model.Clamp((raw + hysteresisWeight*prior) / (1 + hysteresisWeight))
}

// Update computes the new state of one dimension. It is pure: identical
// inputs always produce identical output.
func Update(in Input) model.DimensionState {
	dir, magnitude := Direction(in.Current.Level, in.Previous.Level, in.Current.DirectionHint)
	raw := RawConfidence(in.Current, dir, in.Prior)
	conf := BlendConfidence(raw, in.priorConfidence())

	facts := Facts{
		Confidence:     conf,
		PrevConfidence: in.priorConfidence(),
		Direction:      dir,
		HasPrevious:    in.hasPrior(),
	}
	if facts.HasPrevious {
		facts.PrevDirection = in.Prior.Direction
	}

	volatility := 0.0
	if in.Current.Volatility != nil {
		volatility = model.Clamp(*in.Current.Volatility)
	}

	return model.DimensionState{
		Direction:     dir,
		Magnitude:     magnitude,
		Volatility:    volatility,
		Confidence:    conf,
		Window:        in.Window,
		Lifecycle:     Classify(facts),
		LastUpdatedAt: in.Now,
	}
}

// Degraded is the entry written for a dimension whose computation failed.
func Degraded(window model.Window, now time.Time) model.DimensionState {
	return model.DimensionState{
		Direction:     model.Flat,
		Confidence:    degradedConfidence,
		Window:        window,
		Lifecycle:     model.Emerging,
		LastUpdatedAt: now,
	}
}
