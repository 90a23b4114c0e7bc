// Package longitudinal maintains the hysteretic per-dimension trend state:
// it builds one snapshot per window from rollups, pressure and episodic
// tags, then derives direction, confidence and lifecycle against the state
// stored by the previous run.
package longitudinal

import "github.com/lazypower/tidemark/internal/model"

// Snapshot is the evidence for one dimension in one window. Absent values
// are nil.
type Snapshot struct {
	Level         *float64
	Volatility    *float64
	Confidence    *float64
	EvidenceCount int
	DirectionHint model.Direction
}

// TagLevel averages the explicit tags for one dimension and rescales the
// score from [-1.2, 1.2] into [0,1]. Tags for other dimensions and tags
// with unknown polarity or intensity are ignored. It returns nil when no
// tag contributes.
func TagLevel(d model.Dimension, tags []model.EpisodicTag) (*float64, int) {
	var sum float64
	n := 0
	for _, tag := range tags {
		if tag.Dimension != d {
			continue
		}
		sign, ok := tag.Polarity.Sign()
		if !ok {
			continue
		}
		weight, ok := tag.Intensity.Weight()
		if !ok {
			continue
		}
		sum += sign * weight
		n++
	}
	if n == 0 {
		return nil, 0
	}
	score := sum / float64(n)
	return model.Float(model.Clamp(0.5 + score/2.4)), n
}

// RhythmSnapshot builds the snapshot for body, mind, emotion or energy from
// the channel's rollup (nil when missing) overlaid with episodic tags.
func RhythmSnapshot(d model.Dimension, rollup *model.RollupPayload, tags []model.EpisodicTag) Snapshot {
	var s Snapshot
	if rollup != nil {
		if rollup.AvgLevel != nil {
			s.Level = model.Float(model.Clamp(*rollup.AvgLevel))
		}
		if rollup.VolatilityValue != nil {
			s.Volatility = model.Float(model.Clamp(*rollup.VolatilityValue))
		}
		if rollup.AvgLevel != nil || rollup.Count > 0 {
			s.Confidence = model.Float(model.Clamp(rollup.Confidence))
		}
		s.EvidenceCount = rollup.Count
	}

	tagLevel, tagCount := TagLevel(d, tags)
	s.EvidenceCount += tagCount
	switch {
	case s.Level != nil && tagLevel != nil:
		s.Level = model.Float(model.Clamp(0.5*(*s.Level) + 0.5*(*tagLevel)))
	case tagLevel != nil:
		s.Level = tagLevel
	}
	return s
}

// WorkSnapshot builds the work snapshot from weekly pressure (nil when
// missing).
func WorkSnapshot(p *model.Pressure) Snapshot {
	var s Snapshot
	if p == nil {
		return s
	}
	level := model.Clamp((p.CarryoverRate + p.FragmentationScore + p.UrgencyRatio) / 3)
	if p.OverloadFlag {
		level = 1.0
		s.DirectionHint = model.Up
	}
	s.Level = model.Float(level)
	s.Confidence = model.Float(model.Clamp(p.Confidence))
	s.EvidenceCount = p.OpenCount
	return s
}
