package longitudinal

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/tidemark/internal/model"
	"github.com/lazypower/tidemark/internal/planner"
	"github.com/lazypower/tidemark/internal/rhythm"
)

var now = time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

func priorState(dir model.Direction, conf float64) *model.DimensionState {
	return &model.DimensionState{
		Direction:  dir,
		Confidence: conf,
		Window:     model.PreviousWindow(now),
		Lifecycle:  model.Emerging,
	}
}

func TestDirectionWithinThresholdIsFlat(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		a := rng.Float64()
		b := a + (rng.Float64()*2-1)*0.05
		if b < 0 || b > 1 {
			continue
		}
		if diff := a - b; diff > 0.05 || diff < -0.05 {
			continue
		}
		dir, _ := Direction(&a, &b, "")
		require.Equal(t, model.Flat, dir, "a=%v b=%v", a, b)
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		name     string
		cur, prv *float64
		hint     model.Direction
		wantDir  model.Direction
		wantMag  float64
	}{
		{"up", model.Float(0.7), model.Float(0.4), "", model.Up, 0.3},
		{"down", model.Float(0.2), model.Float(0.5), "", model.Down, 0.3},
		{"current only uses hint", model.Float(0.9), nil, model.Up, model.Up, 0.9},
		{"current only without hint", model.Float(0.9), nil, "", model.Flat, 0.9},
		{"previous only", nil, model.Float(0.4), model.Up, model.Flat, 0},
		{"neither", nil, nil, "", model.Flat, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, mag := Direction(tt.cur, tt.prv, tt.hint)
			assert.Equal(t, tt.wantDir, dir)
			assert.InDelta(t, tt.wantMag, mag, 1e-9)
		})
	}
}

func TestConfidenceStaysInUnitRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	dirs := []model.Direction{model.Up, model.Down, model.Flat}
	maybe := func() *float64 {
		if rng.Intn(4) == 0 {
			return nil
		}
		return model.Float(rng.Float64())
	}
	for i := 0; i < 2000; i++ {
		in := Input{
			Current: Snapshot{
				Level:         maybe(),
				Volatility:    maybe(),
				Confidence:    maybe(),
				EvidenceCount: rng.Intn(12),
				DirectionHint: dirs[rng.Intn(3)],
			},
			Previous: Snapshot{Level: maybe(), EvidenceCount: rng.Intn(12)},
			Window:   model.CurrentWindow(now),
			Now:      now,
		}
		if rng.Intn(3) > 0 {
			in.Prior = priorState(dirs[rng.Intn(3)], rng.Float64())
		}
		out := Update(in)
		require.GreaterOrEqual(t, out.Confidence, 0.0)
		require.LessOrEqual(t, out.Confidence, 1.0)
		require.GreaterOrEqual(t, out.Magnitude, 0.0)
		require.LessOrEqual(t, out.Magnitude, 1.0)
		require.True(t, out.Direction.Valid())
		require.True(t, out.Lifecycle.Valid())
	}
}

func TestLowConfidenceShortCircuits(t *testing.T) {
	for _, f := range []Facts{
		{Confidence: 0.35, PrevConfidence: 0.2, Direction: model.Up, PrevDirection: model.Up, HasPrevious: true},
		{Confidence: 0.35, PrevConfidence: 0.9, Direction: model.Up, PrevDirection: model.Down, HasPrevious: true},
		{Confidence: 0.35},
	} {
		lc, rule := classify(f)
		assert.Equal(t, model.Emerging, lc)
		assert.Equal(t, "low-confidence", rule)
	}
}

func TestLifecycleRuleOrder(t *testing.T) {
	tests := []struct {
		name     string
		facts    Facts
		want     model.Lifecycle
		wantRule string
	}{
		{
			name:     "flip without gaining confidence decays",
			facts:    Facts{Confidence: 0.7, PrevConfidence: 0.8, Direction: model.Down, PrevDirection: model.Up, HasPrevious: true},
			want:     model.Decaying,
			wantRule: "direction-flipped",
		},
		{
			name:     "flip with equal confidence decays",
			facts:    Facts{Confidence: 0.5, PrevConfidence: 0.5, Direction: model.Flat, PrevDirection: model.Up, HasPrevious: true},
			want:     model.Decaying,
			wantRule: "direction-flipped",
		},
		{
			name:     "confirmed direction stabilizes even when confidence dips",
			facts:    Facts{Confidence: 0.65, PrevConfidence: 0.9, Direction: model.Up, PrevDirection: model.Up, HasPrevious: true},
			want:     model.Stabilizing,
			wantRule: "confirmed",
		},
		{
			name:     "same direction but losing confidence below 0.6 decays",
			facts:    Facts{Confidence: 0.5, PrevConfidence: 0.55, Direction: model.Up, PrevDirection: model.Up, HasPrevious: true},
			want:     model.Decaying,
			wantRule: "losing-confidence",
		},
		{
			name:     "flip with rising confidence above 0.6 stabilizes",
			facts:    Facts{Confidence: 0.7, PrevConfidence: 0.5, Direction: model.Down, PrevDirection: model.Up, HasPrevious: true},
			want:     model.Stabilizing,
			wantRule: "confident",
		},
		{
			name:     "first confident run stabilizes",
			facts:    Facts{Confidence: 0.62, Direction: model.Up},
			want:     model.Stabilizing,
			wantRule: "confident",
		},
		{
			name:     "middling first run is emerging",
			facts:    Facts{Confidence: 0.45, Direction: model.Up},
			want:     model.Emerging,
			wantRule: "default",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc, rule := classify(tt.facts)
			assert.Equal(t, tt.want, lc)
			assert.Equal(t, tt.wantRule, rule)
		})
	}
}

func TestUpdateEnergyEndToEnd(t *testing.T) {
	cur := map[model.Dimension]model.RollupPayload{
		model.Energy: {AvgLevel: model.Float(0.7), Confidence: 0.6, Count: 5},
	}
	prev := map[model.Dimension]model.RollupPayload{
		model.Energy: {AvgLevel: model.Float(0.4), Confidence: 0.5, Count: 4},
	}
	in := Input{
		Current:  RhythmSnapshot(model.Energy, channel(cur, model.Energy), nil),
		Previous: RhythmSnapshot(model.Energy, channel(prev, model.Energy), nil),
		Prior:    priorState(model.Up, 0.3),
		Window:   model.CurrentWindow(now),
		Now:      now,
	}
	out := Update(in)

	// raw = 0.1 + 0.4*0.6 + 0.1 (5 pieces of evidence) + 0.1 (direction held)
	raw := 0.1 + 0.4*0.6 + 0.1 + 0.1
	want := (raw + 0.4*0.3) / 1.4

	assert.Equal(t, model.Up, out.Direction)
	assert.InDelta(t, 0.3, out.Magnitude, 1e-9)
	assert.InDelta(t, want, out.Confidence, 1e-9)
	assert.InDelta(t, 0.4714285714, out.Confidence, 1e-9)
	assert.Greater(t, out.Confidence, 0.3)
	assert.Equal(t, model.Emerging, out.Lifecycle)
	assert.Equal(t, model.CurrentWindow(now), out.Window)
	assert.Equal(t, now, out.LastUpdatedAt)
}

func TestUpdateWorkOverload(t *testing.T) {
	due := now.Add(-3 * 24 * time.Hour)
	var items []model.PlannedItem
	for i := 0; i < 4; i++ {
		items = append(items, model.PlannedItem{Status: "open", DueAt: &due, Priority: 1, Horizon: "week"})
	}
	for i := 0; i < 4; i++ {
		items = append(items, model.PlannedItem{Status: "pending", Priority: 1, Horizon: "week"})
	}
	p := planner.Compute(items, model.CurrentWindow(now))
	require.Equal(t, 4, p.OverdueCount)
	require.InDelta(t, 0.5, p.CarryoverRate, 1e-9)
	require.LessOrEqual(t, p.FragmentationScore, 0.6)
	require.True(t, p.OverloadFlag)

	snap := WorkSnapshot(&p)
	require.NotNil(t, snap.Level)
	assert.Equal(t, 1.0, *snap.Level)
	assert.Equal(t, model.Up, snap.DirectionHint)
	assert.Equal(t, 8, snap.EvidenceCount)

	out := Update(Input{Current: snap, Window: model.CurrentWindow(now), Now: now})
	assert.Equal(t, model.Up, out.Direction)
	assert.Equal(t, 1.0, out.Magnitude)
}

func TestWorkSnapshotLevel(t *testing.T) {
	p := &model.Pressure{CarryoverRate: 0.3, FragmentationScore: 0.6, UrgencyRatio: 0.3, OpenCount: 5, Confidence: 0.25}
	s := WorkSnapshot(p)
	require.NotNil(t, s.Level)
	assert.InDelta(t, 0.4, *s.Level, 1e-9)
	assert.Equal(t, model.Direction(""), s.DirectionHint)
	assert.Equal(t, 5, s.EvidenceCount)

	empty := WorkSnapshot(nil)
	assert.Nil(t, empty.Level)
	assert.Zero(t, empty.EvidenceCount)
}

func TestRhythmSnapshotBlendsTags(t *testing.T) {
	rollup := &model.RollupPayload{AvgLevel: model.Float(0.6), Confidence: 0.5, Count: 10}
	tags := []model.EpisodicTag{
		{Dimension: model.Mind, Polarity: model.PolarityUp, Intensity: model.IntensityHigh},
		{Dimension: model.Mind, Polarity: model.PolarityUp, Intensity: model.IntensityMedium},
		{Dimension: model.Body, Polarity: model.PolarityDown, Intensity: model.IntensityHigh},
		{Dimension: model.Mind, Polarity: "sideways", Intensity: model.IntensityHigh},
	}
	s := RhythmSnapshot(model.Mind, rollup, tags)

	tagLevel := 0.5 + ((1.2+1.0)/2)/2.4
	require.NotNil(t, s.Level)
	assert.InDelta(t, 0.5*0.6+0.5*tagLevel, *s.Level, 1e-9)
	assert.Equal(t, 12, s.EvidenceCount)

	tagOnly := RhythmSnapshot(model.Body, nil, tags)
	require.NotNil(t, tagOnly.Level)
	assert.InDelta(t, 0.0, *tagOnly.Level, 1e-9)
	assert.Nil(t, tagOnly.Confidence)
	assert.Equal(t, 1, tagOnly.EvidenceCount)
}

func TestZeroEvidencePenalty(t *testing.T) {
	in := Input{
		Prior:  priorState(model.Flat, 0.5),
		Window: model.CurrentWindow(now),
		Now:    now,
	}
	out := Update(in)
	// raw = 0.1 + 0.1 (flat held) - 0.05 (flat) - 0.2, floored at 0.05
	assert.InDelta(t, (0.05+0.4*0.5)/1.4, out.Confidence, 1e-9)
	assert.Equal(t, model.Flat, out.Direction)
	assert.Equal(t, model.Emerging, out.Lifecycle)
}

func TestUpdateIsDeterministic(t *testing.T) {
	in := Input{
		Current:  Snapshot{Level: model.Float(0.55), Volatility: model.Float(0.1), Confidence: model.Float(0.8), EvidenceCount: 7},
		Previous: Snapshot{Level: model.Float(0.45)},
		Prior:    priorState(model.Up, 0.62),
		Window:   model.CurrentWindow(now),
		Now:      now,
	}
	first := Update(in)
	second := Update(in)
	assert.Equal(t, first, second)
}

func TestFuseDegradesOnlyFailingDimensions(t *testing.T) {
	ev := Evidence{
		CurrentRollup: map[model.Dimension]model.RollupPayload{
			model.Body: {AvgLevel: model.Float(0.5), Confidence: 0.9, Count: 20},
		},
	}
	state := Fuse("p1", now, func(d model.Dimension) (Input, error) {
		switch d {
		case model.Mind:
			return Input{}, errors.New("tag read failed")
		case model.Emotion:
			panic("boom")
		}
		return ev.Inputs(d, nil, now)
	})

	require.Len(t, state.Dimensions, len(model.Dimensions))
	for _, d := range []model.Dimension{model.Mind, model.Emotion} {
		assert.Equal(t, Degraded(model.CurrentWindow(now), now), state.Dimensions[d], d)
	}
	body := state.Dimensions[model.Body]
	assert.Equal(t, model.Flat, body.Direction)
	assert.Greater(t, body.Confidence, degradedConfidence)
}

func TestEvidenceInputsUsesPrior(t *testing.T) {
	prior := model.NewState("p1")
	prior.Dimensions[model.Work] = *priorState(model.Down, 0.7)

	in, err := Evidence{}.Inputs(model.Work, prior, now)
	require.NoError(t, err)
	require.NotNil(t, in.Prior)
	assert.Equal(t, model.Down, in.Prior.Direction)

	_, err = Evidence{}.Inputs(model.Dimension("spirit"), prior, now)
	assert.Error(t, err)
}

func TestEvidenceBonusCountsDaysNotSlots(t *testing.T) {
	var curves []model.DailyEnergyCurve
	for d := 0; d < 2; d++ {
		levels := make([]float64, model.SlotsPerDay)
		for i := range levels {
			levels[i] = 0.5
		}
		curves = append(curves, model.DailyEnergyCurve{PersonID: "p1", Day: model.CurrentWindow(now).Start.AddDate(0, 0, d), Levels: levels})
	}
	rollup := rhythm.Compute(curves, nil, model.CurrentWindow(now))[model.Energy]
	require.Equal(t, 2*model.SlotsPerDay, rollup.Samples)

	s := RhythmSnapshot(model.Energy, &rollup, nil)
	assert.Equal(t, 2, s.EvidenceCount)

	// Two days of data earn neither evidence bonus.
	raw := RawConfidence(s, model.Flat, nil)
	assert.InDelta(t, 0.1+0.4*rollup.Confidence-0.05, raw, 1e-9)
}
