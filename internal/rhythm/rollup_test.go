package rhythm

import (
	"math"
	"testing"
	"time"

	"github.com/lazypower/tidemark/internal/model"
)

var weekStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func testWindow() model.Window {
	return model.WeekOf(weekStart)
}

// flatCurve returns a full-day curve at a single level.
func flatCurve(day int, level float64) model.DailyEnergyCurve {
	levels := make([]float64, model.SlotsPerDay)
	for i := range levels {
		levels[i] = level
	}
	return model.DailyEnergyCurve{
		PersonID: "p1",
		Day:      weekStart.AddDate(0, 0, day),
		Levels:   levels,
	}
}

// hourlyCurve returns a curve whose level depends on the hour of day.
func hourlyCurve(day int, levelAt func(hour int) float64) model.DailyEnergyCurve {
	levels := make([]float64, model.SlotsPerDay)
	for i := range levels {
		levels[i] = levelAt(i / 4)
	}
	return model.DailyEnergyCurve{
		PersonID: "p1",
		Day:      weekStart.AddDate(0, 0, day),
		Levels:   levels,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeEmptyIsUnknown(t *testing.T) {
	out := Compute(nil, nil, testWindow())
	if len(out) != len(model.Channels) {
		t.Fatalf("channels = %d, want %d", len(out), len(model.Channels))
	}
	for ch, p := range out {
		if p.AvgLevel != nil {
			t.Errorf("%s: AvgLevel = %v, want nil", ch, *p.AvgLevel)
		}
		if p.Slope != model.LabelUnknown || p.Volatility != model.LabelUnknown || p.RecoveryLatency != model.LabelUnknown {
			t.Errorf("%s: labels = %s/%s/%s, want unknown", ch, p.Slope, p.Volatility, p.RecoveryLatency)
		}
		if p.Confidence != 0 {
			t.Errorf("%s: Confidence = %v, want 0", ch, p.Confidence)
		}
	}
}

func TestComputeFlatWeek(t *testing.T) {
	var curves []model.DailyEnergyCurve
	for d := 0; d < 7; d++ {
		curves = append(curves, flatCurve(d, 0.6))
	}
	out := Compute(curves, nil, testWindow())

	energy := out[model.Energy]
	if energy.AvgLevel == nil || !approx(*energy.AvgLevel, 0.6) {
		t.Fatalf("AvgLevel = %v, want 0.6", energy.AvgLevel)
	}
	if energy.Slope != model.SlopeStable {
		t.Errorf("Slope = %s, want stable", energy.Slope)
	}
	if energy.Volatility != model.VolatilityLow {
		t.Errorf("Volatility = %s, want low", energy.Volatility)
	}
	if energy.RecoveryLatency != model.RecoveryMedium {
		t.Errorf("RecoveryLatency = %s, want medium", energy.RecoveryLatency)
	}
	if energy.Count != 7 {
		t.Errorf("Count = %d, want 7 curve days", energy.Count)
	}
	if energy.Samples != 7*model.SlotsPerDay {
		t.Errorf("Samples = %d, want %d", energy.Samples, 7*model.SlotsPerDay)
	}
	// Every bucket ties, so all five are both peak and dip.
	if len(energy.PeakWindows) != 5 || len(energy.DipWindows) != 5 {
		t.Errorf("peaks=%v dips=%v, want all five buckets", energy.PeakWindows, energy.DipWindows)
	}
	// 0.1 + 0.02*50 + 0.05*5 + 0 clamps to 1.
	if energy.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", energy.Confidence)
	}
}

func TestComputeSlopeUpAndDown(t *testing.T) {
	var rising, falling []model.DailyEnergyCurve
	for d := 0; d < 6; d++ {
		rising = append(rising, flatCurve(d, 0.3+0.1*float64(d)))
		falling = append(falling, flatCurve(d, 0.8-0.1*float64(d)))
	}

	up := Compute(rising, nil, testWindow())[model.Energy]
	if up.Slope != model.SlopeUp {
		t.Errorf("rising Slope = %s, want up", up.Slope)
	}
	down := Compute(falling, nil, testWindow())[model.Energy]
	if down.Slope != model.SlopeDown {
		t.Errorf("falling Slope = %s, want down", down.Slope)
	}
	if down.RecoveryLatency != model.RecoveryLong {
		t.Errorf("falling RecoveryLatency = %s, want long", down.RecoveryLatency)
	}
}

func TestComputePeakAndDipWindows(t *testing.T) {
	curve := hourlyCurve(0, func(hour int) float64 {
		switch {
		case hour >= 8 && hour < 12:
			return 0.9
		case hour >= 21:
			return 0.2
		default:
			return 0.5
		}
	})
	p := Compute([]model.DailyEnergyCurve{curve}, nil, testWindow())[model.Body]

	if len(p.PeakWindows) != 1 || p.PeakWindows[0] != "morning" {
		t.Errorf("PeakWindows = %v, want [morning]", p.PeakWindows)
	}
	if len(p.DipWindows) != 1 || p.DipWindows[0] != "night" {
		t.Errorf("DipWindows = %v, want [night]", p.DipWindows)
	}
}

func TestComputeVolatilityLabels(t *testing.T) {
	tests := []struct {
		stddev float64
		want   string
	}{
		{0.0, model.VolatilityLow},
		{0.079, model.VolatilityLow},
		{0.08, model.VolatilityMedium},
		{0.149, model.VolatilityMedium},
		{0.15, model.VolatilityHigh},
		{0.4, model.VolatilityHigh},
	}
	for _, tt := range tests {
		if got := volatilityLabel(tt.stddev); got != tt.want {
			t.Errorf("volatilityLabel(%v) = %s, want %s", tt.stddev, got, tt.want)
		}
	}
}

func TestRecoveryLatencyOrder(t *testing.T) {
	tests := []struct {
		slope, vol, want string
	}{
		{model.SlopeUp, model.VolatilityLow, model.RecoveryShort},
		{model.SlopeUp, model.VolatilityMedium, model.RecoveryShort},
		{model.SlopeUp, model.VolatilityHigh, model.RecoveryLong},
		{model.SlopeStable, model.VolatilityHigh, model.RecoveryMedium},
		{model.SlopeDown, model.VolatilityLow, model.RecoveryLong},
		{model.LabelUnknown, model.LabelUnknown, model.LabelUnknown},
	}
	for _, tt := range tests {
		if got := recoveryLatency(tt.slope, tt.vol); got != tt.want {
			t.Errorf("recoveryLatency(%s, %s) = %s, want %s", tt.slope, tt.vol, got, tt.want)
		}
	}
}

func TestComputeConfidenceFormula(t *testing.T) {
	// Three samples in one bucket with input confidence 0.5:
	// 0.1 + 0.02*3 + 0.05*1 + 0.2*0.5 = 0.31
	levels := make([]float64, 12*4+3)
	for i := range levels {
		levels[i] = math.NaN()
	}
	levels[12*4] = 0.4
	levels[12*4+1] = 0.5
	levels[12*4+2] = 0.6
	curve := model.DailyEnergyCurve{PersonID: "p1", Day: weekStart, Levels: levels, Confidence: model.Float(0.5)}

	p := Compute([]model.DailyEnergyCurve{curve}, nil, testWindow())[model.Energy]
	if p.Samples != 3 || p.Count != 1 {
		t.Fatalf("Samples = %d, Count = %d, want 3 and 1 (NaN slots skipped)", p.Samples, p.Count)
	}
	if !approx(p.Confidence, 0.31) {
		t.Errorf("Confidence = %v, want 0.31", p.Confidence)
	}
}

func TestComputeEventsFoldIntoMindAndEmotion(t *testing.T) {
	at := weekStart.Add(2*24*time.Hour + 9*time.Hour)
	events := []model.RhythmEvent{
		{PersonID: "p1", OccurredAt: at, MindFocus: model.Float(0.8), StressLevel: model.Float(0.3)},
		// Out-of-range stress is skipped; the sibling focus value still counts.
		{PersonID: "p1", OccurredAt: at.Add(time.Hour), MindFocus: model.Float(0.6), StressLevel: model.Float(1.7)},
		// Outside the window.
		{PersonID: "p1", OccurredAt: weekStart.Add(-time.Hour), MindFocus: model.Float(0.1)},
	}
	out := Compute(nil, events, testWindow())

	mind := out[model.Mind]
	if mind.AvgLevel == nil || !approx(*mind.AvgLevel, 0.7) {
		t.Errorf("mind AvgLevel = %v, want 0.7", mind.AvgLevel)
	}
	if mind.Count != 2 {
		t.Errorf("mind Count = %d, want 2", mind.Count)
	}
	emotion := out[model.Emotion]
	if emotion.AvgLevel == nil || !approx(*emotion.AvgLevel, 0.7) {
		t.Errorf("emotion AvgLevel = %v, want 0.7 (1 - stress)", emotion.AvgLevel)
	}
	if emotion.Count != 1 {
		t.Errorf("emotion Count = %d, want 1", emotion.Count)
	}
	// Body and energy have no curves, so they stay unknown.
	if out[model.Body].AvgLevel != nil || out[model.Energy].AvgLevel != nil {
		t.Error("body/energy should be unknown without curves")
	}
}

func TestComputeIgnoresSlotsPastDay(t *testing.T) {
	levels := make([]float64, model.SlotsPerDay+10)
	for i := range levels {
		levels[i] = 0.5
	}
	curve := model.DailyEnergyCurve{PersonID: "p1", Day: weekStart, Levels: levels}
	p := Compute([]model.DailyEnergyCurve{curve}, nil, testWindow())[model.Energy]
	if p.Samples != model.SlotsPerDay || p.Count != 1 {
		t.Errorf("Samples = %d, Count = %d, want %d and 1", p.Samples, p.Count, model.SlotsPerDay)
	}
}
