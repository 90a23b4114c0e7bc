// Package rhythm turns daily energy curves and rhythm events into a weekly
// per-channel summary.
package rhythm

import (
	"math"
	"sort"
	"time"

	"github.com/lazypower/tidemark/internal/model"
)

// Thresholds for the slope and volatility labels.
const (
	slopeThreshold   = 0.05
	volatilityLowMax = 0.08
	volatilityMedMax = 0.15
	peakTolerance    = 0.02
)

// bucket is a named range of hours [from, to).
type bucket struct {
	name     string
	from, to int
}

// Buckets are the named day windows, in day order.
var buckets = []bucket{
	{"early_morning", 5, 8},
	{"morning", 8, 12},
	{"afternoon", 12, 17},
	{"evening", 17, 21},
	{"night", 21, 24},
}

// bucketFor returns the bucket index for an hour, or -1 before 05:00.
func bucketFor(hour int) int {
	for i, b := range buckets {
		if hour >= b.from && hour < b.to {
			return i
		}
	}
	return -1
}

// sample is one level observed at a point in time.
type sample struct {
	at    time.Time
	level float64
}

// Compute builds the rollup for every channel. It never fails: a channel
// without usable samples gets the unknown payload.
func Compute(curves []model.DailyEnergyCurve, events []model.RhythmEvent, window model.Window) map[model.Dimension]model.RollupPayload {
	curveSamples, curveConf, curveDays := curveSeries(curves, window)

	series := map[model.Dimension][]sample{
		model.Body:    curveSamples,
		model.Energy:  curveSamples,
		model.Mind:    append([]sample(nil), curveSamples...),
		model.Emotion: append([]sample(nil), curveSamples...),
	}
	observations := map[model.Dimension]int{
		model.Body:    curveDays,
		model.Energy:  curveDays,
		model.Mind:    curveDays,
		model.Emotion: curveDays,
	}
	conf := map[model.Dimension][]float64{
		model.Body:    curveConf,
		model.Energy:  curveConf,
		model.Mind:    append([]float64(nil), curveConf...),
		model.Emotion: append([]float64(nil), curveConf...),
	}

	for _, ev := range events {
		if !window.Contains(ev.OccurredAt) {
			continue
		}
		evConf := ev.Confidence != nil && model.ValidUnit(*ev.Confidence)
		if v, ok := unit(ev.MindFocus); ok {
			series[model.Mind] = append(series[model.Mind], sample{ev.OccurredAt, v})
			observations[model.Mind]++
			if evConf {
				conf[model.Mind] = append(conf[model.Mind], *ev.Confidence)
			}
		}
		if v, ok := unit(ev.StressLevel); ok {
			series[model.Emotion] = append(series[model.Emotion], sample{ev.OccurredAt, 1 - v})
			observations[model.Emotion]++
			if evConf {
				conf[model.Emotion] = append(conf[model.Emotion], *ev.Confidence)
			}
		}
	}

	out := make(map[model.Dimension]model.RollupPayload, len(model.Channels))
	for _, ch := range model.Channels {
		out[ch] = summarize(series[ch], conf[ch], observations[ch])
	}
	return out
}

// curveSeries flattens the curves inside the window into time-ordered
// samples. Invalid slots are skipped one by one. days counts the curves
// that contributed at least one slot.
func curveSeries(curves []model.DailyEnergyCurve, window model.Window) (samples []sample, conf []float64, days int) {
	sorted := append([]model.DailyEnergyCurve(nil), curves...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Day.Before(sorted[j].Day) })

	for _, c := range sorted {
		if !window.Contains(c.Day) {
			continue
		}
		n := len(c.Levels)
		if n > model.SlotsPerDay {
			n = model.SlotsPerDay
		}
		valid := 0
		for i := 0; i < n; i++ {
			if !model.ValidUnit(c.Levels[i]) {
				continue
			}
			samples = append(samples, sample{c.SlotTime(i), c.Levels[i]})
			valid++
		}
		if valid == 0 {
			continue
		}
		days++
		if c.Confidence != nil && model.ValidUnit(*c.Confidence) {
			conf = append(conf, *c.Confidence)
		}
	}
	return samples, conf, days
}

func summarize(series []sample, inputConf []float64, observations int) model.RollupPayload {
	if len(series) == 0 {
		return model.UnknownRollup()
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].at.Before(series[j].at) })

	levels := make([]float64, len(series))
	var sums [5]float64
	var counts [5]int
	for i, s := range series {
		levels[i] = s.level
		if b := bucketFor(s.at.UTC().Hour()); b >= 0 {
			sums[b] += s.level
			counts[b]++
		}
	}

	avg := mean(levels)
	slope := slopeLabel(levels)
	stddev := populationStdDev(levels, avg)
	vol := volatilityLabel(stddev)

	bucketMeans := make(map[int]float64)
	for i := range buckets {
		if counts[i] > 0 {
			bucketMeans[i] = sums[i] / float64(counts[i])
		}
	}
	peaks, dips := extremes(bucketMeans)

	samples := len(levels)
	if samples > 50 {
		samples = 50
	}
	bucketCount := len(bucketMeans)
	if bucketCount > 5 {
		bucketCount = 5
	}
	avgInputConf := 0.0
	if len(inputConf) > 0 {
		avgInputConf = mean(inputConf)
	}
	confidence := model.Clamp(0.1 + 0.02*float64(samples) + 0.05*float64(bucketCount) + 0.2*avgInputConf)

	return model.RollupPayload{
		AvgLevel:        model.Float(model.Clamp(avg)),
		Slope:           slope,
		Volatility:      vol,
		VolatilityValue: model.Float(model.Clamp(stddev)),
		PeakWindows:     peaks,
		DipWindows:      dips,
		RecoveryLatency: recoveryLatency(slope, vol),
		Confidence:      confidence,
		Count:           observations,
		Samples:         len(levels),
	}
}

// unit dereferences p when it holds a valid [0,1] value.
func unit(p *float64) (float64, bool) {
	if p == nil || !model.ValidUnit(*p) {
		return 0, false
	}
	return *p, true
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func populationStdDev(xs []float64, avg float64) float64 {
	var ss float64
	for _, x := range xs {
		d := x - avg
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// slopeLabel compares the mean of the first third of the series with the
// mean of the last third.
func slopeLabel(levels []float64) string {
	third := len(levels) / 3
	if third < 1 {
		third = 1
	}
	delta := mean(levels[len(levels)-third:]) - mean(levels[:third])
	switch {
	case delta > slopeThreshold:
		return model.SlopeUp
	case delta < -slopeThreshold:
		return model.SlopeDown
	}
	return model.SlopeStable
}

func volatilityLabel(stddev float64) string {
	switch {
	case stddev < volatilityLowMax:
		return model.VolatilityLow
	case stddev < volatilityMedMax:
		return model.VolatilityMedium
	}
	return model.VolatilityHigh
}

// extremes returns the buckets whose mean is within peakTolerance of the
// highest and lowest bucket means, in day order.
func extremes(bucketMeans map[int]float64) (peaks, dips []string) {
	peaks, dips = []string{}, []string{}
	if len(bucketMeans) == 0 {
		return peaks, dips
	}
	hi, lo := math.Inf(-1), math.Inf(1)
	for _, m := range bucketMeans {
		hi = math.Max(hi, m)
		lo = math.Min(lo, m)
	}
	for i, b := range buckets {
		m, ok := bucketMeans[i]
		if !ok {
			continue
		}
		if hi-m <= peakTolerance {
			peaks = append(peaks, b.name)
		}
		if m-lo <= peakTolerance {
			dips = append(dips, b.name)
		}
	}
	return peaks, dips
}

func recoveryLatency(slope, vol string) string {
	switch {
	case slope == model.SlopeUp && vol != model.VolatilityHigh:
		return model.RecoveryShort
	case slope == model.SlopeStable:
		return model.RecoveryMedium
	case slope == model.SlopeDown || vol == model.VolatilityHigh:
		return model.RecoveryLong
	}
	return model.LabelUnknown
}
