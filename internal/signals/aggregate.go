// Package signals fuses a week's rollups, pressure, episodic tags, current
// longitudinal state and a keyword scan of raw entries into a read-side
// record for the renderer. It never writes longitudinal state.
package signals

import (
	"math"
	"sort"
	"time"

	"github.com/lazypower/tidemark/internal/model"
)

const (
	maxThemes          = 8
	sparseEntries      = 3
	sparseDiscount     = 0.6
	entriesSaturateAt  = 10
	rollupConfWeight   = 0.5
	pressureConfWeight = 0.2
	entryWeight        = 0.3
)

// Inputs is everything read for one person and week. Missing feeders are
// nil.
type Inputs struct {
	PersonID string
	Window   model.Window
	Rollup   map[model.Dimension]model.RollupPayload
	Pressure *model.Pressure
	Tags     []model.EpisodicTag
	Memories []model.Memory
	State    *model.State
}

// Record is the weekly signals projection.
type Record struct {
	PersonID      string                              `json:"person_id"`
	WeekStart     time.Time                           `json:"week_start"`
	EpisodicStats EpisodicStats                       `json:"episodic_stats"`
	ThemeStats    []Theme                             `json:"theme_stats"`
	ContrastStats Contrast                            `json:"contrast_stats"`
	DeltaStats    map[model.Dimension]model.Direction `json:"delta_stats"`
	Salience      Salience                            `json:"salience"`
	BodyNote      BodyNote                            `json:"body_note"`
	Confidence    float64                             `json:"confidence"`
	GeneratedAt   time.Time                           `json:"generated_at"`
}

// EpisodicStats counts the week's entries and their tags.
type EpisodicStats struct {
	Entries     int                     `json:"entries"`
	Tagged      int                     `json:"tagged"`
	ByDimension map[model.Dimension]int `json:"by_dimension"`
	ByPolarity  map[model.Polarity]int  `json:"by_polarity"`
}

// Theme is one (dimension, key) group of tags.
type Theme struct {
	Dimension model.Dimension `json:"dimension"`
	Key       string          `json:"key"`
	Count     int             `json:"count"`
	Weight    float64         `json:"weight"`
}

// ContrastPoint is a channel and its weekly average level.
type ContrastPoint struct {
	Dimension model.Dimension `json:"dimension"`
	Level     float64         `json:"level"`
}

// Contrast holds the highest and lowest channels.
type Contrast struct {
	Highest *ContrastPoint `json:"highest"`
	Lowest  *ContrastPoint `json:"lowest"`
}

// WorkSalience surfaces workload pressure.
type WorkSalience struct {
	Fragmentation float64 `json:"fragmentation"`
	Overload      bool    `json:"overload"`
	OpenCount     int     `json:"open_count"`
	OverdueCount  int     `json:"overdue_count"`
}

// Salience groups what stood out this week.
type Salience struct {
	Work    *WorkSalience `json:"work"`
	Moments []Moment      `json:"moments"`
}

// BodyNote summarizes the body channel.
type BodyNote struct {
	AvgLevel   *float64 `json:"avg_level"`
	Slope      string   `json:"slope"`
	Discomfort bool     `json:"discomfort"`
}

// Aggregate builds the record. It is pure; now stamps GeneratedAt.
func Aggregate(in Inputs, now time.Time) Record {
	rec := Record{
		PersonID:      in.PersonID,
		WeekStart:     in.Window.Start,
		EpisodicStats: episodicStats(in.Memories, in.Tags),
		ThemeStats:    themes(in.Tags),
		ContrastStats: contrast(in.Rollup),
		DeltaStats:    deltas(in.State),
		GeneratedAt:   now,
	}

	if in.Pressure != nil {
		rec.Salience.Work = &WorkSalience{
			Fragmentation: model.Clamp(in.Pressure.FragmentationScore),
			Overload:      in.Pressure.OverloadFlag,
			OpenCount:     in.Pressure.OpenCount,
			OverdueCount:  in.Pressure.OverdueCount,
		}
	}
	rec.Salience.Moments = ScanMoments(in.Memories)

	rec.BodyNote.Slope = model.LabelUnknown
	if body, ok := in.Rollup[model.Body]; ok {
		rec.BodyNote.AvgLevel = body.AvgLevel
		if body.Slope != "" {
			rec.BodyNote.Slope = body.Slope
		}
	}
	for _, m := range rec.Salience.Moments {
		if m.Category == BodyDiscomfort {
			rec.BodyNote.Discomfort = true
		}
	}

	rec.Confidence = confidence(in.Rollup, in.Pressure, len(in.Memories))
	return rec
}

func episodicStats(memories []model.Memory, tags []model.EpisodicTag) EpisodicStats {
	stats := EpisodicStats{
		Entries:     len(memories),
		ByDimension: map[model.Dimension]int{},
		ByPolarity:  map[model.Polarity]int{},
	}
	tagged := map[int64]bool{}
	for _, tag := range tags {
		if !tag.Dimension.Valid() {
			continue
		}
		tagged[tag.MemoryID] = true
		stats.ByDimension[tag.Dimension]++
		if _, ok := tag.Polarity.Sign(); ok {
			stats.ByPolarity[tag.Polarity]++
		}
	}
	stats.Tagged = len(tagged)
	return stats
}

// themes groups tags by (dimension, key) and keeps the heaviest groups.
func themes(tags []model.EpisodicTag) []Theme {
	type groupKey struct {
		dim model.Dimension
		key string
	}
	counts := map[groupKey]int{}
	total := 0
	for _, tag := range tags {
		if !tag.Dimension.Valid() {
			continue
		}
		key := tag.Key
		if key == "" {
			key = string(tag.Polarity)
		}
		counts[groupKey{tag.Dimension, key}]++
		total++
	}

	out := make([]Theme, 0, len(counts))
	for k, n := range counts {
		out = append(out, Theme{
			Dimension: k.dim,
			Key:       k.key,
			Count:     n,
			Weight:    float64(n) / float64(total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Dimension != out[j].Dimension {
			return out[i].Dimension < out[j].Dimension
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > maxThemes {
		out = out[:maxThemes]
	}
	return out
}

// contrast picks the channels with the highest and lowest average level.
// Ties keep the earlier channel.
func contrast(rollup map[model.Dimension]model.RollupPayload) Contrast {
	var c Contrast
	for _, ch := range model.Channels {
		p, ok := rollup[ch]
		if !ok || p.AvgLevel == nil {
			continue
		}
		level := *p.AvgLevel
		if c.Highest == nil || level > c.Highest.Level {
			c.Highest = &ContrastPoint{Dimension: ch, Level: level}
		}
		if c.Lowest == nil || level < c.Lowest.Level {
			c.Lowest = &ContrastPoint{Dimension: ch, Level: level}
		}
	}
	return c
}

func deltas(state *model.State) map[model.Dimension]model.Direction {
	out := map[model.Dimension]model.Direction{}
	if state == nil {
		return out
	}
	for _, d := range model.Dimensions {
		out[d] = state.Get(d).Direction
	}
	return out
}

func confidence(rollup map[model.Dimension]model.RollupPayload, pressure *model.Pressure, entries int) float64 {
	var sum float64
	n := 0
	for _, ch := range model.Channels {
		if p, ok := rollup[ch]; ok && p.AvgLevel != nil {
			sum += model.Clamp(p.Confidence)
			n++
		}
	}
	rollupConf := 0.0
	if n > 0 {
		rollupConf = sum / float64(n)
	}
	pressureConf := 0.0
	if pressure != nil {
		pressureConf = model.Clamp(pressure.Confidence)
	}
	entryTerm := math.Min(1, float64(entries)/entriesSaturateAt)

	conf := model.Clamp(rollupConfWeight*rollupConf + pressureConfWeight*pressureConf + entryWeight*entryTerm)
	if entries < sparseEntries {
		conf *= sparseDiscount
	}
	return conf
}
