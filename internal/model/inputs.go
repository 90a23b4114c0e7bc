package model

import "time"

// SlotsPerDay is the number of fifteen-minute slots in a daily energy curve.
const SlotsPerDay = 96

// DailyEnergyCurve is one person's energy levels for one day.
type DailyEnergyCurve struct {
	PersonID   string
	Day        time.Time
	Levels     []float64
	Confidence *float64
}

// SlotTime returns the start time of slot i.
func (c DailyEnergyCurve) SlotTime(i int) time.Time {
	return c.Day.Add(time.Duration(i) * 15 * time.Minute)
}

// RhythmEvent is a timestamped state snapshot. Any field may be missing.
type RhythmEvent struct {
	ID          int64
	PersonID    string
	OccurredAt  time.Time
	BodyEnergy  *float64
	MindFocus   *float64
	StressLevel *float64
	Confidence  *float64
}

// Slope labels.
const (
	SlopeUp      = "up"
	SlopeDown    = "down"
	SlopeStable  = "stable"
	LabelUnknown = "unknown"
)

// Volatility labels.
const (
	VolatilityLow    = "low"
	VolatilityMedium = "medium"
	VolatilityHigh   = "high"
)

// Recovery latency labels.
const (
	RecoveryShort  = "short"
	RecoveryMedium = "medium"
	RecoveryLong   = "long"
)

// RollupPayload is the weekly summary of one rhythm channel.
type RollupPayload struct {
	AvgLevel        *float64 `json:"avg_level"`
	Slope           string   `json:"slope"`
	Volatility      string   `json:"volatility"`
	VolatilityValue *float64 `json:"volatility_value"`
	PeakWindows     []string `json:"peak_windows"`
	DipWindows      []string `json:"dip_windows"`
	RecoveryLatency string   `json:"recovery_latency"`
	Confidence      float64  `json:"confidence"`
	// Count is the number of observations behind the channel: curve days
	// with at least one usable slot plus contributing events.
	Count           int      `json:"count"`
	// Samples is the number of individual levels in the series.
	Samples         int      `json:"samples"`
}

// UnknownRollup is the payload for a channel with no usable data.
func UnknownRollup() RollupPayload {
	return RollupPayload{
		Slope:           LabelUnknown,
		Volatility:      LabelUnknown,
		PeakWindows:     []string{},
		DipWindows:      []string{},
		RecoveryLatency: LabelUnknown,
	}
}

// WeeklyRollup is the persisted rollup for one person and week.
type WeeklyRollup struct {
	PersonID  string
	WeekStart time.Time
	Channels  map[Dimension]RollupPayload
	UpdatedAt time.Time
}

// PlannedItem is one work item from the planner.
type PlannedItem struct {
	ID       string
	PersonID string
	Label    string
	Status   string
	DueAt    *time.Time
	Priority int
	Horizon  string
}

// Pressure is the weekly workload summary.
type Pressure struct {
	OpenCount          int            `json:"open_count"`
	OverdueCount       int            `json:"overdue_count"`
	DueThisWeek        int            `json:"due_this_week"`
	CarryoverRate      float64        `json:"carryover_rate"`
	UrgencyRatio       float64        `json:"urgency_ratio"`
	DeadlineDensity    float64        `json:"deadline_density"`
	FragmentationScore float64        `json:"fragmentation_score"`
	HorizonMix         map[string]int `json:"horizon_mix"`
	OverloadFlag       bool           `json:"overload_flag"`
	Confidence         float64        `json:"confidence"`
}

// WeeklyPressure is the persisted pressure for one person and week.
type WeeklyPressure struct {
	PersonID  string
	WeekStart time.Time
	Pressure
	UpdatedAt time.Time
}

// Polarity is the direction asserted by an episodic tag.
type Polarity string

const (
	PolarityUp      Polarity = "up"
	PolarityDown    Polarity = "down"
	PolarityNeutral Polarity = "neutral"
)

// Sign maps a polarity to +1, -1 or 0. ok is false for unknown polarities.
func (p Polarity) Sign() (float64, bool) {
	switch p {
	case PolarityUp:
		return 1, true
	case PolarityDown:
		return -1, true
	case PolarityNeutral:
		return 0, true
	}
	return 0, false
}

// Intensity weights an episodic tag.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Weight maps an intensity to its multiplier. ok is false for unknown values.
func (i Intensity) Weight() (float64, bool) {
	switch i {
	case IntensityLow:
		return 0.8, true
	case IntensityMedium:
		return 1.0, true
	case IntensityHigh:
		return 1.2, true
	}
	return 0, false
}

// EpisodicTag is explicit evidence attached to a memory record.
type EpisodicTag struct {
	ID         int64
	MemoryID   int64
	Dimension  Dimension
	Key        string
	Polarity   Polarity
	Intensity  Intensity
	OccurredAt time.Time
}

// Memory is a raw memory record: a journal entry, note or episode.
type Memory struct {
	ID         int64
	PersonID   string
	Kind       string
	Content    string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// Person is a member of the sweep population.
type Person struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
}
