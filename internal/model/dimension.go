// Package model holds the types shared by the rollup, pressure, state and
// signals components and by the store that persists them.
package model

import "math"

// Dimension is one of the tracked life areas.
type Dimension string

const (
	Body    Dimension = "body"
	Mind    Dimension = "mind"
	Emotion Dimension = "emotion"
	Energy  Dimension = "energy"
	Work    Dimension = "work"
)

// Dimensions lists every allowed dimension in canonical order.
var Dimensions = []Dimension{Body, Mind, Emotion, Energy, Work}

// Channels are the rollup channels: every dimension except work, which is
// fed by the planner instead.
var Channels = []Dimension{Body, Mind, Emotion, Energy}

// Valid reports whether d is one of the allowed dimensions.
func (d Dimension) Valid() bool {
	switch d {
	case Body, Mind, Emotion, Energy, Work:
		return true
	}
	return false
}

// IsChannel reports whether d has a rhythm rollup channel.
func (d Dimension) IsChannel() bool {
	return d.Valid() && d != Work
}

// Direction is the trend of a dimension between two windows.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
	Flat Direction = "flat"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Up || d == Down || d == Flat
}

// Lifecycle describes how settled a dimension's trend is.
type Lifecycle string

const (
	Emerging    Lifecycle = "emerging"
	Stabilizing Lifecycle = "stabilizing"
	Decaying    Lifecycle = "decaying"
)

// Valid reports whether l is a known lifecycle.
func (l Lifecycle) Valid() bool {
	return l == Emerging || l == Stabilizing || l == Decaying
}

// Clamp limits v to [0,1]. NaN clamps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ValidUnit reports whether v is a finite number in [0,1].
func ValidUnit(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
