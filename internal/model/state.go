package model

import "time"

// DimensionState is the persisted trend of one dimension.
type DimensionState struct {
	Direction     Direction `json:"direction"`
	Magnitude     float64   `json:"magnitude"`
	Volatility    float64   `json:"volatility"`
	Confidence    float64   `json:"confidence"`
	Window        Window    `json:"window"`
	Lifecycle     Lifecycle `json:"lifecycle"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// UnknownDimensionState is the payload for a dimension with no evidence.
func UnknownDimensionState() DimensionState {
	return DimensionState{
		Direction: Flat,
		Lifecycle: Emerging,
	}
}

// Normalize clamps numeric fields and replaces invalid enumerations.
func (s DimensionState) Normalize() DimensionState {
	s.Magnitude = Clamp(s.Magnitude)
	s.Volatility = Clamp(s.Volatility)
	s.Confidence = Clamp(s.Confidence)
	if !s.Direction.Valid() {
		s.Direction = Flat
	}
	if !s.Lifecycle.Valid() {
		s.Lifecycle = Emerging
	}
	return s
}

// State is a person's longitudinal state: one entry per dimension.
type State struct {
	PersonID   string                       `json:"person_id"`
	Dimensions map[Dimension]DimensionState `json:"dimensions"`
	UpdatedAt  time.Time                    `json:"updated_at"`
}

// NewState returns a state with every dimension set to the unknown payload.
func NewState(personID string) *State {
	s := &State{
		PersonID:   personID,
		Dimensions: make(map[Dimension]DimensionState, len(Dimensions)),
	}
	for _, d := range Dimensions {
		s.Dimensions[d] = UnknownDimensionState()
	}
	return s
}

// Get returns the entry for d, or the unknown payload.
func (s *State) Get(d Dimension) DimensionState {
	if s == nil {
		return UnknownDimensionState()
	}
	if ds, ok := s.Dimensions[d]; ok {
		return ds
	}
	return UnknownDimensionState()
}
