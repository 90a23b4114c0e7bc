package longitudinal

import "github.com/lazypower/tidemark/internal/model"

const (
	emergingBelow   = 0.4
	stabilizingFrom = 0.6
)

// Facts are the values the lifecycle rules look at.
type Facts struct {
	Confidence     float64
	PrevConfidence float64
	Direction      model.Direction
	PrevDirection  model.Direction
	HasPrevious    bool
}

func (f Facts) sameDirection() bool {
	return f.HasPrevious && f.PrevDirection == f.Direction
}

// LifecycleRule maps a predicate to an outcome.
type LifecycleRule struct {
	Name    string
	When    func(Facts) bool
	Outcome model.Lifecycle
}

// LifecycleRules are evaluated in order; the first match wins. The last
// rule always matches.
var LifecycleRules = []LifecycleRule{
	{
		Name:    "low-confidence",
		When:    func(f Facts) bool { return f.Confidence < emergingBelow },
		Outcome: model.Emerging,
	},
	{
		Name: "direction-flipped",
		When: func(f Facts) bool {
			return f.HasPrevious && f.PrevDirection != f.Direction && f.Confidence <= f.PrevConfidence
		},
		Outcome: model.Decaying,
	},
	{
		Name:    "confirmed",
		When:    func(f Facts) bool { return f.Confidence >= stabilizingFrom && f.sameDirection() },
		Outcome: model.Stabilizing,
	},
	{
		Name:    "losing-confidence",
		When:    func(f Facts) bool { return f.Confidence < f.PrevConfidence },
		Outcome: model.Decaying,
	},
	{
		Name:    "confident",
		When:    func(f Facts) bool { return f.Confidence >= stabilizingFrom },
		Outcome: model.Stabilizing,
	},
	{
		Name:    "default",
		When:    func(Facts) bool { return true },
		Outcome: model.Emerging,
	},
}

// Classify returns the lifecycle of the first matching rule.
func Classify(f Facts) model.Lifecycle {
	l, _ := classify(f)
	return l
}

func classify(f Facts) (model.Lifecycle, string) {
	for _, r := range LifecycleRules {
		if r.When(f) {
			return r.Outcome, r.Name
		}
	}
	return model.Emerging, "default"
}
