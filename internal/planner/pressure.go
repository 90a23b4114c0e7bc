// Package planner summarizes a snapshot of open work items into weekly
// workload pressure. Only status, due date, priority and horizon are read;
// item labels never affect the numbers.
package planner

import (
	"math"

	"github.com/lazypower/tidemark/internal/model"
)

// openStatuses are the statuses that count as open work.
var openStatuses = map[string]bool{
	"pending":     true,
	"open":        true,
	"in_progress": true,
	"overdue":     true,
}

// IsOpen reports whether an item status counts as open.
func IsOpen(status string) bool {
	return openStatuses[status]
}

// Overload thresholds.
const (
	overdueLimit       = 3
	carryoverLimit     = 0.4
	fragmentationLimit = 0.6
	urgentPriority     = 3
)

// Compute summarizes items for the given window.
func Compute(items []model.PlannedItem, window model.Window) model.Pressure {
	p := model.Pressure{HorizonMix: map[string]int{}}

	var (
		carryover, urgent int
		minPrio, maxPrio  = math.MaxInt, math.MinInt
	)
	for _, it := range items {
		if !IsOpen(it.Status) {
			continue
		}
		p.OpenCount++
		if it.DueAt != nil {
			if it.DueAt.Before(window.End) {
				p.OverdueCount++
				carryover++
			}
			if window.Contains(*it.DueAt) {
				p.DueThisWeek++
			}
		}
		if it.Priority >= urgentPriority {
			urgent++
		}
		if it.Priority < minPrio {
			minPrio = it.Priority
		}
		if it.Priority > maxPrio {
			maxPrio = it.Priority
		}
		if it.Horizon != "" {
			p.HorizonMix[it.Horizon]++
		}
	}

	denom := float64(max(1, p.OpenCount))
	p.CarryoverRate = model.Clamp(float64(carryover) / denom)
	p.UrgencyRatio = model.Clamp(float64(urgent) / denom)
	p.DeadlineDensity = float64(p.DueThisWeek) / float64(window.Days())

	spread := 0
	if p.OpenCount > 0 {
		spread = maxPrio - minPrio
	}
	p.FragmentationScore = Fragmentation(p.OpenCount, len(p.HorizonMix), spread, maxPrio)
	p.OverloadFlag = Overloaded(p.OverdueCount, p.CarryoverRate, p.FragmentationScore)
	p.Confidence = math.Min(1, float64(len(items))/20)
	return p
}

// Fragmentation scores how scattered the open work is.
func Fragmentation(openCount, distinctHorizons, prioritySpread, maxPriority int) float64 {
	score := 0.5*math.Min(1, float64(openCount)/20) +
		0.25*(float64(distinctHorizons)/4) +
		0.25*(float64(prioritySpread)/float64(max(1, maxPriority)))
	return model.Clamp(score)
}

// Overloaded reports whether at least two of the three overload conditions
// hold.
func Overloaded(overdueCount int, carryoverRate, fragmentation float64) bool {
	hits := 0
	if overdueCount > overdueLimit {
		hits++
	}
	if carryoverRate > carryoverLimit {
		hits++
	}
	if fragmentation > fragmentationLimit {
		hits++
	}
	return hits >= 2
}
