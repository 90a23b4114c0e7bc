package model

import "time"

// Week is the length of one analysis window.
const Week = 7 * 24 * time.Hour

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Days returns the window length in whole days, at least 1.
func (w Window) Days() int {
	d := int(w.End.Sub(w.Start) / (24 * time.Hour))
	if d < 1 {
		return 1
	}
	return d
}

// IsZero reports whether the window was never set.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// DayStart truncates t to UTC midnight.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CurrentWindow returns [now-7d, now).
func CurrentWindow(now time.Time) Window {
	return Window{Start: now.Add(-Week), End: now}
}

// PreviousWindow returns [now-14d, now-7d).
func PreviousWindow(now time.Time) Window {
	return Window{Start: now.Add(-2 * Week), End: now.Add(-Week)}
}

// WeekOf returns the 7-day window starting at weekStart.
func WeekOf(weekStart time.Time) Window {
	return Window{Start: weekStart, End: weekStart.Add(Week)}
}
