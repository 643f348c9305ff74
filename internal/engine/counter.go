package engine

import (
	"errors"
	"math"
	"time"
)

const (
	// DefaultGoal is the shared target every bar is measured against.
	DefaultGoal = 600
	// TotalID identifies the combined counter.
	TotalID = "school"
)

var ErrUnknownCounter = errors.New("unknown counter")

// Counter is a named, non-negative score.
type Counter struct {
	ID     string
	Name   string
	Points int
}

// State is the persisted board: counters in display order plus the last save time.
// A zero Updated means the board has never been saved.
type State struct {
	Items   []Counter
	Updated time.Time
}

// DefaultCounters returns the four grades followed by the total, all at zero.
func DefaultCounters() []Counter {
	return []Counter{
		{ID: "gradeA", Name: "Fifth Grade"},
		{ID: "gradeB", Name: "Sixth Grade"},
		{ID: "gradeC", Name: "Seventh Grade"},
		{ID: "gradeD", Name: "Eighth Grade"},
		{ID: TotalID, Name: "Whole School"},
	}
}

func DefaultState() State { return State{Items: DefaultCounters()} }

// Clone returns a deep copy so callers cannot alias session storage.
func (s State) Clone() State {
	items := make([]Counter, len(s.Items))
	copy(items, s.Items)
	return State{Items: items, Updated: s.Updated}
}

// Progress is the display projection of one counter against the goal.
type Progress struct {
	Raw     float64 // points/goal*100, unclamped
	Display float64 // Raw clamped to [0,100]
	Over    bool
	Label   int // Raw rounded; may exceed 100
}

// ProgressOf projects points onto the goal.
func ProgressOf(points, goal int) Progress {
	if goal <= 0 {
		goal = DefaultGoal
	}
	raw := float64(points) / float64(goal) * 100
	p := Progress{Raw: raw, Display: raw, Label: int(math.Round(raw))}
	if raw >= 100 {
		p.Over = true
		p.Display = 100
	}
	if p.Display < 0 {
		p.Display = 0
	}
	return p
}

// Fraction returns Display as a 0..1 value for bar widgets.
func (p Progress) Fraction() float64 { return p.Display / 100 }
