package engine

import "time"

type change struct {
	at    time.Time
	delta int
}

// History keeps a trailing window of recent deltas per counter. It is never persisted.
type History struct {
	window  time.Duration
	changes map[string][]change
}

func NewHistory(window time.Duration) *History {
	return &History{window: window, changes: map[string][]change{}}
}

// Record appends a delta and drops entries older than the window.
func (h *History) Record(id string, delta int, now time.Time) {
	h.changes[id] = h.prune(append(h.changes[id], change{at: now, delta: delta}), now)
}

// RecentGain sums the positive deltas for id inside the window ending at now.
func (h *History) RecentGain(id string, now time.Time) int {
	sum := 0
	for _, c := range h.changes[id] {
		if now.Sub(c.at) <= h.window && c.delta > 0 {
			sum += c.delta
		}
	}
	return sum
}

func (h *History) Len(id string) int { return len(h.changes[id]) }

func (h *History) Clear() { h.changes = map[string][]change{} }

func (h *History) prune(in []change, now time.Time) []change {
	out := in[:0]
	for _, c := range in {
		if now.Sub(c.at) <= h.window {
			out = append(out, c)
		}
	}
	return out
}
