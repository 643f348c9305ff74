package engine

import "sort"

// EventKind classifies what a mutation triggered.
type EventKind string

const (
	EventNone      EventKind = ""
	EventOvertake  EventKind = "overtake"
	EventRapidGain EventKind = "rapid_gain"
)

// Event is the single notable outcome of a mutation, if any.
type Event struct {
	Kind    EventKind
	Counter Counter
	Passed  []Counter // overtaken counters, list order
	Gain    int       // positive points inside the burst window
}

// Ranks sorts descending by points and assigns 1-based ranks. Ties keep list order.
func Ranks(items []Counter) map[string]int {
	sorted := Standings(items)
	ranks := make(map[string]int, len(sorted))
	for i, c := range sorted {
		ranks[c.ID] = i + 1
	}
	return ranks
}

// Standings returns a copy of items ordered by points, highest first.
func Standings(items []Counter) []Counter {
	sorted := make([]Counter, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Points > sorted[j].Points })
	return sorted
}

// Overtaken lists counters that were ranked ahead of changed before and behind it after.
func Overtaken(items []Counter, changedID string, prev, next map[string]int) []Counter {
	var passed []Counter
	for _, c := range items {
		if c.ID == changedID {
			continue
		}
		if rankOr(prev, c.ID) < rankOr(prev, changedID) && rankOr(next, c.ID) > rankOr(next, changedID) {
			passed = append(passed, c)
		}
	}
	return passed
}

// missing ids sort last
func rankOr(ranks map[string]int, id string) int {
	if r, ok := ranks[id]; ok {
		return r
	}
	return 999
}
