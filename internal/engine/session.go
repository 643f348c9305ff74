package engine

import (
	"fmt"
	"time"
)

const (
	DefaultBurstWindow    = 10 * time.Second
	DefaultBurstThreshold = 10
)

// SessionOption functional options to pass runtime settings.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	goal      int
	window    time.Duration
	threshold int
	totalID   string
	now       func() time.Time
}

func WithGoal(g int) SessionOption                  { return func(c *sessionConfig) { c.goal = g } }
func WithBurstWindow(d time.Duration) SessionOption { return func(c *sessionConfig) { c.window = d } }
func WithBurstThreshold(n int) SessionOption        { return func(c *sessionConfig) { c.threshold = n } }
func WithTotalID(id string) SessionOption           { return func(c *sessionConfig) { c.totalID = id } }
func WithClock(now func() time.Time) SessionOption  { return func(c *sessionConfig) { c.now = now } }

// Session owns the board state and its change history. Not safe for concurrent use;
// the UI mutates it only from its update loop.
type Session struct {
	cfg     sessionConfig
	state   State
	history *History
}

func NewSession(st State, opts ...SessionOption) *Session {
	cfg := sessionConfig{
		goal:      DefaultGoal,
		window:    DefaultBurstWindow,
		threshold: DefaultBurstThreshold,
		totalID:   TotalID,
		now:       time.Now,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Session{cfg: cfg, state: st.Clone(), history: NewHistory(cfg.window)}
}

func (s *Session) Goal() int         { return s.cfg.goal }
func (s *Session) TotalID() string   { return s.cfg.totalID }
func (s *Session) Now() time.Time    { return s.cfg.now() }
func (s *Session) History() *History { return s.history }

// State returns a copy of the current board.
func (s *Session) State() State { return s.state.Clone() }

// StatePtr exposes the live state for persistence stamping.
func (s *Session) StatePtr() *State { return &s.state }

func (s *Session) Counters() []Counter { return s.State().Items }

func (s *Session) Counter(id string) (Counter, bool) {
	if i := s.index(id); i >= 0 {
		return s.state.Items[i], true
	}
	return Counter{}, false
}

func (s *Session) Total() (Counter, bool) { return s.Counter(s.cfg.totalID) }

// Increment applies delta to a counter (clamped at zero), syncs the total and
// reports the one event the change produced, if any.
func (s *Session) Increment(id string, delta int) (Event, error) {
	i := s.index(id)
	if i < 0 {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownCounter, id)
	}
	prev := Ranks(s.state.Items)
	now := s.cfg.now()

	c := &s.state.Items[i]
	c.Points += delta
	if c.Points < 0 {
		c.Points = 0
	}
	s.history.Record(id, delta, now)
	if id != s.cfg.totalID {
		s.SyncTotal()
	}
	return s.detect(id, prev, delta, now), nil
}

// SyncTotal sets the total counter to the sum of every other counter.
func (s *Session) SyncTotal() {
	ti := s.index(s.cfg.totalID)
	if ti < 0 {
		return
	}
	sum := 0
	for i, c := range s.state.Items {
		if i != ti {
			sum += c.Points
		}
	}
	s.state.Items[ti].Points = sum
}

// Reset zeroes every counter and forgets recent changes.
func (s *Session) Reset() {
	for i := range s.state.Items {
		s.state.Items[i].Points = 0
	}
	s.history.Clear()
}

// Replace swaps in a freshly loaded state; history does not survive a reload.
func (s *Session) Replace(st State) {
	s.state = st.Clone()
	s.history.Clear()
}

// Summary is the leaderboard projection.
type Summary struct {
	Goal         int
	Leaders      []Standing
	Total        Counter
	Remaining    int
	TotalPercent int
}

type Standing struct {
	Rank    int
	Counter Counter
	Percent int
}

// Summary returns the top n counters and the distance of the total to the goal.
func (s *Session) Summary(n int) Summary {
	sorted := Standings(s.state.Items)
	if n > len(sorted) {
		n = len(sorted)
	}
	out := Summary{Goal: s.cfg.goal}
	for i, c := range sorted[:n] {
		out.Leaders = append(out.Leaders, Standing{Rank: i + 1, Counter: c, Percent: ProgressOf(c.Points, s.cfg.goal).Label})
	}
	if t, ok := s.Total(); ok {
		out.Total = t
		out.TotalPercent = ProgressOf(t.Points, s.cfg.goal).Label
	}
	out.Remaining = s.cfg.goal - out.Total.Points
	if out.Remaining < 0 {
		out.Remaining = 0
	}
	return out
}

func (s *Session) detect(id string, prev map[string]int, delta int, now time.Time) Event {
	changed := s.state.Items[s.index(id)]
	if passed := Overtaken(s.state.Items, id, prev, Ranks(s.state.Items)); len(passed) > 0 {
		return Event{Kind: EventOvertake, Counter: changed, Passed: passed}
	}
	if delta > 0 {
		if gain := s.history.RecentGain(id, now); gain >= s.cfg.threshold {
			return Event{Kind: EventRapidGain, Counter: changed, Gain: gain}
		}
	}
	return Event{Counter: changed}
}

func (s *Session) index(id string) int {
	for i, c := range s.state.Items {
		if c.ID == id {
			return i
		}
	}
	return -1
}
