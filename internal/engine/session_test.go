package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock { return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)} }

func stateWith(points map[string]int) State {
	st := DefaultState()
	for i := range st.Items {
		st.Items[i].Points = points[st.Items[i].ID]
	}
	return st
}

func gradeSum(items []Counter) int {
	sum := 0
	for _, c := range items {
		if c.ID != TotalID {
			sum += c.Points
		}
	}
	return sum
}

func TestPointsNeverNegative(t *testing.T) {
	s := NewSession(DefaultState())
	rng := NewStream("never-negative")
	ids := []string{"gradeA", "gradeB", "gradeC", "gradeD", TotalID}
	for i := 0; i < 2000; i++ {
		delta := rng.Intn(7) - 4
		_, err := s.Increment(ids[rng.Intn(len(ids))], delta)
		require.NoError(t, err)
		for _, c := range s.Counters() {
			require.GreaterOrEqual(t, c.Points, 0, "counter %s went negative", c.ID)
		}
	}
}

func TestTotalTracksGradeSum(t *testing.T) {
	s := NewSession(DefaultState())
	steps := []struct {
		id    string
		delta int
	}{
		{"gradeA", 3}, {"gradeB", 10}, {"gradeC", 1}, {"gradeA", -1}, {"gradeD", 7}, {"gradeC", -5},
	}
	for _, st := range steps {
		_, err := s.Increment(st.id, st.delta)
		require.NoError(t, err)
		total, ok := s.Total()
		require.True(t, ok)
		assert.Equal(t, gradeSum(s.Counters()), total.Points)
	}
}

func TestManualTotalEditSurvivesUntilGradeChange(t *testing.T) {
	s := NewSession(stateWith(map[string]int{"gradeA": 4, TotalID: 4}))

	_, err := s.Increment(TotalID, 20)
	require.NoError(t, err)
	total, _ := s.Total()
	assert.Equal(t, 24, total.Points, "manual edit of the total must not be re-synced")

	_, err = s.Increment(TotalID, -1)
	require.NoError(t, err)
	total, _ = s.Total()
	assert.Equal(t, 23, total.Points)

	_, err = s.Increment("gradeB", 1)
	require.NoError(t, err)
	total, _ = s.Total()
	assert.Equal(t, 5, total.Points, "grade change re-syncs the total")
}

func TestOvertakeNamesPassedCounter(t *testing.T) {
	s := NewSession(stateWith(map[string]int{"gradeA": 5, "gradeB": 6}))
	s.SyncTotal()

	ev, err := s.Increment("gradeA", 2)
	require.NoError(t, err)
	assert.Equal(t, EventOvertake, ev.Kind)
	require.Len(t, ev.Passed, 1)
	assert.Equal(t, "gradeB", ev.Passed[0].ID)
	assert.Equal(t, 7, ev.Counter.Points)

	total, _ := s.Total()
	assert.Equal(t, 13, total.Points)
}

func TestOvertakeListsEveryPassedCounter(t *testing.T) {
	s := NewSession(stateWith(map[string]int{"gradeA": 1, "gradeB": 3, "gradeC": 2}))
	s.SyncTotal()

	ev, err := s.Increment("gradeA", 5)
	require.NoError(t, err)
	require.Equal(t, EventOvertake, ev.Kind)
	ids := []string{}
	for _, c := range ev.Passed {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"gradeB", "gradeC"}, ids)
}

func TestOvertakeTakesPriorityOverBurst(t *testing.T) {
	s := NewSession(stateWith(map[string]int{"gradeB": 5}))
	s.SyncTotal()
	ev, err := s.Increment("gradeA", 12)
	require.NoError(t, err)
	assert.Equal(t, EventOvertake, ev.Kind)
	assert.Zero(t, ev.Gain)
}

func TestRapidGainWithinWindow(t *testing.T) {
	clock := newClock()
	s := NewSession(stateWith(map[string]int{"gradeB": 100}), WithClock(clock.Now))
	s.SyncTotal()

	ev, err := s.Increment("gradeA", 3)
	require.NoError(t, err)
	assert.Equal(t, EventNone, ev.Kind)

	clock.Advance(2 * time.Second)
	ev, err = s.Increment("gradeA", 4)
	require.NoError(t, err)
	assert.Equal(t, EventNone, ev.Kind)

	clock.Advance(2 * time.Second)
	ev, err = s.Increment("gradeA", 5)
	require.NoError(t, err)
	assert.Equal(t, EventRapidGain, ev.Kind)
	assert.Equal(t, 12, ev.Gain)

	clock.Advance(11 * time.Second)
	ev, err = s.Increment("gradeA", 1)
	require.NoError(t, err)
	assert.Equal(t, EventNone, ev.Kind, "expired deltas must not re-trigger")
	assert.Equal(t, 1, s.History().Len("gradeA"))
}

func TestRapidGainIgnoresDecrements(t *testing.T) {
	clock := newClock()
	s := NewSession(stateWith(map[string]int{"gradeB": 100}), WithClock(clock.Now), WithBurstThreshold(5))
	s.SyncTotal()

	_, _ = s.Increment("gradeA", 4)
	ev, err := s.Increment("gradeA", -3)
	require.NoError(t, err)
	assert.Equal(t, EventNone, ev.Kind, "negative delta never reports a burst")

	ev, err = s.Increment("gradeA", 1)
	require.NoError(t, err)
	assert.Equal(t, EventRapidGain, ev.Kind)
	assert.Equal(t, 5, ev.Gain)
}

func TestDecrementAtZeroStaysZero(t *testing.T) {
	s := NewSession(DefaultState())
	ev, err := s.Increment("gradeC", -1)
	require.NoError(t, err)
	assert.Equal(t, EventNone, ev.Kind)
	c, _ := s.Counter("gradeC")
	assert.Equal(t, 0, c.Points)
}

func TestUnknownCounter(t *testing.T) {
	s := NewSession(DefaultState())
	_, err := s.Increment("nope", 1)
	assert.ErrorIs(t, err, ErrUnknownCounter)
}

func TestRanksBreakTiesByListOrder(t *testing.T) {
	items := []Counter{{ID: "a", Points: 2}, {ID: "b", Points: 5}, {ID: "c", Points: 2}}
	assert.Equal(t, map[string]int{"b": 1, "a": 2, "c": 3}, Ranks(items))
}

func TestSummary(t *testing.T) {
	s := NewSession(stateWith(map[string]int{"gradeA": 10, "gradeB": 40, "gradeC": 30, "gradeD": 20}))
	s.SyncTotal()

	sum := s.Summary(3)
	require.Len(t, sum.Leaders, 3)
	assert.Equal(t, TotalID, sum.Leaders[0].Counter.ID)
	assert.Equal(t, "gradeB", sum.Leaders[1].Counter.ID)
	assert.Equal(t, "gradeC", sum.Leaders[2].Counter.ID)
	assert.Equal(t, 17, sum.Leaders[0].Percent)
	assert.Equal(t, 500, sum.Remaining)
	assert.Equal(t, 17, sum.TotalPercent)

	s.Replace(stateWith(map[string]int{TotalID: 900}))
	assert.Equal(t, 0, s.Summary(3).Remaining)
}

func TestResetClearsPointsAndHistory(t *testing.T) {
	s := NewSession(DefaultState())
	_, _ = s.Increment("gradeA", 9)
	s.Reset()
	for _, c := range s.Counters() {
		assert.Zero(t, c.Points, c.ID)
	}
	assert.Zero(t, s.History().Len("gradeA"))
}

func TestStateReturnsCopy(t *testing.T) {
	s := NewSession(DefaultState())
	st := s.State()
	st.Items[0].Points = 99
	c, _ := s.Counter(st.Items[0].ID)
	assert.Zero(t, c.Points)
}
