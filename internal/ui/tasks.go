package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type taskID string

const (
	taskAutosave    taskID = "autosave"
	taskReload      taskID = "reload"
	taskSaveInfo    taskID = "save_info"
	taskBounce      taskID = "bounce"
	taskEmbed       taskID = "embed"
	taskEmbedEnd    taskID = "embed_end"
	taskBanner      taskID = "banner"
	taskPopupShow   taskID = "popup_show"
	taskPopupClose  taskID = "popup_close"
	taskBarsAnimate taskID = "bars_animate"
)

// taskMsg is delivered when a scheduled task comes due.
type taskMsg struct {
	id  taskID
	gen int
	at  time.Time
}

// scheduler hands out tea.Tick commands tagged with a per-task generation.
// Rescheduling or stopping a task bumps its generation, so ticks already in
// flight are recognised as stale and dropped.
type scheduler struct {
	gen      map[taskID]int
	interval map[taskID]time.Duration
}

func newScheduler() *scheduler {
	return &scheduler{gen: map[taskID]int{}, interval: map[taskID]time.Duration{}}
}

// every starts or restarts a periodic task. A non-positive interval leaves it off.
func (s *scheduler) every(id taskID, d time.Duration) tea.Cmd {
	if d <= 0 {
		s.stop(id)
		return nil
	}
	s.interval[id] = d
	return s.arm(id, d)
}

// after schedules a one-shot task, replacing any pending run of the same task.
func (s *scheduler) after(id taskID, d time.Duration) tea.Cmd {
	delete(s.interval, id)
	return s.arm(id, d)
}

// fire reports whether msg is current and re-arms periodic tasks.
func (s *scheduler) fire(msg taskMsg) (bool, tea.Cmd) {
	if msg.gen != s.gen[msg.id] {
		return false, nil
	}
	if d, ok := s.interval[msg.id]; ok {
		return true, s.arm(msg.id, d)
	}
	s.gen[msg.id]++
	return true, nil
}

func (s *scheduler) stop(id taskID) {
	s.gen[id]++
	delete(s.interval, id)
}

func (s *scheduler) stopAll() {
	for id := range s.gen {
		s.stop(id)
	}
}

func (s *scheduler) arm(id taskID, d time.Duration) tea.Cmd {
	s.gen[id]++
	gen := s.gen[id]
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return taskMsg{id: id, gen: gen, at: t}
	})
}
