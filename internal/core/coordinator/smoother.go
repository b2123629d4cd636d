package coordinator

import (
	"time"

	"github.com/venkmine/proxx/internal/core/engine"
)

// smoother derives the display status for very fast jobs. A job first seen
// running keeps displaying as running for a minimum duration even if its
// true status has already gone terminal. Display only: the mirror always
// holds the true, immediately-absorbed status.
type smoother struct {
	min          time.Duration
	firstRunning map[string]time.Time
}

func newSmoother(min time.Duration) *smoother {
	return &smoother{min: min, firstRunning: make(map[string]time.Time)}
}

// observe records the first time an id is seen running. Later observations
// never move the mark.
func (s *smoother) observe(id string, state engine.JobState, now time.Time) {
	if state != engine.StateRunning {
		return
	}
	if _, ok := s.firstRunning[id]; !ok {
		s.firstRunning[id] = now
	}
}

// display maps a true status to the presentation status. Only terminal
// statuses are ever masked, and only until the minimum display deadline.
func (s *smoother) display(id string, state engine.JobState, now time.Time) engine.JobState {
	if !state.IsTerminal() {
		return state
	}
	if first, ok := s.firstRunning[id]; ok && now.Before(first.Add(s.min)) {
		return engine.StateRunning
	}
	return state
}

// maskedUntil reports the deadline until which a terminal status for the id
// would display as running, if that deadline is still ahead.
func (s *smoother) maskedUntil(id string, now time.Time) (time.Time, bool) {
	first, ok := s.firstRunning[id]
	if !ok {
		return time.Time{}, false
	}
	deadline := first.Add(s.min)
	if now.Before(deadline) {
		return deadline, true
	}
	return time.Time{}, false
}

func (s *smoother) forget(id string) {
	delete(s.firstRunning, id)
}
