package clock

import (
	"sync"
	"time"
)

// Clock is the time source for the simulation. The game loop reads it once
// per tick; trajectories are evaluated against these readings only.
type Clock interface {
	Now() time.Time
}

// Wall reads the real system clock.
type Wall struct{}

func (Wall) Now() time.Time { return time.Now() }

// Manual is a controllable clock for tests and deterministic replays.
type Manual struct {
	mu  sync.RWMutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
