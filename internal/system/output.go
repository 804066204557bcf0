package system

import (
	"time"

	"github.com/skyguard/radarsim/internal/core/event"
	coresys "github.com/skyguard/radarsim/internal/core/system"
)

// Flusher writes everything queued during the tick.
type Flusher interface {
	Flush() int
}

// OutputSystem delivers the tick's events to subscribers and then flushes
// queued detection frames to the receivers. Phase 4 (Output).
type OutputSystem struct {
	bus *event.Bus
	out Flusher
}

func NewOutputSystem(bus *event.Bus, out Flusher) *OutputSystem {
	return &OutputSystem{bus: bus, out: out}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Time, _ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
	if s.out != nil {
		s.out.Flush()
	}
}
