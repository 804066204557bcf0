package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput     Phase = iota // 0: drain control datagrams
	PhaseUpdate                 // 1: spawn, advance, escape
	PhaseScan                   // 2: radar scan, frame build
	PhaseTargeting              // 3: cooldown expiry, auto-fire, priority alerts
	PhaseOutput                 // 4: event dispatch, frame broadcast
	PhasePersist                // 5: journal flush, stats
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseUpdate:
		return "update"
	case PhaseScan:
		return "scan"
	case PhaseTargeting:
		return "targeting"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	}
	return "unknown"
}

// System is the interface every game-loop system implements. now is the loop
// clock reading shared by every system in the tick.
type System interface {
	Phase() Phase
	Update(now time.Time, dt time.Duration)
}
