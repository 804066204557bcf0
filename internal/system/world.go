package system

import (
	"time"

	coresys "github.com/skyguard/radarsim/internal/core/system"
	"github.com/skyguard/radarsim/internal/world"
)

// SpawnSystem creates one entity on each generation tick. The task is shared
// with the control handlers so an interval change takes effect immediately.
// Phase 1 (Update), registered before MotionSystem.
type SpawnSystem struct {
	reg     *world.Registry
	task    *coresys.Periodic
	enabled bool
}

func NewSpawnSystem(reg *world.Registry, task *coresys.Periodic, enabled bool) *SpawnSystem {
	return &SpawnSystem{reg: reg, task: task, enabled: enabled}
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SpawnSystem) SetEnabled(on bool) { s.enabled = on }
func (s *SpawnSystem) Enabled() bool      { return s.enabled }

func (s *SpawnSystem) Update(now time.Time, _ time.Duration) {
	if !s.enabled {
		return
	}
	if s.task.Due(now) {
		s.reg.Spawn(now)
	}
}

// MotionSystem advances every entity and removes the ones that left the
// operating square. Phase 1 (Update).
type MotionSystem struct {
	reg *world.Registry
}

func NewMotionSystem(reg *world.Registry) *MotionSystem {
	return &MotionSystem{reg: reg}
}

func (s *MotionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MotionSystem) Update(now time.Time, _ time.Duration) {
	s.reg.Tick(now)
}
