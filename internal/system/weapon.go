package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/skyguard/radarsim/internal/core/system"
	"github.com/skyguard/radarsim/internal/radar"
	"github.com/skyguard/radarsim/internal/targeting"
	"github.com/skyguard/radarsim/internal/world"
)

// WeaponSystem drives the targeting engine: cooldown expiry every tick,
// auto-fire on its poll period while enabled, and the priority threat sweep
// that raises alerts. Phase 3 (Targeting).
type WeaponSystem struct {
	engine   *targeting.Engine
	scanner  *radar.Scanner
	reg      *world.Registry
	poll     *coresys.Periodic
	priority *coresys.Periodic
	log      *zap.Logger
}

func NewWeaponSystem(
	engine *targeting.Engine,
	scanner *radar.Scanner,
	reg *world.Registry,
	pollInterval time.Duration,
	priorityInterval time.Duration,
	log *zap.Logger,
) *WeaponSystem {
	return &WeaponSystem{
		engine:   engine,
		scanner:  scanner,
		reg:      reg,
		poll:     coresys.NewPeriodic(pollInterval),
		priority: coresys.NewPeriodic(priorityInterval),
		log:      log,
	}
}

func (s *WeaponSystem) Phase() coresys.Phase { return coresys.PhaseTargeting }

func (s *WeaponSystem) Update(now time.Time, _ time.Duration) {
	s.engine.Update(now)
	rs := s.scanner.Settings()

	if s.priority.Due(now) {
		targets := s.reg.PriorityTargets(now, rs.Center, rs.Radius, 0)
		if len(targets) > 0 {
			s.log.Debug("priority targets", zap.Int("count", len(targets)), zap.Int32("top", targets[0].ID))
		}
	}

	// The poll task keeps its phase while auto-fire is off.
	if s.poll.Due(now) && s.engine.AutoFireEnabled() {
		s.engine.AutoFire(now, rs.Center, rs.Radius)
	}
}
