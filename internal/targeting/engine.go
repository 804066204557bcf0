package targeting

import (
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/core/event"
	"github.com/skyguard/radarsim/internal/geom"
	"github.com/skyguard/radarsim/internal/world"
)

var (
	ErrCoolingDown = errors.New("targeting: weapon cooling down")
	ErrNoTarget    = errors.New("targeting: no valid target")
	ErrUnknownMode = errors.New("targeting: unknown weapon mode")
)

// State of the weapon.
type State uint8

const (
	Ready State = iota
	Cooling
)

func (s State) String() string {
	if s == Cooling {
		return "cooling"
	}
	return "ready"
}

// Params tunes target selection. Zero fields are not replaced; start from
// DefaultParams.
type Params struct {
	TimeScoreFloor   float64       // time/single: minimum base score considered
	UrgentHorizon    float64       // time/area: exit-time window, seconds
	Lead             time.Duration // time/area: prediction lead
	FallbackMinScore float64       // area fallback: minimum score for the max-threat strike
	AutoFirePeriod   time.Duration
}

func DefaultParams() Params {
	return Params{
		TimeScoreFloor:   3.0,
		UrgentHorizon:    20,
		Lead:             500 * time.Millisecond,
		FallbackMinScore: 0.5,
		AutoFirePeriod:   100 * time.Millisecond,
	}
}

// Result describes one successful engagement.
type Result struct {
	Weapon    WeaponConfig
	TargetID  int32 // 0 when the point came from the grid search or a prediction
	Point     geom.Vec2
	Radius    float64
	Destroyed int
	Relaxed   bool
}

// Engine is the cooldown-gated weapon. Game loop only.
type Engine struct {
	reg     *world.Registry
	bus     *event.Bus
	catalog Catalog
	params  Params
	active  WeaponConfig

	state   State
	readyAt time.Time
	firing  WeaponConfig // config whose cooldown is running

	autoFire bool

	log *zap.Logger
}

// NewEngine starts Ready with the single-target threat-priority mode.
func NewEngine(reg *world.Registry, bus *event.Bus, catalog Catalog, log *zap.Logger) *Engine {
	active, _ := catalog.Lookup(SingleTarget, ThreatPriority)
	return &Engine{
		reg:     reg,
		bus:     bus,
		catalog: catalog,
		params:  DefaultParams(),
		active:  active,
		log:     log,
	}
}

func (e *Engine) Params() Params       { return e.params }
func (e *Engine) SetParams(p Params)   { e.params = p }
func (e *Engine) Catalog() Catalog     { return e.catalog }
func (e *Engine) Active() WeaponConfig { return e.active }
func (e *Engine) State() State         { return e.state }
func (e *Engine) ReadyAt() time.Time   { return e.readyAt }

// Select switches the active mode. A running cooldown keeps its ready time.
func (e *Engine) Select(p Profile, s Strategy) error {
	w, ok := e.catalog.Lookup(p, s)
	if !ok {
		return ErrUnknownMode
	}
	e.active = w
	e.log.Info("weapon mode selected",
		zap.String("weapon", w.Name),
		zap.Stringer("profile", p),
		zap.Stringer("strategy", s),
	)
	return nil
}

// SetAutoFire toggles the relaxed poll driven by the weapon system.
func (e *Engine) SetAutoFire(on bool) {
	if e.autoFire == on {
		return
	}
	e.autoFire = on
	e.log.Info("auto fire toggled", zap.Bool("enabled", on))
}

func (e *Engine) AutoFireEnabled() bool { return e.autoFire }

// Remaining returns the cooldown left at now, never negative.
func (e *Engine) Remaining(now time.Time) time.Duration {
	if e.state != Cooling || !now.Before(e.readyAt) {
		return 0
	}
	return e.readyAt.Sub(now)
}

// Update completes an elapsed cooldown and emits CooldownComplete.
func (e *Engine) Update(now time.Time) {
	if e.state != Cooling || now.Before(e.readyAt) {
		return
	}
	e.state = Ready
	event.Emit(e.bus, event.CooldownComplete{Weapon: e.firing.Name, At: now})
	e.log.Debug("weapon ready", zap.String("weapon", e.firing.Name))
}

// Fire engages with the active mode. While cooling, or without a target,
// it fails and changes nothing.
func (e *Engine) Fire(now time.Time, center geom.Vec2, radius float64) (Result, error) {
	return e.fire(now, center, radius, false)
}

// AutoFire is the relaxed poll: when Ready and anything is inside the
// effective range, it fires and falls back to the first in-range entity if
// the strategy finds nothing. Returns false when no shot was taken.
func (e *Engine) AutoFire(now time.Time, center geom.Vec2, radius float64) (Result, bool) {
	e.Update(now)
	if e.state != Ready {
		return Result{}, false
	}
	if len(e.reg.InRadius(center, e.effectiveRange(radius))) == 0 {
		return Result{}, false
	}
	res, err := e.fire(now, center, radius, true)
	if err != nil {
		e.log.Debug("auto fire found no target", zap.Error(err))
		return Result{}, false
	}
	return res, true
}

func (e *Engine) effectiveRange(radius float64) float64 {
	if e.active.Range > 0 {
		return math.Min(radius, e.active.Range)
	}
	return radius
}

func (e *Engine) fire(now time.Time, center geom.Vec2, radius float64, relaxed bool) (Result, error) {
	e.Update(now)
	if e.state == Cooling {
		return Result{}, ErrCoolingDown
	}

	w := e.active
	rng := e.effectiveRange(radius)
	point, id, ok := e.selectTarget(now, w, center, rng)
	if !ok && relaxed {
		if first := e.reg.InRadius(center, rng); len(first) > 0 {
			point, id, ok = first[0].Position(), first[0].ID, true
		}
	}
	if !ok {
		return Result{}, ErrNoTarget
	}

	destroyed := e.reg.Strike(point, w.Radius, now)
	e.state = Cooling
	e.readyAt = now.Add(w.Cooldown)
	e.firing = w

	res := Result{
		Weapon:    w,
		TargetID:  id,
		Point:     point,
		Radius:    w.Radius,
		Destroyed: destroyed,
		Relaxed:   relaxed,
	}
	event.Emit(e.bus, event.WeaponFired{
		Weapon:    w.Name,
		TargetID:  id,
		Point:     point,
		Radius:    w.Radius,
		Destroyed: destroyed,
		Relaxed:   relaxed,
		At:        now,
	})
	e.log.Info("weapon fired",
		zap.String("weapon", w.Name),
		zap.Int32("target", id),
		zap.Float64("x", point.X),
		zap.Float64("y", point.Y),
		zap.Int("destroyed", destroyed),
		zap.Bool("relaxed", relaxed),
		zap.Duration("cooldown", w.Cooldown),
	)
	return res, nil
}
