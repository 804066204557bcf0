package targeting

import (
	"math"
	"time"

	"github.com/skyguard/radarsim/internal/geom"
	"github.com/skyguard/radarsim/internal/world"
)

// selectTarget picks a strike point for w among entities within rng of
// center. The returned id is the entity the point was taken from, or 0.
func (e *Engine) selectTarget(now time.Time, w WeaponConfig, center geom.Vec2, rng float64) (geom.Vec2, int32, bool) {
	switch {
	case w.Strategy == ThreatPriority && w.Profile == SingleTarget:
		return e.threatSingle(center, rng)
	case w.Strategy == ThreatPriority && w.Profile == Area:
		return e.threatArea(w, center, rng)
	case w.Strategy == TimePriority && w.Profile == SingleTarget:
		return e.timeSingle(center, rng)
	case w.Strategy == TimePriority && w.Profile == Area:
		return e.timeArea(now, w, center, rng)
	}
	return geom.Vec2{}, 0, false
}

// threatSingle takes the highest base score in range.
func (e *Engine) threatSingle(center geom.Vec2, rng float64) (geom.Vec2, int32, bool) {
	sorted := e.reg.ThreatSortedInRadius(center, rng)
	if len(sorted) == 0 {
		return geom.Vec2{}, 0, false
	}
	return sorted[0].Position(), sorted[0].ID, true
}

// threatArea tries the grid-searched cluster point, then the single highest
// threat above FallbackMinScore, then the first entity in range.
func (e *Engine) threatArea(w WeaponConfig, center geom.Vec2, rng float64) (geom.Vec2, int32, bool) {
	inRange := e.reg.InRadius(center, rng)
	if len(inRange) == 0 {
		return geom.Vec2{}, 0, false
	}

	if pt, _ := e.reg.OptimalStrikePoint(center, w.Radius, rng); len(e.reg.InStrikeRange(pt, w.Radius)) > 0 {
		return pt, 0, true
	}

	var best *world.Entity
	bestScore := 0.0
	for _, ent := range inRange {
		if s := ent.ThreatScore(); s > bestScore {
			best, bestScore = ent, s
		}
	}
	if best != nil && bestScore >= e.params.FallbackMinScore {
		return best.Position(), best.ID, true
	}
	return inRange[0].Position(), inRange[0].ID, true
}

// timeSingle takes the entity that leaves the radar disk soonest, among those
// scoring at least TimeScoreFloor.
func (e *Engine) timeSingle(center geom.Vec2, rng float64) (geom.Vec2, int32, bool) {
	var best *world.Entity
	bestT := math.Inf(1)
	for _, ent := range e.reg.InRadius(center, rng) {
		if ent.ThreatScore() < e.params.TimeScoreFloor {
			continue
		}
		t := ent.Motion.TimeToExitCircle(center, rng)
		if t > 0 && t < bestT {
			best, bestT = ent, t
		}
	}
	if best != nil {
		return best.Position(), best.ID, true
	}
	return e.threatSingle(center, rng)
}

// timeArea strikes where the highest-scoring urgent entity will be after
// Lead, or at its current position when that prediction leaves the disk.
func (e *Engine) timeArea(now time.Time, w WeaponConfig, center geom.Vec2, rng float64) (geom.Vec2, int32, bool) {
	var primary *world.Entity
	bestScore := 0.0
	for _, ent := range e.reg.InRadius(center, rng) {
		t := ent.Motion.TimeToExitCircle(center, rng)
		if t <= 0 || t > e.params.UrgentHorizon {
			continue
		}
		if s := ent.ThreatScore(); s > bestScore {
			primary, bestScore = ent, s
		}
	}
	if primary == nil {
		return e.threatArea(w, center, rng)
	}

	pt := primary.Motion.PredictPositionAt(now.Add(e.params.Lead))
	if pt.Dist(center) > rng {
		pt = primary.Position()
	}
	return pt, primary.ID, true
}
