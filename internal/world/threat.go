package world

import (
	"time"

	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/core/event"
	"github.com/skyguard/radarsim/internal/geom"
)

// AdvancedScore combines base threat with distance, speed, approach and
// urgency factors. Every factor is ≥ 1 and grows with proximity or urgency.
// Inactive entities score 0.
func (r *Registry) AdvancedScore(e *Entity, center geom.Vec2) float64 {
	if e == nil || !e.Active || e.Destroyed {
		return 0
	}
	p := r.threat
	m := e.Motion

	distanceFactor := 1000 / (m.Position.Dist(center) + p.DistanceOffset)
	speedFactor := 1 + m.Speed/p.SpeedScale

	trajectoryFactor := 1.0
	if minD := m.MinDistanceToCenter(); minD >= 0 && minD < p.ApproachRange {
		trajectoryFactor = 2 - minD/p.ApproachRange
	}

	urgencyFactor := 1.0
	if t := m.TimeToReachCenter(); t > 0 && t < p.UrgencyHorizon {
		urgencyFactor = 2 - t/p.UrgencyHorizon
	}

	return e.ThreatScore() * distanceFactor * speedFactor * trajectoryFactor * urgencyFactor
}

// ShouldEngage gates an entity for engagement: in range, above the minimum
// advanced score, and then any of breaching the core zone soon, a very high
// score, or a close projected approach.
func (r *Registry) ShouldEngage(e *Entity, now time.Time, center geom.Vec2, radius float64) bool {
	if e == nil || !e.Active || e.Destroyed {
		return false
	}
	if !e.InRange(center, radius) {
		return false
	}
	p := r.threat
	score := r.AdvancedScore(e, center)
	if score < p.MinEngageScore {
		return false
	}
	if e.Motion.WillEnterZone(now, center, radius*p.CoreFraction, p.CoreHorizon) {
		return true
	}
	if score > p.HighThreatScore {
		return true
	}
	minD := e.Motion.MinDistanceToCenter()
	return minD >= 0 && minD < radius*p.ApproachFactor
}

// PriorityTargets returns up to limit engageable entities inside the radar
// disk, highest advanced score first. The first time an entity scores above
// AlertScore it raises HighPriorityThreat and an InterceptRecommendation for
// an interceptor launched from the defended origin.
func (r *Registry) PriorityTargets(now time.Time, center geom.Vec2, radius float64, limit int) []*Entity {
	if limit <= 0 {
		limit = r.threat.MaxPriority
	}
	candidates := sortByScore(r.InRadius(center, radius), func(e *Entity) float64 {
		return r.AdvancedScore(e, center)
	})

	var result []*Entity
	for _, e := range candidates {
		if len(result) >= limit {
			break
		}
		if !r.ShouldEngage(e, now, center, radius) {
			continue
		}
		result = append(result, e)

		score := r.AdvancedScore(e, center)
		if score <= r.threat.AlertScore || e.alerted {
			continue
		}
		e.alerted = true
		point, lead := e.Motion.InterceptPoint(now, geom.Origin, r.threat.InterceptSpeed)
		level := r.ThreatLevel(e)
		event.Emit(r.bus, event.HighPriorityThreat{ID: e.ID, Score: score, Level: level, At: now})
		event.Emit(r.bus, event.InterceptRecommendation{ID: e.ID, Point: point, Lead: lead, At: now})
		r.log.Info("high priority threat",
			zap.Int32("id", e.ID),
			zap.Float64("score", score),
			zap.Int("threat_level", level),
			zap.Float64("intercept_x", point.X),
			zap.Float64("intercept_y", point.Y),
			zap.Duration("lead", lead),
		)
	}
	return result
}

// OptimalStrikePoint searches a lattice of StrikeGridCells per diameter over
// the disk of searchRadius around center, scoring each point by the summed
// base threat within blastRadius. The first strict maximum wins. With nothing
// in the search disk it returns center and 0.
func (r *Registry) OptimalStrikePoint(center geom.Vec2, blastRadius, searchRadius float64) (geom.Vec2, float64) {
	if len(r.InRadius(center, searchRadius)) == 0 {
		return center, 0
	}
	n := r.threat.StrikeGridCells
	if n <= 0 {
		n = 20
	}
	step := searchRadius * 2 / float64(n)

	best := center
	bestTotal := 0.0
	for x := -n / 2; x <= n/2; x++ {
		for y := -n / 2; y <= n/2; y++ {
			off := geom.V(float64(x)*step, float64(y)*step)
			if off.Len() > searchRadius {
				continue
			}
			pt := center.Add(off)
			total := 0.0
			for _, e := range r.InStrikeRange(pt, blastRadius) {
				total += e.ThreatScore()
			}
			if total > bestTotal {
				best, bestTotal = pt, total
			}
		}
	}
	return best, bestTotal
}
