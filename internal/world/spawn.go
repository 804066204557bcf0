package world

import (
	"time"

	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/geom"
	"github.com/skyguard/radarsim/internal/track"
)

// Edges of the operating square, clockwise from the top (-y).
const (
	edgeTop = iota
	edgeRight
	edgeBottom
	edgeLeft
)

// Spawn creates one random entity on the boundary heading across the square
// or toward the defended center. Returns false when the live count has
// reached MaxDrones.
func (r *Registry) Spawn(now time.Time) (int32, bool) {
	p := r.spawn
	if p.MaxDrones > 0 && r.Count() >= p.MaxDrones {
		return 0, false
	}

	edge := r.rng.Intn(4)
	start := r.edgePoint(edge)
	target := r.spawnTarget(edge)

	spec := track.ParametricSpec{
		Start:   start,
		Target:  target,
		Shape:   track.Linear,
		Profile: track.Constant,
	}
	if r.rng.Float64() < p.CurvedChance {
		spec.Shape = track.Curved
	}
	if r.rng.Float64() < p.RampedChance {
		spec.Profile = track.Ramped
	}
	spec.StartSpeed = r.uniform(p.StartSpeedMin, p.StartSpeedMax)
	spec.EndSpeed = spec.StartSpeed
	if spec.Profile == track.Ramped {
		factor := r.uniform(p.EndFactorMin, p.EndFactorMax)
		spec.EndSpeed = geom.Clamp(spec.StartSpeed*factor, p.EndSpeedMin, p.EndSpeedMax)
	}
	if spec.Shape == track.Curved {
		spec.Bend = r.uniform(p.BendMin, p.BendMax)
		if r.rng.Float64() < 0.5 {
			spec.Bend = -spec.Bend
		}
	}

	id, err := r.AddParametric(0, spec, now)
	if err != nil {
		r.log.Error("spawn failed", zap.Error(err))
		return 0, false
	}
	return id, true
}

func (r *Registry) uniform(lo, hi float64) float64 {
	return lo + r.rng.Float64()*(hi-lo)
}

func (r *Registry) edgePoint(edge int) geom.Vec2 {
	h := r.spawn.HalfSize
	along := r.uniform(-h, h)
	switch edge {
	case edgeTop:
		return geom.V(along, -h)
	case edgeRight:
		return geom.V(h, along)
	case edgeBottom:
		return geom.V(along, h)
	default:
		return geom.V(-h, along)
	}
}

// spawnTarget picks a point near the edge opposite the spawn edge, or near
// the defended center.
func (r *Registry) spawnTarget(edge int) geom.Vec2 {
	p := r.spawn
	if r.rng.Float64() < p.CenterChance {
		s := p.CenterSpread
		return geom.V(r.uniform(-s, s), r.uniform(-s, s))
	}
	h := p.HalfSize
	along := r.uniform(-h, h)
	inset := r.rng.Float64() * h * p.EdgeBand
	switch (edge + 2) % 4 {
	case edgeTop:
		return geom.V(along, -h+inset)
	case edgeRight:
		return geom.V(h-inset, along)
	case edgeBottom:
		return geom.V(along, h-inset)
	default:
		return geom.V(-h+inset, along)
	}
}
