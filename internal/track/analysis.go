package track

import (
	"math"
	"time"

	"github.com/skyguard/radarsim/internal/geom"
)

const (
	interceptHorizon = 30.0 // seconds
	interceptStep    = 0.1  // seconds
)

// InterceptPoint returns the predicted point, within the next 30 s, where an
// interceptor leaving from at speed arrives closest to the entity's own
// arrival time, and the lead at which it occurs. The first minimum wins.
// Non-positive speeds return the current position.
func (m *Model) InterceptPoint(now time.Time, from geom.Vec2, speed float64) (geom.Vec2, time.Duration) {
	if speed <= 0 {
		return m.PositionAt(now), 0
	}
	best := m.PositionAt(now)
	bestT := 0.0
	bestErr := math.Inf(1)
	steps := int(math.Round(interceptHorizon / interceptStep))
	for i := 1; i <= steps; i++ {
		t := float64(i) * interceptStep
		p := m.PositionAt(now.Add(secs(t)))
		e := math.Abs(p.Dist(from)/speed - t)
		if e < bestErr {
			bestErr, best, bestT = e, p, t
		}
	}
	return best, secs(bestT)
}

// MinDistanceToCenter is the closest approach to the defended origin along
// the current velocity line, counting only the future.
func (m *Model) MinDistanceToCenter() float64 {
	rel := m.Position
	v2 := m.Velocity.Len2()
	if v2 == 0 {
		return rel.Len()
	}
	t := -rel.Dot(m.Velocity) / v2
	if t < 0 {
		return rel.Len()
	}
	return rel.Add(m.Velocity.Scale(t)).Len()
}

// TimeToExitCircle is the smallest positive root of |p + v·t − c| = r, or
// Never when the entity is effectively stationary or never crosses the
// boundary.
func (m *Model) TimeToExitCircle(c geom.Vec2, r float64) float64 {
	v := m.Velocity
	if math.Abs(v.X) < 0.1 && math.Abs(v.Y) < 0.1 {
		return Never
	}
	rel := m.Position.Sub(c)
	a := v.Len2()
	b := 2 * rel.Dot(v)
	k := rel.Len2() - r*r
	disc := b*b - 4*a*k
	if disc < 0 {
		return Never
	}
	sq := math.Sqrt(disc)
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)
	switch {
	case t1 > 0:
		return t1
	case t2 > 0:
		return t2
	}
	return Never
}

// NotClosing is returned by TimeToReachCenter for entities moving away from
// or tangentially to the origin.
const NotClosing = -1.0

// TimeToReachCenter is distance/speed when the entity is closing on the
// defended origin, otherwise NotClosing.
func (m *Model) TimeToReachCenter() float64 {
	if m.Velocity.Dot(m.Position.Scale(-1)) <= 0 || m.Speed <= 0 {
		return NotClosing
	}
	return m.Position.Len() / m.Speed
}

// WillEnterZone samples the trajectory at whole seconds 0..horizon and
// reports whether any sample lies within radius of c.
func (m *Model) WillEnterZone(now time.Time, c geom.Vec2, radius float64, horizon time.Duration) bool {
	n := int(horizon / time.Second)
	for s := 0; s <= n; s++ {
		if m.PredictPositionAt(now.Add(time.Duration(s)*time.Second)).Dist(c) <= radius {
			return true
		}
	}
	return false
}
