package track

import (
	"math"
	"time"

	"github.com/skyguard/radarsim/internal/geom"
)

// Shape is the geometric family of a parametric path. Values are part of the
// detection wire format.
type Shape uint32

const (
	Linear Shape = iota
	Curved
)

func (s Shape) String() string {
	if s == Curved {
		return "curved"
	}
	return "linear"
}

// SpeedProfile describes how speed evolves along a parametric path. Values are
// part of the detection wire format.
type SpeedProfile uint32

const (
	Constant SpeedProfile = iota
	Ramped
)

func (p SpeedProfile) String() string {
	if p == Ramped {
		return "ramped"
	}
	return "constant"
}

const (
	MinSpeed      = 10.0  // distance units per second
	MinTraverse   = 5.0   // seconds
	MaxTraverse   = 120.0 // seconds
	OvershootRate = 0.5   // progress rate after reaching the target
	DefaultBend   = 1.5   // control point offset in path lengths
)

// Never is returned by time queries whose event does not happen.
var Never = math.Inf(1)

// ParametricSpec describes a start→target path.
type ParametricSpec struct {
	Start      geom.Vec2
	Target     geom.Vec2
	Shape      Shape
	Profile    SpeedProfile
	StartSpeed float64
	EndSpeed   float64 // <0 means same as StartSpeed; ignored for Constant
	// Bend is the signed control point offset, in path lengths, perpendicular
	// to the chord. Curved paths only; zero selects DefaultBend.
	Bend float64
}

// Model owns one entity's kinematic state. Position is always derived from
// the trajectory descriptor and elapsed time, never integrated.
type Model struct {
	parametric bool
	start      time.Time

	// Ballistic: origin is the position at start.
	origin   geom.Vec2
	velocity geom.Vec2

	// Parametric.
	target     geom.Vec2
	control    geom.Vec2
	shape      Shape
	profile    SpeedProfile
	startSpeed float64
	endSpeed   float64
	pathLength float64
	traverse   float64 // seconds, clamped to [MinTraverse, MaxTraverse]

	// Current state, refreshed by Advance.
	Position  geom.Vec2
	Velocity  geom.Vec2
	Direction float64 // radians, math convention
	Speed     float64
	Progress  float64
}

// NewBallistic creates constant-velocity motion starting at origin.
func NewBallistic(origin, velocity geom.Vec2, start time.Time) *Model {
	m := &Model{
		start:    start,
		origin:   origin,
		velocity: velocity,
		Position: origin,
		Velocity: velocity,
		Speed:    velocity.Len(),
	}
	if !velocity.IsZero() {
		m.Direction = velocity.Heading()
	}
	return m
}

// NewParametric creates a start→target path motion.
func NewParametric(spec ParametricSpec, start time.Time) *Model {
	end := spec.EndSpeed
	if spec.Profile == Constant || end < 0 {
		end = spec.StartSpeed
	}
	chord := spec.Target.Sub(spec.Start)
	m := &Model{
		parametric: true,
		start:      start,
		origin:     spec.Start,
		target:     spec.Target,
		shape:      spec.Shape,
		profile:    spec.Profile,
		startSpeed: spec.StartSpeed,
		endSpeed:   end,
		pathLength: chord.Len(),
		Position:   spec.Start,
	}

	ref := math.Max(MinSpeed, m.startSpeed)
	if m.profile == Ramped {
		ref = math.Max(MinSpeed, (m.startSpeed+m.endSpeed)/2)
	}
	m.traverse = geom.Clamp(m.pathLength/ref, MinTraverse, MaxTraverse)

	if m.shape == Curved {
		bend := spec.Bend
		if bend == 0 {
			bend = DefaultBend
		}
		mid := geom.Lerp(spec.Start, spec.Target, 0.5)
		m.control = mid.Add(chord.Perp().Unit().Scale(m.pathLength * bend))
	}

	m.Direction = m.directionAt(0)
	m.Speed = m.speedAt(0)
	m.Velocity = geom.FromPolar(m.Speed, m.Direction)
	return m
}

func (m *Model) IsParametric() bool          { return m.parametric }
func (m *Model) StartTime() time.Time        { return m.start }
func (m *Model) Origin() geom.Vec2           { return m.origin }
func (m *Model) Target() geom.Vec2           { return m.target }
func (m *Model) ControlPoint() geom.Vec2     { return m.control }
func (m *Model) Shape() Shape                { return m.shape }
func (m *Model) Profile() SpeedProfile       { return m.profile }
func (m *Model) PathLength() float64         { return m.pathLength }
func (m *Model) StartSpeed() float64         { return m.startSpeed }
func (m *Model) EndSpeed() float64           { return m.endSpeed }
func (m *Model) TraverseTime() time.Duration { return secs(m.traverse) }

// PositionAt evaluates the trajectory at t. It is a pure function of t and
// the descriptor; the current state is not consulted.
func (m *Model) PositionAt(t time.Time) geom.Vec2 {
	elapsed := t.Sub(m.start).Seconds()
	if !m.parametric {
		return m.origin.Add(m.velocity.Scale(elapsed))
	}
	return m.pointAt(m.progressAt(elapsed))
}

// PredictPositionAt is PositionAt for a time ahead of the last Advance.
func (m *Model) PredictPositionAt(t time.Time) geom.Vec2 {
	return m.PositionAt(t)
}

// Advance moves the state to now. Progress never decreases.
func (m *Model) Advance(now time.Time) {
	if !m.parametric {
		m.Position = m.PositionAt(now)
		return
	}
	p := m.progressAt(now.Sub(m.start).Seconds())
	if p < m.Progress {
		p = m.Progress
	}
	m.Progress = p
	m.Position = m.pointAt(p)
	m.Direction = m.directionAt(p)
	m.Speed = m.speedAt(p)
	m.Velocity = geom.FromPolar(m.Speed, m.Direction)
}

// SetVelocity replaces the velocity vector at time now. Ballistic motion is
// re-based at the current position so PositionAt stays continuous. For
// parametric motion the path stays authoritative and the next Advance
// re-derives velocity from the tangent.
func (m *Model) SetVelocity(v geom.Vec2, now time.Time) {
	if !m.parametric {
		m.origin = m.PositionAt(now)
		m.start = now
		m.velocity = v
		m.Position = m.origin
	}
	m.Velocity = v
	m.Speed = v.Len()
	if !v.IsZero() {
		m.Direction = v.Heading()
	}
}

func (m *Model) progressAt(elapsed float64) float64 {
	if elapsed <= 0 {
		return 0
	}
	p := elapsed / m.traverse
	if p >= 1 {
		p = 1 + OvershootRate*(elapsed-m.traverse)/m.traverse
	}
	return p
}

func (m *Model) pointAt(p float64) geom.Vec2 {
	if m.shape == Curved {
		return bezier(m.origin, m.control, m.target, p)
	}
	return geom.Lerp(m.origin, m.target, p)
}

func (m *Model) directionAt(p float64) float64 {
	var tangent geom.Vec2
	if m.shape == Curved {
		tangent = bezierTangent(m.origin, m.control, m.target, p)
	} else {
		tangent = m.target.Sub(m.origin)
	}
	if tangent.IsZero() {
		return m.Direction
	}
	return tangent.Heading()
}

func (m *Model) speedAt(p float64) float64 {
	s := m.startSpeed
	if m.profile == Ramped {
		s = m.startSpeed + (m.endSpeed-m.startSpeed)*math.Min(p, 1)
	}
	if p > 1 {
		s *= OvershootRate
	}
	return math.Max(MinSpeed, s)
}

// bezier evaluates B(t) = (1−t)²·P0 + 2(1−t)t·C + t²·P2.
func bezier(p0, c, p2 geom.Vec2, t float64) geom.Vec2 {
	u := 1 - t
	return p0.Scale(u * u).Add(c.Scale(2 * u * t)).Add(p2.Scale(t * t))
}

// bezierTangent evaluates B'(t) = 2(1−t)(C−P0) + 2t(P2−C).
func bezierTangent(p0, c, p2 geom.Vec2, t float64) geom.Vec2 {
	return c.Sub(p0).Scale(2 * (1 - t)).Add(p2.Sub(c).Scale(2 * t))
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
