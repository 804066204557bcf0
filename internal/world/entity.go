package world

import (
	"time"

	"github.com/skyguard/radarsim/internal/geom"
	"github.com/skyguard/radarsim/internal/track"
)

// Entity is a simulated intruder. Owned by the Registry; other components
// keep only the ID and re-resolve through Registry.Get.
type Entity struct {
	ID        int32
	Motion    *track.Model
	Active    bool
	Destroyed bool
	SpawnedAt time.Time

	alerted bool // HighPriorityThreat already emitted
}

func (e *Entity) Position() geom.Vec2 { return e.Motion.Position }
func (e *Entity) Velocity() geom.Vec2 { return e.Motion.Velocity }

// ThreatScore is the base score relative to the defended origin.
func (e *Entity) ThreatScore() float64 {
	return track.BaseScore(e.Motion.Position)
}

// InRange reports whether the entity lies within r of c, boundary included.
func (e *Entity) InRange(c geom.Vec2, r float64) bool {
	return e.Motion.Position.Dist(c) <= r
}

// InSquare reports whether the entity is inside the operating square
// [-half, half]², boundary included.
func (e *Entity) InSquare(half float64) bool {
	p := e.Motion.Position
	return p.X >= -half && p.X <= half && p.Y >= -half && p.Y <= half
}
