package event

import (
	"time"

	"github.com/skyguard/radarsim/internal/geom"
	"github.com/skyguard/radarsim/internal/net/packet"
)

// Collaborator notifications. Emitted on the game loop and delivered in the
// Output phase of the same tick.

type EntityAdded struct {
	ID         int32
	Position   geom.Vec2
	Parametric bool
	Level      int // threat level at spawn
	At         time.Time
}

type EntityDestroyed struct {
	ID       int32
	Position geom.Vec2
	At       time.Time
}

// EntityEscaped is distinct from EntityDestroyed: the entity left the
// operating square without being engaged.
type EntityEscaped struct {
	ID       int32
	Position geom.Vec2
	At       time.Time
}

type StrikeExecuted struct {
	Center    geom.Vec2
	Radius    float64
	Destroyed int
	At        time.Time
}

type HighPriorityThreat struct {
	ID    int32
	Score float64
	Level int
	At    time.Time
}

type InterceptRecommendation struct {
	ID    int32
	Point geom.Vec2
	Lead  time.Duration
	At    time.Time
}

// DetectionBatch carries every detection of one scan, including empty scans.
type DetectionBatch struct {
	At         time.Time
	Detections []packet.Detection
}

type WeaponFired struct {
	Weapon    string
	TargetID  int32 // 0 when the strike point came from a grid search
	Point     geom.Vec2
	Radius    float64
	Destroyed int
	Relaxed   bool
	At        time.Time
}

type CooldownComplete struct {
	Weapon string
	At     time.Time
}
