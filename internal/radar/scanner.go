package radar

import (
	"time"

	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/geom"
	"github.com/skyguard/radarsim/internal/net/packet"
	"github.com/skyguard/radarsim/internal/world"
)

// Settings are the live radar parameters. The control channel mutates them
// between ticks.
type Settings struct {
	Interval time.Duration
	Radius   float64
	Center   geom.Vec2
}

func DefaultSettings() Settings {
	return Settings{
		Interval: time.Second,
		Radius:   800,
		Center:   geom.Origin,
	}
}

// Scanner turns the registry's current entities into detections. It keeps no
// state between scans beyond its settings.
type Scanner struct {
	reg      *world.Registry
	settings Settings
	log      *zap.Logger
}

func NewScanner(reg *world.Registry, settings Settings, log *zap.Logger) *Scanner {
	return &Scanner{reg: reg, settings: settings, log: log}
}

func (s *Scanner) Settings() Settings     { return s.settings }
func (s *Scanner) SetSettings(v Settings) { s.settings = v }

// Scan returns a detection for every active entity within the radar disk,
// boundary included, in ascending ID order.
func (s *Scanner) Scan(now time.Time) []packet.Detection {
	c, r := s.settings.Center, s.settings.Radius
	inRange := s.reg.InRadius(c, r)
	dets := make([]packet.Detection, 0, len(inRange))
	for _, e := range inRange {
		dets = append(dets, Detect(e, c, now))
	}
	s.log.Debug("radar scan",
		zap.Int("active", s.reg.Count()),
		zap.Int("detections", len(dets)),
		zap.Float64("radius", r),
	)
	return dets
}

// Detect snapshots one entity as seen from center.
func Detect(e *world.Entity, center geom.Vec2, now time.Time) packet.Detection {
	m := e.Motion
	return packet.Detection{
		ID:         e.ID,
		Position:   m.Position,
		Velocity:   m.Velocity,
		Time:       now,
		Distance:   m.Position.Dist(center),
		Azimuth:    geom.Azimuth(center, m.Position),
		Shape:      m.Shape(),
		Profile:    m.Profile(),
		Direction:  m.Direction,
		Speed:      m.Speed,
		Parametric: m.IsParametric(),
	}
}
