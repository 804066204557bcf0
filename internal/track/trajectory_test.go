package track

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyguard/radarsim/internal/geom"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestBallisticPositionAt(t *testing.T) {
	m := NewBallistic(geom.V(-800, 0), geom.V(50, 0), t0)

	assert.Equal(t, geom.V(-300, 0), m.PositionAt(t0.Add(10*time.Second)))
	assert.Equal(t, geom.V(-850, 0), m.PositionAt(t0.Add(-time.Second)), "no clamping before start")
	assert.Equal(t, 50.0, m.Speed)
	assert.False(t, m.IsParametric())
}

func TestBezierEndpoints(t *testing.T) {
	for _, bend := range []float64{1.2, -1.8} {
		m := NewParametric(ParametricSpec{
			Start:      geom.V(-500, -500),
			Target:     geom.V(400, 300),
			Shape:      Curved,
			Profile:    Constant,
			StartSpeed: 60,
			Bend:       bend,
		}, t0)

		p0 := m.pointAt(0)
		p1 := m.pointAt(1)
		assert.InDelta(t, -500, p0.X, 1e-9)
		assert.InDelta(t, -500, p0.Y, 1e-9)
		assert.InDelta(t, 400, p1.X, 1e-9)
		assert.InDelta(t, 300, p1.Y, 1e-9)

		end := m.PositionAt(t0.Add(m.TraverseTime()))
		assert.InDelta(t, 400, end.X, 1e-3)
		assert.InDelta(t, 300, end.Y, 1e-3)

		// Control point sits off the chord by bend × path length.
		mid := geom.Lerp(m.Origin(), m.Target(), 0.5)
		assert.InDelta(t, math.Abs(bend)*m.PathLength(), mid.Dist(m.ControlPoint()), 1e-6)
	}
}

func TestTraverseTimeClamped(t *testing.T) {
	tests := []struct {
		name string
		spec ParametricSpec
		want time.Duration
	}{
		{"short fast path", ParametricSpec{Target: geom.V(10, 0), StartSpeed: 100}, 5 * time.Second},
		{"long slow path", ParametricSpec{Target: geom.V(100000, 0), StartSpeed: 10}, 120 * time.Second},
		{"zero speeds floor at 10", ParametricSpec{Target: geom.V(300, 0), Profile: Ramped}, 30 * time.Second},
		{"ramped uses mean", ParametricSpec{Target: geom.V(1000, 0), Profile: Ramped, StartSpeed: 20, EndSpeed: 180}, 10 * time.Second},
		{"degenerate path", ParametricSpec{Start: geom.V(5, 5), Target: geom.V(5, 5), StartSpeed: 50}, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewParametric(tt.spec, t0)
			assert.Equal(t, tt.want, m.TraverseTime())
		})
	}
}

func TestProgressMonotonic(t *testing.T) {
	m := NewParametric(ParametricSpec{
		Start:      geom.V(-1000, 0),
		Target:     geom.V(1000, 200),
		Shape:      Curved,
		Profile:    Ramped,
		StartSpeed: 30,
		EndSpeed:   150,
		Bend:       -1.4,
	}, t0)

	prev := m.Progress
	for s := 0; s <= 300; s++ {
		m.Advance(t0.Add(time.Duration(s) * 500 * time.Millisecond))
		require.GreaterOrEqual(t, m.Progress, prev, "step %d", s)
		prev = m.Progress
	}

	// A clock going backwards never rewinds progress.
	m.Advance(t0)
	assert.Equal(t, prev, m.Progress)
}

func TestOvershootAtHalfRate(t *testing.T) {
	m := NewParametric(ParametricSpec{
		Target:     geom.V(100, 0),
		Profile:    Constant,
		StartSpeed: 10,
	}, t0)
	require.Equal(t, 10*time.Second, m.TraverseTime())

	m.Advance(t0.Add(20 * time.Second))
	assert.InDelta(t, 1.5, m.Progress, 1e-9)
	assert.InDelta(t, 150, m.Position.X, 1e-9)
	assert.Equal(t, MinSpeed, m.Speed, "half of 10 is floored")
}

func TestRampedSpeed(t *testing.T) {
	m := NewParametric(ParametricSpec{
		Target:     geom.V(1000, 0),
		Profile:    Ramped,
		StartSpeed: 40,
		EndSpeed:   120,
	}, t0)
	assert.Equal(t, 40.0, m.Speed)

	m.Advance(t0.Add(m.TraverseTime() / 2))
	assert.InDelta(t, 80, m.Speed, 1e-6)
	assert.InDelta(t, 80, m.Velocity.X, 1e-6)
	assert.InDelta(t, 0, m.Velocity.Y, 1e-9)
}

func TestTimeToReachCenter(t *testing.T) {
	away := NewBallistic(geom.V(100, 0), geom.V(50, 0), t0)
	assert.Equal(t, NotClosing, away.TimeToReachCenter())

	tangent := NewBallistic(geom.V(0, 300), geom.V(40, 0), t0)
	assert.Equal(t, NotClosing, tangent.TimeToReachCenter())

	closing := NewBallistic(geom.V(-800, 0), geom.V(50, 0), t0)
	assert.InDelta(t, 16, closing.TimeToReachCenter(), 1e-9)
}

func TestTimeToExitCircle(t *testing.T) {
	inside := NewBallistic(geom.Origin, geom.V(10, 0), t0)
	assert.InDelta(t, 10, inside.TimeToExitCircle(geom.Origin, 100), 1e-9)

	// Outside and approaching: the first crossing is the entry.
	outside := NewBallistic(geom.V(-200, 0), geom.V(10, 0), t0)
	assert.InDelta(t, 10, outside.TimeToExitCircle(geom.Origin, 100), 1e-9)

	stationary := NewBallistic(geom.V(50, 0), geom.V(0.05, -0.05), t0)
	assert.True(t, math.IsInf(stationary.TimeToExitCircle(geom.Origin, 100), 1))

	miss := NewBallistic(geom.V(-500, 300), geom.V(10, 0), t0)
	assert.True(t, math.IsInf(miss.TimeToExitCircle(geom.Origin, 100), 1))

	behind := NewBallistic(geom.V(300, 0), geom.V(10, 0), t0)
	assert.True(t, math.IsInf(behind.TimeToExitCircle(geom.Origin, 100), 1))
}

func TestMinDistanceToCenter(t *testing.T) {
	passing := NewBallistic(geom.V(-100, 50), geom.V(10, 0), t0)
	assert.InDelta(t, 50, passing.MinDistanceToCenter(), 1e-9)

	leaving := NewBallistic(geom.V(300, 400), geom.V(10, 0), t0)
	assert.InDelta(t, 500, leaving.MinDistanceToCenter(), 1e-9)

	still := NewBallistic(geom.V(0, -70), geom.Vec2{}, t0)
	assert.InDelta(t, 70, still.MinDistanceToCenter(), 1e-9)
}

func TestInterceptPoint(t *testing.T) {
	hover := NewBallistic(geom.V(300, 0), geom.Vec2{}, t0)
	p, lead := hover.InterceptPoint(t0, geom.Origin, 100)
	assert.Equal(t, geom.V(300, 0), p)
	assert.InDelta(t, float64(3*time.Second), float64(lead), float64(time.Millisecond))

	closing := NewBallistic(geom.V(-800, 0), geom.V(50, 0), t0)
	p, lead = closing.InterceptPoint(t0, geom.Origin, 150)
	// 800 = (150+50)·t → t = 4 s, meeting at x = −600.
	assert.InDelta(t, float64(4*time.Second), float64(lead), float64(time.Millisecond))
	assert.InDelta(t, -600, p.X, 1e-6)

	p, lead = closing.InterceptPoint(t0, geom.Origin, 0)
	assert.Equal(t, geom.V(-800, 0), p)
	assert.Zero(t, lead)
}

func TestWillEnterZone(t *testing.T) {
	m := NewBallistic(geom.V(-800, 0), geom.V(50, 0), t0)
	assert.True(t, m.WillEnterZone(t0, geom.Origin, 400, 10*time.Second))
	assert.False(t, m.WillEnterZone(t0, geom.Origin, 400, 5*time.Second))
	assert.True(t, m.WillEnterZone(t0.Add(8*time.Second), geom.Origin, 400, 0))
}

func TestBallisticSetVelocityIsContinuous(t *testing.T) {
	m := NewBallistic(geom.V(-800, 0), geom.V(50, 0), t0)
	now := t0.Add(4 * time.Second)
	before := m.PositionAt(now)

	m.SetVelocity(geom.V(0, 20), now)
	assert.Equal(t, before, m.PositionAt(now))
	assert.Equal(t, geom.V(-600, 40), m.PositionAt(now.Add(2*time.Second)))
	assert.Equal(t, 20.0, m.Speed)
}
