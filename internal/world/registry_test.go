package world

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/core/event"
	"github.com/skyguard/radarsim/internal/geom"
	"github.com/skyguard/radarsim/internal/track"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestRegistry(seed int64) (*Registry, *event.Bus) {
	bus := event.NewBus()
	return NewRegistry(bus, rand.New(rand.NewSource(seed)), zap.NewNop()), bus
}

func flush(bus *event.Bus) {
	bus.SwapBuffers()
	bus.DispatchAll()
}

func ids(es []*Entity) []int32 {
	out := make([]int32, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func TestStrikeDestroysEverythingInRange(t *testing.T) {
	reg, bus := newTestRegistry(1)
	for _, p := range []geom.Vec2{geom.V(10, 0), geom.V(0, -50), geom.V(-100, 60)} {
		_, err := reg.AddBallistic(0, p, geom.V(5, 5), t0)
		require.NoError(t, err)
	}
	outside, err := reg.AddBallistic(0, geom.V(400, 0), geom.V(-5, 0), t0)
	require.NoError(t, err)

	require.Len(t, reg.InRadius(geom.Origin, 800), 4)
	assert.Equal(t, []int32{1, 2, 3}, ids(reg.InStrikeRange(geom.Origin, 150)))

	var destroyed []int32
	var strikes []event.StrikeExecuted
	event.Subscribe(bus, func(e event.EntityDestroyed) { destroyed = append(destroyed, e.ID) })
	event.Subscribe(bus, func(e event.StrikeExecuted) { strikes = append(strikes, e) })

	n := reg.Strike(geom.Origin, 150, t0)
	assert.Equal(t, 3, n)
	for _, id := range []int32{1, 2, 3} {
		assert.Nil(t, reg.Get(id), "id %d re-resolves to nothing", id)
	}
	assert.NotNil(t, reg.Get(outside))
	assert.Equal(t, 1, reg.Count())
	assert.Empty(t, reg.InStrikeRange(geom.Origin, 150))

	flush(bus)
	assert.Equal(t, []int32{1, 2, 3}, destroyed)
	require.Len(t, strikes, 1)
	assert.Equal(t, 3, strikes[0].Destroyed)
	assert.Equal(t, 150.0, strikes[0].Radius)
}

func TestStrikeOnEmptyAreaStillReports(t *testing.T) {
	reg, bus := newTestRegistry(1)
	var strikes []event.StrikeExecuted
	event.Subscribe(bus, func(e event.StrikeExecuted) { strikes = append(strikes, e) })

	assert.Zero(t, reg.Strike(geom.V(100, 100), 50, t0))
	flush(bus)
	require.Len(t, strikes, 1)
	assert.Zero(t, strikes[0].Destroyed)
}

func TestDuplicateIDRejected(t *testing.T) {
	reg, bus := newTestRegistry(1)
	var added int
	event.Subscribe(bus, func(event.EntityAdded) { added++ })

	id, err := reg.AddBallistic(7, geom.V(1, 1), geom.V(1, 0), t0)
	require.NoError(t, err)
	assert.Equal(t, int32(7), id)

	_, err = reg.AddParametric(7, track.ParametricSpec{Target: geom.V(100, 0), StartSpeed: 50}, t0)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, reg.Count())
	assert.False(t, reg.Get(7).Motion.IsParametric(), "original entity untouched")

	next, err := reg.AddBallistic(0, geom.V(2, 2), geom.V(1, 0), t0)
	require.NoError(t, err)
	assert.Equal(t, int32(8), next, "assigned ids continue past explicit ones")

	flush(bus)
	assert.Equal(t, 2, added)
}

func TestTickEscapesLeaveRegistry(t *testing.T) {
	reg, bus := newTestRegistry(1)
	p := reg.SpawnParams()
	p.PerturbChance = 0
	reg.SetSpawnParams(p)

	leaving, _ := reg.AddBallistic(0, geom.V(790, 0), geom.V(50, 0), t0)
	staying, _ := reg.AddBallistic(0, geom.V(-800, 0), geom.V(50, 0), t0)

	var escaped []int32
	event.Subscribe(bus, func(e event.EntityEscaped) { escaped = append(escaped, e.ID) })

	assert.Equal(t, 1, reg.Tick(t0.Add(time.Second)))
	assert.Nil(t, reg.Get(leaving))
	require.NotNil(t, reg.Get(staying))
	assert.Equal(t, geom.V(-750, 0), reg.Get(staying).Position())
	assert.Empty(t, reg.InRadius(geom.V(840, 0), 10), "grid forgets escaped entities")

	flush(bus)
	assert.Equal(t, []int32{leaving}, escaped)
}

func TestTickPerturbationRespectsSpeedBand(t *testing.T) {
	reg, _ := newTestRegistry(42)
	p := reg.SpawnParams()
	p.PerturbChance = 1
	p.HalfSize = 1e6
	reg.SetSpawnParams(p)

	id, _ := reg.AddBallistic(0, geom.Origin, geom.V(148, 0), t0)
	now := t0
	for i := 0; i < 200; i++ {
		now = now.Add(100 * time.Millisecond)
		reg.Tick(now)
		e := reg.Get(id)
		require.NotNil(t, e)
		assert.GreaterOrEqual(t, e.Motion.Speed, p.MinSpeed-1e-9)
		assert.LessOrEqual(t, e.Motion.Speed, p.MaxSpeed+1e-9)
	}
}

func TestTickPerturbedEntityStaysIndexed(t *testing.T) {
	reg, _ := newTestRegistry(9)
	p := reg.SpawnParams()
	p.PerturbChance = 1
	p.HalfSize = 1e6
	reg.SetSpawnParams(p)

	id, err := reg.AddBallistic(0, geom.V(50, 50), geom.V(100, 0), t0)
	require.NoError(t, err)

	now := t0
	for i := 0; i < 10; i++ {
		now = now.Add(time.Second)
		reg.Tick(now)
	}
	pos := reg.Get(id).Position()
	require.Greater(t, pos.Dist(geom.V(50, 50)), 200.0, "crossed several grid cells")

	assert.Equal(t, []int32{id}, ids(reg.InRadius(pos, 5)))
	assert.Len(t, reg.InRadius(geom.Origin, 1e5), 1, "indexed exactly once")
	assert.Equal(t, 1, reg.Strike(pos, 5, now))
	assert.Zero(t, reg.Count())
}

func TestSpawn(t *testing.T) {
	reg, _ := newTestRegistry(7)
	p := reg.SpawnParams()
	p.MaxDrones = 0
	reg.SetSpawnParams(p)

	curved, ramped := 0, 0
	for i := 0; i < 400; i++ {
		id, ok := reg.Spawn(t0)
		require.True(t, ok)
		m := reg.Get(id).Motion
		start := m.Origin()
		onEdge := math.Abs(start.X) == p.HalfSize || math.Abs(start.Y) == p.HalfSize
		assert.True(t, onEdge, "start %v on boundary", start)
		assert.GreaterOrEqual(t, m.StartSpeed(), p.StartSpeedMin)
		assert.LessOrEqual(t, m.StartSpeed(), p.StartSpeedMax)
		assert.GreaterOrEqual(t, m.EndSpeed(), p.EndSpeedMin)
		assert.LessOrEqual(t, m.EndSpeed(), p.EndSpeedMax)
		assert.LessOrEqual(t, m.TraverseTime(), 120*time.Second)
		if m.Shape() == track.Curved {
			curved++
		}
		if m.Profile() == track.Ramped {
			ramped++
		}
	}
	assert.InDelta(t, 0.8, float64(curved)/400, 0.08)
	assert.InDelta(t, 0.6, float64(ramped)/400, 0.08)
}

func TestSpawnHonoursMaxDrones(t *testing.T) {
	reg, _ := newTestRegistry(3)
	p := reg.SpawnParams()
	p.MaxDrones = 3
	reg.SetSpawnParams(p)

	for i := 0; i < 3; i++ {
		_, ok := reg.Spawn(t0)
		require.True(t, ok)
	}
	_, ok := reg.Spawn(t0)
	assert.False(t, ok)
	assert.Equal(t, 3, reg.Count())
}

func TestSpawnIsReplayable(t *testing.T) {
	a, _ := newTestRegistry(99)
	b, _ := newTestRegistry(99)
	for i := 0; i < 10; i++ {
		ida, _ := a.Spawn(t0)
		idb, _ := b.Spawn(t0)
		require.Equal(t, ida, idb)
		ma, mb := a.Get(ida).Motion, b.Get(idb).Motion
		assert.Equal(t, ma.Origin(), mb.Origin())
		assert.Equal(t, ma.Target(), mb.Target())
		assert.Equal(t, ma.ControlPoint(), mb.ControlPoint())
		at := t0.Add(7 * time.Second)
		assert.Equal(t, ma.PositionAt(at), mb.PositionAt(at))
	}
}

func TestThreatSorting(t *testing.T) {
	reg, _ := newTestRegistry(1)
	far, _ := reg.AddBallistic(0, geom.V(700, 0), geom.V(0, 10), t0)
	near, _ := reg.AddBallistic(0, geom.V(0, 100), geom.V(10, 0), t0)
	mid, _ := reg.AddBallistic(0, geom.V(-300, 0), geom.V(0, 10), t0)

	assert.Equal(t, []int32{near, mid, far}, ids(reg.ThreatSorted()))
	assert.Equal(t, []int32{near, mid}, ids(reg.ThreatSortedInRadius(geom.Origin, 400)))
	assert.Equal(t, []int32{near, mid, far}, ids(reg.AdvancedSorted(geom.Origin)))
}

func TestAdvancedScoreFactors(t *testing.T) {
	reg, _ := newTestRegistry(1)
	// Closing head-on from 400 at 50 u/s: min approach 0, 8 s to center.
	id, _ := reg.AddBallistic(0, geom.V(-400, 0), geom.V(50, 0), t0)
	e := reg.Get(id)

	want := (1000.0 / 400) * (1000.0 / 500) * 1.5 * 2 * (2 - 8.0/30)
	assert.InDelta(t, want, reg.AdvancedScore(e, geom.Origin), 1e-9)

	// Leaving: closest approach is the current distance, no urgency.
	away, _ := reg.AddBallistic(0, geom.V(400, 0), geom.V(50, 0), t0)
	want = (1000.0 / 400) * (1000.0 / 500) * 1.5 * (2 - 400.0/800)
	assert.InDelta(t, want, reg.AdvancedScore(reg.Get(away), geom.Origin), 1e-9)

	assert.Zero(t, reg.AdvancedScore(nil, geom.Origin))
}

func TestShouldEngageMonotonicInProximity(t *testing.T) {
	velocities := map[string]geom.Vec2{
		"inbound":    geom.V(-40, 0),
		"tangential": geom.V(0, 40),
		"fast":       geom.V(-120, 0),
	}
	for name, vel := range velocities {
		t.Run(name, func(t *testing.T) {
			engaged := false
			for d := 790.0; d >= 10; d -= 10 {
				reg, _ := newTestRegistry(1)
				id, _ := reg.AddBallistic(0, geom.V(d, 0), vel, t0)
				got := reg.ShouldEngage(reg.Get(id), t0, geom.Origin, 800)
				if engaged {
					require.True(t, got, "flipped back to false at d=%v", d)
				}
				engaged = engaged || got
			}
			assert.True(t, engaged, "close entities are engaged")
		})
	}
}

func TestLevelFuncReachesEvents(t *testing.T) {
	reg, bus := newTestRegistry(1)
	reg.SetLevelFunc(func(d float64) int { return int(d) / 10 })

	var added []event.EntityAdded
	var alerts []event.HighPriorityThreat
	event.Subscribe(bus, func(e event.EntityAdded) { added = append(added, e) })
	event.Subscribe(bus, func(e event.HighPriorityThreat) { alerts = append(alerts, e) })

	far, _ := reg.AddBallistic(0, geom.V(0, 300), geom.Vec2{}, t0)
	hot, _ := reg.AddBallistic(0, geom.V(20, 0), geom.V(-60, 0), t0)
	reg.PriorityTargets(t0, geom.Origin, 800, 5)
	flush(bus)

	require.Len(t, added, 2)
	assert.Equal(t, far, added[0].ID)
	assert.Equal(t, 30, added[0].Level)
	assert.Equal(t, 2, added[1].Level)
	require.Len(t, alerts, 1)
	assert.Equal(t, hot, alerts[0].ID)
	assert.Equal(t, 2, alerts[0].Level)

	reg.SetLevelFunc(nil)
	assert.Equal(t, 6, reg.ThreatLevel(reg.Get(far)), "nil restores the built-in bands")
}

func TestShouldEngageOutOfRange(t *testing.T) {
	reg, _ := newTestRegistry(1)
	id, _ := reg.AddBallistic(0, geom.V(0, 900), geom.V(0, -100), t0)
	assert.False(t, reg.ShouldEngage(reg.Get(id), t0, geom.Origin, 800))
	assert.False(t, reg.ShouldEngage(nil, t0, geom.Origin, 800))
}

func TestPriorityTargetsAlertOnce(t *testing.T) {
	reg, bus := newTestRegistry(1)
	hot, _ := reg.AddBallistic(0, geom.V(20, 0), geom.V(-60, 0), t0)
	_, _ = reg.AddBallistic(0, geom.V(780, 0), geom.V(0, 10), t0)

	var alerts []event.HighPriorityThreat
	var recs []event.InterceptRecommendation
	event.Subscribe(bus, func(e event.HighPriorityThreat) { alerts = append(alerts, e) })
	event.Subscribe(bus, func(e event.InterceptRecommendation) { recs = append(recs, e) })

	first := reg.PriorityTargets(t0, geom.Origin, 800, 5)
	second := reg.PriorityTargets(t0, geom.Origin, 800, 5)
	flush(bus)

	assert.Equal(t, []int32{hot}, ids(first))
	assert.Equal(t, ids(first), ids(second))
	require.Len(t, alerts, 1)
	assert.Equal(t, hot, alerts[0].ID)
	assert.Greater(t, alerts[0].Score, 1000.0)
	require.Len(t, recs, 1)
	assert.Equal(t, hot, recs[0].ID)
}

func TestOptimalStrikePoint(t *testing.T) {
	reg, _ := newTestRegistry(1)
	pt, total := reg.OptimalStrikePoint(geom.Origin, 150, 800)
	assert.Equal(t, geom.Origin, pt)
	assert.Zero(t, total)

	for _, p := range []geom.Vec2{geom.V(200, 0), geom.V(210, 10), geom.V(190, -10)} {
		_, _ = reg.AddBallistic(0, p, geom.V(1, 0), t0)
	}
	_, _ = reg.AddBallistic(0, geom.V(-300, 0), geom.V(1, 0), t0)

	pt, total = reg.OptimalStrikePoint(geom.Origin, 150, 800)
	hit := reg.InStrikeRange(pt, 150)
	assert.Equal(t, []int32{1, 2, 3}, ids(hit))
	sum := 0.0
	for _, e := range hit {
		sum += e.ThreatScore()
	}
	assert.InDelta(t, sum, total, 1e-9)
	assert.LessOrEqual(t, pt.Len(), 800.0)
}

func TestGridNearby(t *testing.T) {
	g := NewGrid(100)
	g.Add(1, geom.V(-5, -5))
	g.Add(2, geom.V(250, 0))
	g.Add(3, geom.V(1000, 1000))

	assert.ElementsMatch(t, []int32{1}, g.NearbyInto(geom.Origin, 50, nil))
	assert.ElementsMatch(t, []int32{1, 2}, g.NearbyInto(geom.Origin, 260, nil))
	assert.ElementsMatch(t, []int32{1, 2, 3}, g.NearbyInto(geom.Origin, 5000, nil))

	g.Move(2, geom.V(250, 0), geom.V(-250, 0))
	assert.ElementsMatch(t, []int32{1, 2}, g.NearbyInto(geom.V(-100, 0), 160, nil))
	g.Remove(1, geom.V(-5, -5))
	g.Remove(2, geom.V(-250, 0))
	g.Remove(3, geom.V(1000, 1000))
	assert.Zero(t, g.Len())
}
