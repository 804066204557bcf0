package world

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/core/event"
	"github.com/skyguard/radarsim/internal/geom"
	"github.com/skyguard/radarsim/internal/track"
)

var ErrDuplicateID = errors.New("world: duplicate entity id")

// LevelFunc maps a distance from the defended origin to a threat level.
type LevelFunc func(distance float64) int

// Registry exclusively owns all live entities. Removal is synchronous: once
// Strike or Tick returns, a removed entity is unreachable through Get and
// every query. Accessed only from the game loop goroutine, no locks.
type Registry struct {
	entities map[int32]*Entity
	order    []int32 // ascending IDs; fixes iteration order for queries
	grid     *Grid
	nextID   int32

	spawn  SpawnParams
	threat ThreatParams
	level  LevelFunc

	bus *event.Bus
	rng *rand.Rand
	log *zap.Logger

	idBuf []int32
}

// NewRegistry creates an empty registry. rng drives every random choice
// (spawn and perturbation) so a fixed seed replays a run.
func NewRegistry(bus *event.Bus, rng *rand.Rand, log *zap.Logger) *Registry {
	return &Registry{
		entities: make(map[int32]*Entity),
		grid:     NewGrid(defaultCellSize),
		nextID:   1,
		spawn:    DefaultSpawnParams(),
		threat:   DefaultThreatParams(),
		level:    track.ThreatLevel,
		bus:      bus,
		rng:      rng,
		log:      log,
	}
}

func (r *Registry) SpawnParams() SpawnParams       { return r.spawn }
func (r *Registry) SetSpawnParams(p SpawnParams)   { r.spawn = p }
func (r *Registry) ThreatParams() ThreatParams     { return r.threat }
func (r *Registry) SetThreatParams(p ThreatParams) { r.threat = p }

// SetLevelFunc overrides the distance→threat level mapping. nil restores
// the built-in buckets.
func (r *Registry) SetLevelFunc(fn LevelFunc) {
	if fn == nil {
		fn = track.ThreatLevel
	}
	r.level = fn
}

// ThreatLevel returns the entity's discrete threat level.
func (r *Registry) ThreatLevel(e *Entity) int {
	return r.level(e.Position().Dist(geom.Origin))
}

// Get re-resolves an entity by ID. Returns nil once the entity is gone.
func (r *Registry) Get(id int32) *Entity {
	return r.entities[id]
}

// Count returns the number of live entities.
func (r *Registry) Count() int {
	return len(r.entities)
}

// Each iterates live entities in ascending ID order.
func (r *Registry) Each(fn func(*Entity)) {
	for _, id := range r.order {
		if e := r.entities[id]; e != nil && e.Active {
			fn(e)
		}
	}
}

// AddBallistic registers a constant-velocity entity. id 0 asks the registry
// to assign one.
func (r *Registry) AddBallistic(id int32, origin, velocity geom.Vec2, now time.Time) (int32, error) {
	return r.add(id, track.NewBallistic(origin, velocity, now), now)
}

// AddParametric registers a start→target entity. id 0 asks the registry to
// assign one.
func (r *Registry) AddParametric(id int32, spec track.ParametricSpec, now time.Time) (int32, error) {
	return r.add(id, track.NewParametric(spec, now), now)
}

func (r *Registry) add(id int32, m *track.Model, now time.Time) (int32, error) {
	if id == 0 {
		id = r.allocID()
	}
	if _, exists := r.entities[id]; exists {
		r.log.Warn("entity id already exists", zap.Int32("id", id))
		return 0, fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	if id >= r.nextID {
		r.nextID = id + 1
	}

	e := &Entity{ID: id, Motion: m, Active: true, SpawnedAt: now}
	r.entities[id] = e
	r.insertOrder(id)
	r.grid.Add(id, m.Position)

	level := r.ThreatLevel(e)
	event.Emit(r.bus, event.EntityAdded{
		ID:         id,
		Position:   m.Position,
		Parametric: m.IsParametric(),
		Level:      level,
		At:         now,
	})
	r.log.Debug("entity added",
		zap.Int32("id", id),
		zap.Int("threat_level", level),
		zap.Bool("parametric", m.IsParametric()),
		zap.Stringer("shape", m.Shape()),
		zap.Stringer("profile", m.Profile()),
		zap.Float64("x", m.Position.X),
		zap.Float64("y", m.Position.Y),
	)
	return id, nil
}

func (r *Registry) allocID() int32 {
	for {
		id := r.nextID
		r.nextID++
		if r.nextID == math.MaxInt32 {
			r.nextID = 1
		}
		if _, taken := r.entities[id]; !taken {
			return id
		}
	}
}

func (r *Registry) insertOrder(id int32) {
	i, _ := slices.BinarySearch(r.order, id)
	r.order = slices.Insert(r.order, i, id)
}

// remove deletes an entity from every index. Callers emit the matching event.
func (r *Registry) remove(e *Entity) {
	e.Active = false
	r.grid.Remove(e.ID, e.Motion.Position)
	delete(r.entities, e.ID)
	if i, found := slices.BinarySearch(r.order, e.ID); found {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// Tick perturbs, advances and escape-checks every active entity.
func (r *Registry) Tick(now time.Time) (escaped int) {
	var gone []*Entity
	for _, id := range r.order {
		e := r.entities[id]
		if e == nil || !e.Active {
			continue
		}
		// SetVelocity re-bases ballistic motion at now, so the grid cell
		// must be read before perturbing.
		before := e.Motion.Position
		if r.rng.Float64() < r.spawn.PerturbChance {
			r.perturb(e, now)
		}
		e.Motion.Advance(now)
		r.grid.Move(id, before, e.Motion.Position)

		if !e.InSquare(r.spawn.HalfSize) {
			gone = append(gone, e)
		}
	}
	for _, e := range gone {
		r.remove(e)
		event.Emit(r.bus, event.EntityEscaped{ID: e.ID, Position: e.Position(), At: now})
		r.log.Debug("entity escaped",
			zap.Int32("id", e.ID),
			zap.Float64("x", e.Position().X),
			zap.Float64("y", e.Position().Y),
		)
	}
	return len(gone)
}

func (r *Registry) perturb(e *Entity, now time.Time) {
	m := e.Motion
	angle := m.Velocity.Heading() + (r.rng.Float64()-0.5)*r.spawn.PerturbAngle
	speed := m.Velocity.Len() + (r.rng.Float64()-0.5)*r.spawn.PerturbSpeed
	speed = geom.Clamp(speed, r.spawn.MinSpeed, math.Max(r.spawn.MinSpeed, r.spawn.MaxSpeed))
	m.SetVelocity(geom.FromPolar(speed, angle), now)
}

// Strike destroys every active entity within radius of point, emits one
// EntityDestroyed per entity and a single StrikeExecuted, and returns the
// number destroyed.
func (r *Registry) Strike(point geom.Vec2, radius float64, now time.Time) int {
	targets := r.InStrikeRange(point, radius)
	for _, e := range targets {
		e.Destroyed = true
		r.remove(e)
		event.Emit(r.bus, event.EntityDestroyed{ID: e.ID, Position: e.Position(), At: now})
	}
	event.Emit(r.bus, event.StrikeExecuted{
		Center:    point,
		Radius:    radius,
		Destroyed: len(targets),
		At:        now,
	})
	r.log.Info("strike executed",
		zap.Float64("x", point.X),
		zap.Float64("y", point.Y),
		zap.Float64("radius", radius),
		zap.Int("destroyed", len(targets)),
	)
	return len(targets)
}
