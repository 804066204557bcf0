package world

import (
	"slices"
	"sort"

	"github.com/skyguard/radarsim/internal/geom"
)

// InRadius returns active entities within r of center, in ascending ID order.
func (r *Registry) InRadius(center geom.Vec2, radius float64) []*Entity {
	if radius < 0 {
		return nil
	}
	r.idBuf = r.grid.NearbyInto(center, radius, r.idBuf)
	slices.Sort(r.idBuf)
	result := make([]*Entity, 0, len(r.idBuf))
	for _, id := range r.idBuf {
		e := r.entities[id]
		if e == nil || !e.Active {
			continue
		}
		if e.InRange(center, radius) {
			result = append(result, e)
		}
	}
	return result
}

// InStrikeRange returns active entities within the blast radius of point.
func (r *Registry) InStrikeRange(point geom.Vec2, radius float64) []*Entity {
	return r.InRadius(point, radius)
}

// All returns every active entity in ascending ID order.
func (r *Registry) All() []*Entity {
	result := make([]*Entity, 0, len(r.order))
	r.Each(func(e *Entity) { result = append(result, e) })
	return result
}

// ThreatSorted returns every active entity by base threat, highest first.
func (r *Registry) ThreatSorted() []*Entity {
	return sortByScore(r.All(), (*Entity).ThreatScore)
}

// ThreatSortedInRadius is ThreatSorted restricted to a radar disk.
func (r *Registry) ThreatSortedInRadius(center geom.Vec2, radius float64) []*Entity {
	return sortByScore(r.InRadius(center, radius), (*Entity).ThreatScore)
}

// AdvancedSorted returns every active entity by advanced score relative to
// center, highest first.
func (r *Registry) AdvancedSorted(center geom.Vec2) []*Entity {
	return sortByScore(r.All(), func(e *Entity) float64 { return r.AdvancedScore(e, center) })
}

// sortByScore orders descending; equal scores keep ID order.
func sortByScore(es []*Entity, score func(*Entity) float64) []*Entity {
	scores := make(map[int32]float64, len(es))
	for _, e := range es {
		scores[e.ID] = score(e)
	}
	sort.SliceStable(es, func(i, j int) bool {
		return scores[es[i].ID] > scores[es[j].ID]
	})
	return es
}
