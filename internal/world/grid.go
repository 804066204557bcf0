package world

import (
	"math"

	"github.com/skyguard/radarsim/internal/geom"
)

// Grid is a uniform cell index over entity positions. Radius queries visit
// only the cells overlapping the query box; callers do exact distance
// filtering. Accessed only from the game loop goroutine, no locks.
type Grid struct {
	cellSize float64
	cells    map[cellKey]map[int32]struct{} // cellKey → set of entity IDs
}

type cellKey struct {
	cx int32
	cy int32
}

const defaultCellSize = 100

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = defaultCellSize
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[int32]struct{}),
	}
}

func (g *Grid) coord(v float64) int32 {
	return int32(math.Floor(v / g.cellSize))
}

func (g *Grid) key(p geom.Vec2) cellKey {
	return cellKey{cx: g.coord(p.X), cy: g.coord(p.Y)}
}

// Add places an entity into the grid.
func (g *Grid) Add(id int32, p geom.Vec2) {
	k := g.key(p)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[int32]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

// Remove takes an entity out of the grid.
func (g *Grid) Remove(id int32, p geom.Vec2) {
	k := g.key(p)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates an entity's cell when its position changes.
func (g *Grid) Move(id int32, from, to geom.Vec2) {
	if g.key(from) == g.key(to) {
		return
	}
	g.Remove(id, from)
	g.Add(id, to)
}

// NearbyInto appends to buf the IDs in every cell overlapping the square
// [center±radius] and returns it.
func (g *Grid) NearbyInto(center geom.Vec2, radius float64, buf []int32) []int32 {
	buf = buf[:0]
	x0, x1 := g.coord(center.X-radius), g.coord(center.X+radius)
	y0, y1 := g.coord(center.Y-radius), g.coord(center.Y+radius)
	// Box spans more cells than are occupied: walk the occupied ones.
	if int64(x1-x0+1)*int64(y1-y0+1) > int64(len(g.cells)) {
		for k, cell := range g.cells {
			if k.cx < x0 || k.cx > x1 || k.cy < y0 || k.cy > y1 {
				continue
			}
			for id := range cell {
				buf = append(buf, id)
			}
		}
		return buf
	}
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			for id := range g.cells[cellKey{cx: cx, cy: cy}] {
				buf = append(buf, id)
			}
		}
	}
	return buf
}

// Len returns the number of occupied cells.
func (g *Grid) Len() int {
	return len(g.cells)
}
