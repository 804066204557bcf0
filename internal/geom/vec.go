package geom

import "math"

// Vec2 is a point or displacement in the simulation plane.
// +x is east, +y is south (screen convention), so "north" is -y.
type Vec2 struct {
	X float64
	Y float64
}

// Origin is the defended center of the operating area.
var Origin = Vec2{}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(k float64) Vec2 { return Vec2{a.X * k, a.Y * k} }
func (a Vec2) Dot(b Vec2) float64 { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Len2() float64 { return a.X*a.X + a.Y*a.Y }
func (a Vec2) Len() float64 { return math.Sqrt(a.Len2()) }
func (a Vec2) Dist(b Vec2) float64 { return a.Sub(b).Len() }
func (a Vec2) IsZero() bool { return a.X == 0 && a.Y == 0 }
func (a Vec2) Perp() Vec2 { return Vec2{-a.Y, a.X} }
func (a Vec2) Heading() float64 { return math.Atan2(a.Y, a.X) }

// Unit returns a in unit length, or the zero vector when a is zero.
func (a Vec2) Unit() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

// Lerp interpolates from a to b. t is not clamped.
func Lerp(a, b Vec2, t float64) Vec2 {
	return a.Add(b.Sub(a).Scale(t))
}

// FromPolar builds a vector of length r along heading theta (radians, math convention).
func FromPolar(r, theta float64) Vec2 {
	return Vec2{r * math.Cos(theta), r * math.Sin(theta)}
}

// Azimuth is the bearing from center to target: 0 points north (-y),
// increasing clockwise, always in [0, 2π).
func Azimuth(center, target Vec2) float64 {
	dx := target.X - center.X
	up := center.Y - target.Y
	return NormalizeAngle(math.Atan2(dx, up))
}

// NormalizeAngle wraps a to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	// math.Mod can round -ε up to exactly 2π.
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
