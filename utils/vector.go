// File: utils/vector.go
package utils

import "math"

// NormalizeEpsilon is the magnitude below which a vector normalizes to zero.
const NormalizeEpsilon = 1e-9

// Vec2 is a 2D vector in meters (positions) or m/s (velocities).
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vec2) SquaredMagnitude() float64 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vec2) Magnitude() float64 {
	return math.Sqrt(v.SquaredMagnitude())
}

// Normalize returns the unit vector, or the zero vector if the magnitude is
// below NormalizeEpsilon.
func (v Vec2) Normalize() Vec2 {
	mag := v.Magnitude()
	if mag < NormalizeEpsilon {
		return Vec2{}
	}
	return Vec2{v.X / mag, v.Y / mag}
}

// Reflect mirrors v across the plane with the given unit normal, scaling the
// result by (1 - loss).
func (v Vec2) Reflect(normal Vec2, loss float64) Vec2 {
	dot := v.Dot(normal)
	return Vec2{
		(v.X - 2*dot*normal.X) * (1 - loss),
		(v.Y - 2*dot*normal.Y) * (1 - loss),
	}
}

// Lerp interpolates from v toward target by t, with t clamped to [0, 1].
func (v Vec2) Lerp(target Vec2, t float64) Vec2 {
	if t <= 0 {
		return v
	}
	if t >= 1 {
		return target
	}
	return Vec2{v.X + (target.X-v.X)*t, v.Y + (target.Y-v.Y)*t}
}

// Distance returns the euclidean distance between two points.
func Distance(a, b Vec2) float64 {
	return a.Sub(b).Magnitude()
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
