package kinematic

// This package includes the 2D vector helpers used for participant movement.

import (
	"math"
)

// Vector is a 2D vector or point.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Length returns the euclidean length of the vector.
func (v Vector) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns the unit vector in the direction of v.
// The zero vector is returned unchanged.
func (v Vector) Normalize() Vector {
	l := v.Length()
	if l == 0 {
		return v
	}
	return Vector{X: v.X / l, Y: v.Y / l}
}

// Scale returns v multiplied by s.
func (v Vector) Scale(s float64) Vector {
	return Vector{X: v.X * s, Y: v.Y * s}
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// IsZero returns true if both components are zero.
func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Distance returns the euclidean distance between two points.
func Distance(a Vector, b Vector) float64 {
	return a.Add(b.Scale(-1)).Length()
}

// Clamp limits value to the range [min, max].
func Clamp(value float64, min float64, max float64) float64 {
	return math.Max(min, math.Min(max, value))
}
