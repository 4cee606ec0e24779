// Package vmath provides the small fixed-size float32 vector and matrix types
// used by the transfer passes.
package vmath

import "math"

// Vec2 is a 2D column vector.
type Vec2 struct {
	X, Y float32
}

// V2 is shorthand for Vec2{x, y}.
func V2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float32) Vec2 { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Dot(b Vec2) float32  { return a.X*b.X + a.Y*b.Y }

// LengthSq returns the squared Euclidean length.
func (a Vec2) LengthSq() float32 {
	return a.X*a.X + a.Y*a.Y
}

// Length returns the Euclidean length.
func (a Vec2) Length() float32 {
	return float32(math.Sqrt(float64(a.LengthSq())))
}

// Outer returns the outer product a ⊗ b.
func (a Vec2) Outer(b Vec2) Mat2 {
	return Mat2{
		XX: a.X * b.X, XY: a.X * b.Y,
		YX: a.Y * b.X, YY: a.Y * b.Y,
	}
}

// Clamp clamps each component into [lo, hi].
func (a Vec2) Clamp(lo, hi Vec2) Vec2 {
	return Vec2{clampf(a.X, lo.X, hi.X), clampf(a.Y, lo.Y, hi.Y)}
}

// IsFinite reports whether neither component is NaN or infinite.
func (a Vec2) IsFinite() bool {
	return IsFinite(a.X) && IsFinite(a.Y)
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// SafeInverse returns 1/x, or 0 when |x| is below 1e-12.
func SafeInverse(x float32) float32 {
	if x > -1e-12 && x < 1e-12 {
		return 0
	}
	return 1 / x
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
